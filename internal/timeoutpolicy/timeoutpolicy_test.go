package timeoutpolicy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeout_SeedsFromFirstCall(t *testing.T) {
	p := New()
	got := p.Timeout("go", OpDefinition)
	assert.Equal(t, defaultBounds[OpDefinition].FirstCall, got)
}

func TestRecordSuccess_ShrinksTowardNormalAfterRun(t *testing.T) {
	p := New()
	p.WithBounds(OpDefinition, Bounds{Normal: time.Second, FirstCall: 5 * time.Second, Ceiling: 10 * time.Second})

	for i := 0; i < shrinkAfterSuccesses; i++ {
		p.RecordSuccess("go", OpDefinition, 100*time.Millisecond)
	}
	assert.Equal(t, time.Second, p.Timeout("go", OpDefinition))
}

func TestRecordSuccess_DoesNotShrinkBeforeRunComplete(t *testing.T) {
	p := New()
	p.WithBounds(OpDefinition, Bounds{Normal: time.Second, FirstCall: 5 * time.Second, Ceiling: 10 * time.Second})

	for i := 0; i < shrinkAfterSuccesses-1; i++ {
		p.RecordSuccess("go", OpDefinition, 100*time.Millisecond)
	}
	assert.Equal(t, 5*time.Second, p.Timeout("go", OpDefinition))
}

func TestRecordFailure_GrowsAfterRunCappedAtCeiling(t *testing.T) {
	p := New()
	p.WithBounds(OpDefinition, Bounds{Normal: time.Second, FirstCall: time.Second, Ceiling: 2 * time.Second})

	for i := 0; i < growAfterFailures; i++ {
		p.RecordFailure("go", OpDefinition)
	}
	got := p.Timeout("go", OpDefinition)
	assert.Equal(t, 1500*time.Millisecond, got)

	for i := 0; i < growAfterFailures; i++ {
		p.RecordFailure("go", OpDefinition)
	}
	got = p.Timeout("go", OpDefinition)
	assert.Equal(t, 2*time.Second, got, "growth never exceeds the ceiling")
}

func TestRecordFailure_ResetsOnInterveningSuccess(t *testing.T) {
	p := New()
	p.WithBounds(OpDefinition, Bounds{Normal: time.Second, FirstCall: time.Second, Ceiling: 5 * time.Second})

	p.RecordFailure("go", OpDefinition)
	p.RecordFailure("go", OpDefinition)
	p.RecordSuccess("go", OpDefinition, 10*time.Millisecond)
	p.RecordFailure("go", OpDefinition)
	// Only one consecutive failure since the success reset the counter, so
	// growth must not have triggered.
	assert.Equal(t, time.Second, p.Timeout("go", OpDefinition))
}

func TestStates_AreIndependentPerLanguage(t *testing.T) {
	p := New()
	p.WithBounds(OpDefinition, Bounds{Normal: time.Second, FirstCall: time.Second, Ceiling: 5 * time.Second})

	for i := 0; i < growAfterFailures; i++ {
		p.RecordFailure("go", OpDefinition)
	}
	assert.NotEqual(t, time.Second, p.Timeout("go", OpDefinition))
	assert.Equal(t, time.Second, p.Timeout("rust", OpDefinition), "a different language's state is untouched")
}
