package lspclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ServerSpec names the command used to launch a language server and the
// root URI clients in this pool should initialize against.
type ServerSpec struct {
	Command string
	Args    []string
	RootURI string
}

// pooledClient tracks a Client alongside the bookkeeping the pool needs:
// last-use time for idle eviction, and whether it's currently on loan.
type pooledClient struct {
	client   *Client
	lastUsed time.Time
	inUse    bool
}

// Pool manages a bounded set of language-server Clients for one ServerSpec,
// handing them out round-robin and evicting clients that have sat idle too
// long. A semaphore caps how many clients may exist concurrently; callers
// beyond that cap block until one is released.
type Pool struct {
	spec     ServerSpec
	maxSize  int
	idleTTL  time.Duration

	sem *semaphore.Weighted

	mu      sync.Mutex
	clients []*pooledClient
	next    int // round-robin cursor over in-use-eligible clients
}

// NewPool builds a pool that spawns up to maxSize concurrent clients for
// spec, evicting any client idle longer than idleTTL on the next Acquire.
func NewPool(spec ServerSpec, maxSize int, idleTTL time.Duration) *Pool {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Pool{
		spec:    spec,
		maxSize: maxSize,
		idleTTL: idleTTL,
		sem:     semaphore.NewWeighted(int64(maxSize)),
	}
}

// Acquire returns a ready, initialized Client: an idle, live client chosen
// round-robin if there is one, otherwise a newly spawned one. It blocks
// until ctx is done or a slot is available.
func (p *Pool) Acquire(ctx context.Context) (*Client, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("lspclient: acquire pool slot: %w", err)
	}

	p.mu.Lock()
	p.evictIdleLocked()

	// Round-robin over existing idle clients before spawning a new one.
	for i := 0; i < len(p.clients); i++ {
		idx := (p.next + i) % len(p.clients)
		pc := p.clients[idx]
		if !pc.inUse && pc.client.Alive() {
			pc.inUse = true
			p.next = (idx + 1) % len(p.clients)
			p.mu.Unlock()
			return pc.client, nil
		}
	}
	p.mu.Unlock()

	client, err := Start(ctx, p.spec.Command, p.spec.Args...)
	if err != nil {
		p.sem.Release(1)
		return nil, fmt.Errorf("lspclient: spawn %s: %w", p.spec.Command, err)
	}
	if err := client.Initialize(ctx, p.spec.RootURI); err != nil {
		client.Close()
		p.sem.Release(1)
		return nil, fmt.Errorf("lspclient: initialize %s: %w", p.spec.Command, err)
	}

	p.mu.Lock()
	p.clients = append(p.clients, &pooledClient{client: client, inUse: true, lastUsed: time.Now()})
	p.mu.Unlock()
	return client, nil
}

// Release returns client to the pool, marking it idle and eligible for
// reuse or eviction.
func (p *Pool) Release(client *Client) {
	p.mu.Lock()
	for _, pc := range p.clients {
		if pc.client == client {
			pc.inUse = false
			pc.lastUsed = time.Now()
			break
		}
	}
	p.mu.Unlock()
	p.sem.Release(1)
}

// evictIdleLocked closes and drops any idle client whose lastUsed exceeds
// idleTTL. Must be called with p.mu held.
func (p *Pool) evictIdleLocked() {
	if p.idleTTL <= 0 {
		return
	}
	cutoff := time.Now().Add(-p.idleTTL)
	kept := p.clients[:0]
	for _, pc := range p.clients {
		if !pc.inUse && pc.lastUsed.Before(cutoff) {
			pc.client.Close()
			continue
		}
		kept = append(kept, pc)
	}
	p.clients = kept
}

// Capabilities returns the cached server capabilities from any currently
// known client, without acquiring one — capability negotiation is assumed
// identical across clients of the same ServerSpec, so the first
// successfully initialized client's result is reused.
func (p *Pool) Capabilities() (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pc := range p.clients {
		if pc.client.Capabilities != nil {
			return pc.client.Capabilities, true
		}
	}
	return nil, false
}

// Close shuts down every client the pool has ever spawned.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pc := range p.clients {
		pc.client.Close()
	}
	p.clients = nil
	return nil
}
