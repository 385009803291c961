package extract

import (
	"sync"
	"time"

	"github.com/mizchi/lsif-indexer/internal/lspclient"
)

// defaultPoolSize is the default number of clients per language, per
// spec §4.4.
const defaultPoolSize = 4

// defaultIdleTTL is how long an idle client survives before eviction.
const defaultIdleTTL = 5 * time.Minute

// PoolManager lazily spawns one lspclient.Pool per language, so the
// extraction pipeline and the query engine can share pools keyed by
// language id without either owning process-launch details.
type PoolManager struct {
	rootURI string
	size    int
	idleTTL time.Duration

	mu    sync.Mutex
	pools map[string]*lspclient.Pool
}

// NewPoolManager builds a manager rooted at rootURI (the workspace root,
// passed to each server's initialize call).
func NewPoolManager(rootURI string) *PoolManager {
	return &PoolManager{
		rootURI: rootURI,
		size:    defaultPoolSize,
		idleTTL: defaultIdleTTL,
		pools:   make(map[string]*lspclient.Pool),
	}
}

// WithPoolSize overrides the per-language client cap.
func (m *PoolManager) WithPoolSize(n int) *PoolManager {
	if n > 0 {
		m.size = n
	}
	return m
}

// Pool returns the Pool for lang, spawning one from the built-in adapter
// table on first use. Returns ok=false if lang has no built-in adapter.
func (m *PoolManager) Pool(lang string) (*lspclient.Pool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pools[lang]; ok {
		return p, true
	}
	adapter, ok := AdapterForLanguage(lang)
	if !ok {
		return nil, false
	}
	p := lspclient.NewPool(lspclient.ServerSpec{
		Command: adapter.Command,
		Args:    adapter.Args,
		RootURI: m.rootURI,
	}, m.size, m.idleTTL)
	m.pools[lang] = p
	return p, true
}

// Close shuts down every pool the manager has ever spawned.
func (m *PoolManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pools {
		p.Close()
	}
	m.pools = make(map[string]*lspclient.Pool)
	return nil
}
