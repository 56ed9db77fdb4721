package ledger

import "sync"

// Registry hands out one ledger per account. Ledgers are created lazily on
// first use and live for the lifetime of the process; no resource is shared
// across users.
type Registry struct {
	mu      sync.Mutex
	ledgers map[string]*Ledger
	opts    []Option
}

// NewRegistry returns a registry whose ledgers are built with the given
// options.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		ledgers: make(map[string]*Ledger),
		opts:    opts,
	}
}

// For returns the ledger owned by accountID, creating it if needed.
func (r *Registry) For(accountID string) *Ledger {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ledgers[accountID]
	if !ok {
		l = New(r.opts...)
		r.ledgers[accountID] = l
	}
	return l
}
