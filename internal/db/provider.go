// Package db owns the connection lifecycle: a single explicitly created pool
// for the HTTP service and single unpooled connections for CLI tools.
package db

import (
	"context"
	"database/sql"
	"sync"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/common"
)

// State is the lifecycle of a Provider's pool.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Provider holds at most one active pool. Pools are never created lazily:
// Pool fails until CreatePool has succeeded.
type Provider struct {
	mu    sync.Mutex
	state State
	pool  *Pool
}

// NewProvider returns a provider in the uninitialized state
func NewProvider() *Provider {
	return &Provider{}
}

// State reports the current lifecycle state
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CreatePool opens the pool and makes it active. It fails with
// apperr.ErrPoolActive if a pool is already active and with
// apperr.ErrConnection if the store cannot be reached. A provider that was
// closed may create a new pool.
func (p *Provider) CreatePool(ctx context.Context, cfg Config) (*Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateActive {
		return nil, apperr.New(apperr.ErrPoolActive, "create pool", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperr.New(apperr.ErrInvalidArgument, "create pool", err)
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, apperr.Connection("create pool", err)
	}
	p.pool = pool
	p.state = StateActive
	return pool, nil
}

// Pool returns the active pool without creating one.
func (p *Provider) Pool() (*Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateActive:
		return p.pool, nil
	case StateClosed:
		return nil, apperr.ErrPoolClosed
	default:
		return nil, apperr.ErrNotInitialized
	}
}

// WithTx runs fn in a transaction on the active pool.
func (p *Provider) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	pool, err := p.Pool()
	if err != nil {
		return err
	}
	return pool.WithTx(ctx, fn)
}

// Close releases every pooled connection. Calling it again, or before a pool
// was created, is a no-op that still leaves the provider closed.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateActive {
		p.state = StateClosed
		return nil
	}
	err := p.pool.close()
	p.pool = nil
	p.state = StateClosed
	if err != nil {
		return err
	}
	common.GetLogger().WithComponent("db").Info("database pool closed")
	return nil
}
