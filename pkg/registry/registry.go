// Package registry owns the mapping from connection id to live, pooled MySQL
// handle. It is the single source of truth for whether a connection is usable:
// an id resolves if and only if its pool is live.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver for database/sql
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relaydb/mysql-mcp/pkg/apperrors"
	"github.com/relaydb/mysql-mcp/pkg/logging"
)

// Config holds pool settings applied to every registered connection.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// entry pairs a pooled handle with the descriptor it was built from. Entries
// are owned exclusively by the Registry and never handed out.
type entry struct {
	id         string
	descriptor string
	db         *sql.DB
}

// Registry is a concurrently-accessible mapping from connection id to pooled
// database handle. Mutations are serialized; resolves run concurrently.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*entry
	closed bool

	cfg    Config
	logger *zap.Logger
}

// ConnectionInfo describes a registered connection for diagnostics. The
// descriptor is credential-sanitized.
type ConnectionInfo struct {
	ID         string `json:"conn_id"`
	Descriptor string `json:"descriptor"`
}

// PoolStats reports database/sql pool counters for one connection.
type PoolStats struct {
	ID              string `json:"conn_id"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
}

// New creates an empty registry.
func New(cfg Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		conns:  make(map[string]*entry),
		cfg:    cfg,
		logger: logger,
	}
}

// Register validates the descriptor, builds a bounded lazy pool, verifies the
// database is reachable, and inserts the entry under a fresh random id.
// Nothing is inserted on failure.
//
// The reachability check happens before the entry exists, so no lock is ever
// held across network I/O.
func (r *Registry) Register(ctx context.Context, descriptor string) (string, error) {
	cfg, err := ParseDescriptor(descriptor, r.cfg.ConnectTimeout)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidDescriptor, err)
	}
	db.SetMaxOpenConns(r.cfg.MaxOpenConns)
	db.SetMaxIdleConns(r.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(r.cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, r.cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		r.logger.Warn("connection check failed",
			zap.String("descriptor", logging.SanitizeDescriptor(descriptor)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return "", fmt.Errorf("%w: %s", apperrors.ErrConnectFailed, logging.SanitizeError(err))
	}

	id := uuid.NewString()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = db.Close()
		return "", fmt.Errorf("%w: registry closed", apperrors.ErrConnectFailed)
	}
	r.conns[id] = &entry{id: id, descriptor: descriptor, db: db}
	total := len(r.conns)
	r.mu.Unlock()

	r.logger.Info("registered connection",
		zap.String("conn_id", id),
		zap.String("descriptor", logging.SanitizeDescriptor(descriptor)),
		zap.Int("total_connections", total),
	)
	return id, nil
}

// Unregister removes the entry and closes its pool. Removal happens under the
// write lock; the close happens after, so no resolve can observe a
// removed-but-open or present-but-closed state. sql.DB.Close waits for
// statements already running to finish, which gives drain-then-close
// semantics without cancelling in-flight work.
//
// A second unregister of the same id fails with ErrConnectionNotFound.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	e, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrConnectionNotFound, id)
	}

	if err := e.db.Close(); err != nil {
		r.logger.Warn("pool close reported error",
			zap.String("conn_id", id),
			zap.String("error", logging.SanitizeError(err)),
		)
	}
	r.logger.Info("unregistered connection", zap.String("conn_id", id))
	return nil
}

// Resolve returns the pooled handle for id. The handle is borrowed for the
// scope of one dispatched operation; callers must not retain it.
func (r *Registry) Resolve(id string) (*sql.DB, error) {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConnectionNotFound, id)
	}
	return e.db, nil
}

// List returns diagnostics for every registered connection, with credentials
// redacted from descriptors.
func (r *Registry) List() []ConnectionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ConnectionInfo, 0, len(r.conns))
	for _, e := range r.conns {
		infos = append(infos, ConnectionInfo{
			ID:         e.id,
			Descriptor: logging.SanitizeDescriptor(e.descriptor),
		})
	}
	return infos
}

// Stats returns pool counters for every registered connection.
// Safe to call concurrently.
func (r *Registry) Stats() []PoolStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]PoolStats, 0, len(r.conns))
	for _, e := range r.conns {
		s := e.db.Stats()
		stats = append(stats, PoolStats{
			ID:              e.id,
			OpenConnections: s.OpenConnections,
			InUse:           s.InUse,
			Idle:            s.Idle,
			WaitCount:       s.WaitCount,
		})
	}
	return stats
}

// Close drains and closes every pool. Idempotent; used at process shutdown.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := make([]*entry, 0, len(r.conns))
	for _, e := range r.conns {
		entries = append(entries, e)
	}
	r.conns = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		if err := e.db.Close(); err != nil {
			r.logger.Warn("pool close reported error",
				zap.String("conn_id", e.id),
				zap.String("error", logging.SanitizeError(err)),
			)
		}
	}
	r.logger.Info("registry closed", zap.Int("closed_pools", len(entries)))
	return nil
}
