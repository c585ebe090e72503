// Package sqlite implements the SQLite adapter: connection lifecycle,
// schema alteration, and the transactional read and write protocol over
// registered connections.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/wlsqlite/internal/populate"
	"github.com/mesh-intelligence/wlsqlite/internal/schema"
	"github.com/mesh-intelligence/wlsqlite/internal/sequel"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// Compiler turns abstract criteria into parameterized statements.
// Placeholders are written $1..$N.
type Compiler interface {
	Find(table string, c types.Criteria) (types.Statement, error)
	Count(table string, c types.Criteria) (types.Statement, error)
	Update(table string, c types.Criteria, patch types.Record) (types.Statement, error)
	Destroy(table string, c types.Criteria) (types.Statement, error)
	SimpleWhere(table string, w types.Where) (types.Statement, error)
}

// Populator resolves join instructions using the find and primary-key
// capabilities of one connection.
type Populator func(ctx context.Context, f populate.Finder, table string, c types.Criteria, instructions []types.JoinInstruction) ([]types.Record, error)

// Opener opens the database handle of a connection.
type Opener func(cfg types.ConnectionConfig) (*sql.DB, error)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithCompiler replaces the criteria compiler built for each connection.
func WithCompiler(fn func(*schema.Registry) Compiler) Option {
	return func(a *Adapter) { a.newCompiler = fn }
}

// WithPopulator replaces the join traversal.
func WithPopulator(p Populator) Option {
	return func(a *Adapter) { a.populate = p }
}

// WithOpener replaces how database handles are opened.
func WithOpener(o Opener) Option {
	return func(a *Adapter) { a.open = o }
}

// Adapter owns the registered connections. It is safe for concurrent use.
type Adapter struct {
	mu    sync.RWMutex
	conns map[string]*connection

	log         log.FieldLogger
	open        Opener
	newCompiler func(*schema.Registry) Compiler
	populate    Populator
}

// connection is one registered logical connection.
type connection struct {
	config      types.ConnectionConfig
	db          *sql.DB
	schema      *schema.Registry
	collections map[string]types.Collection
	compiler    Compiler
	translator  schema.Translator
	log         log.FieldLogger
}

// New returns an Adapter with no connections.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		conns: make(map[string]*connection),
		log:   log.StandardLogger(),
		open:  Open,
		newCompiler: func(r *schema.Registry) Compiler {
			return sequel.New(r, sequel.DefaultOptions)
		},
		populate: populate.Populate,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterConnection opens the database of cfg and records the schema of
// collections under cfg.Identity. Registering an identity twice fails
// with ErrIdentityDuplicate and leaves the first connection untouched.
func (a *Adapter) RegisterConnection(ctx context.Context, cfg types.ConnectionConfig, collections map[string]types.Collection) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.conns[cfg.Identity]; ok {
		return types.ErrIdentityDuplicate
	}

	db, err := a.open(cfg)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.Identity, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("opening %s: %w", cfg.Identity, err)
	}

	logger := a.log.WithField("connection", cfg.Identity)
	registry := schema.Build(collections)
	a.conns[cfg.Identity] = &connection{
		config:      cfg,
		db:          db,
		schema:      registry,
		collections: collections,
		compiler:    a.newCompiler(registry),
		translator:  schema.Translator{Strict: cfg.StrictTypes, Log: logger},
		log:         logger,
	}

	logger.WithFields(log.Fields{
		"filename":  cfg.Filename,
		"ephemeral": cfg.Ephemeral,
		"tables":    len(registry.Tables()),
	}).Debug("registered connection")
	return nil
}

// Teardown closes the connection registered under identity and forgets
// it. Tearing down an unknown identity is a no-op.
func (a *Adapter) Teardown(identity string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.conns[identity]
	if !ok {
		return nil
	}
	err := c.db.Close()
	delete(a.conns, identity)
	return err
}

// TeardownAll closes every registered connection concurrently. Each
// connection is forgotten once its close completes.
func (a *Adapter) TeardownAll() error {
	a.mu.RLock()
	conns := make(map[string]*connection, len(a.conns))
	for id, c := range a.conns {
		conns[id] = c
	}
	a.mu.RUnlock()

	var g errgroup.Group
	for id, c := range conns {
		id, c := id, c
		g.Go(func() error {
			err := c.db.Close()
			a.mu.Lock()
			if a.conns[id] == c {
				delete(a.conns, id)
			}
			a.mu.Unlock()
			if err != nil {
				return fmt.Errorf("closing %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Identities returns the registered connection identities, sorted.
func (a *Adapter) Identities() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]string, 0, len(a.conns))
	for id := range a.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Collections returns the collections identity was registered with.
func (a *Adapter) Collections(identity string) (map[string]types.Collection, error) {
	c, err := a.conn(identity)
	if err != nil {
		return nil, err
	}
	return c.collections, nil
}

// PrimaryKeyOf returns the primary-key attribute of table on identity.
func (a *Adapter) PrimaryKeyOf(identity, table string) (string, error) {
	c, err := a.conn(identity)
	if err != nil {
		return "", err
	}
	return c.schema.PrimaryKeyOf(table), nil
}

func (a *Adapter) conn(identity string) (*connection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	c, ok := a.conns[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownConnection, identity)
	}
	return c, nil
}
