// Package session owns the process-wide tenant state: which organization is
// authenticated and which workflow is selected. Every schema handed to the
// form, table, and import layers originates here.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/callcare/callcare/internal/schema"
)

// State is the lifecycle of the tenant context.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "uninitialized"
	}
}

// ErrNotAuthenticated is returned for schema requests while no organization
// is loaded.
var ErrNotAuthenticated = errors.New("no authenticated organization")

// Snapshot is the persisted session state restored at process start.
type Snapshot struct {
	Organization     *schema.Organization `json:"organization"`
	SelectedWorkflow string               `json:"selected_workflow,omitempty"`
}

// SnapshotStore persists the session snapshot across restarts. Load returns
// (nil, nil) when no snapshot exists; absence is not an error.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Clear(ctx context.Context) error
}

// Context holds the authenticated organization and selected workflow. It is
// the sole owner of that state: consumers borrow read-only resolved schemas
// and must re-resolve after any replacement.
//
// The epoch counter increments on every state replacement (login, logout,
// workflow switch). Surfaces capture the epoch when they build a form or
// table and discard in-flight results whose epoch no longer matches, which
// closes the race where a response for the old tenant lands after a switch.
type Context struct {
	mu       sync.RWMutex
	state    State
	org      *schema.Organization
	workflow string
	epoch    uint64

	store  SnapshotStore
	logger zerolog.Logger
}

// New returns an uninitialized context. store may be nil when persistence is
// not wanted (tests, one-shot CLI runs).
func New(store SnapshotStore, logger zerolog.Logger) *Context {
	return &Context{state: StateUninitialized, store: store, logger: logger}
}

// Restore attempts to load a persisted snapshot. A missing snapshot yields
// the unauthenticated state, not an error; a store failure leaves the
// context unauthenticated as well so the process can still start.
func (c *Context) Restore(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateLoading
	c.mu.Unlock()

	var snap *Snapshot
	if c.store != nil {
		var err error
		snap, err = c.store.Load(ctx)
		if err != nil {
			c.mu.Lock()
			c.state = StateUnauthenticated
			c.mu.Unlock()
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if snap == nil || snap.Organization == nil {
		c.state = StateUnauthenticated
		return nil
	}
	c.org = snap.Organization
	c.workflow = snap.SelectedWorkflow
	c.state = StateAuthenticated
	c.epoch++
	c.logger.Info().Str("org", c.org.Slug).Str("workflow", c.workflow).Msg("session restored")
	return nil
}

// Login replaces the organization wholesale. There is no merge: schemas held
// from the previous organization are invalid from this point on.
func (c *Context) Login(ctx context.Context, org *schema.Organization) error {
	if org == nil {
		return errors.New("login requires an organization")
	}

	c.mu.Lock()
	c.org = org
	c.workflow = ""
	c.state = StateAuthenticated
	c.epoch++
	c.mu.Unlock()

	c.logger.Info().Str("org", org.Slug).Msg("organization loaded")
	return c.persist(ctx)
}

// Logout clears the organization and selected workflow atomically. Forms and
// tables built against the old schema must be discarded by their surfaces;
// the epoch bump makes stale ones detectable.
func (c *Context) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.org = nil
	c.workflow = ""
	c.state = StateUnauthenticated
	c.epoch++
	c.mu.Unlock()

	c.logger.Info().Msg("session cleared")
	if c.store == nil {
		return nil
	}
	return c.store.Clear(ctx)
}

// Invalidate handles the collaborator's unauthorized signal. It is logout,
// not a transient error.
func (c *Context) Invalidate(ctx context.Context) error {
	c.logger.Warn().Msg("session invalidated by collaborator")
	return c.Logout(ctx)
}

// SelectWorkflow switches the active workflow. The workflow must exist in
// the organization's configuration; switching bumps the epoch so surfaces
// rebuild against the new schema instead of migrating old forms.
func (c *Context) SelectWorkflow(ctx context.Context, workflowID string) error {
	c.mu.Lock()
	if c.state != StateAuthenticated {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	if _, err := schema.Resolve(c.org, workflowID); err != nil {
		c.mu.Unlock()
		return err
	}
	c.workflow = workflowID
	c.epoch++
	c.mu.Unlock()

	return c.persist(ctx)
}

// ActiveSchema resolves the currently selected workflow's configuration and
// returns it together with the epoch it belongs to.
func (c *Context) ActiveSchema() (*schema.WorkflowConfig, uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateAuthenticated {
		return nil, c.epoch, ErrNotAuthenticated
	}
	cfg, err := schema.Resolve(c.org, c.workflow)
	if err != nil {
		return nil, c.epoch, err
	}
	return cfg, c.epoch, nil
}

// Organization returns the authenticated organization, or nil.
func (c *Context) Organization() *schema.Organization {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.org
}

// SelectedWorkflow returns the active workflow id, or "".
func (c *Context) SelectedWorkflow() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workflow
}

// State returns the current lifecycle state.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Epoch returns the current epoch.
func (c *Context) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// Stale reports whether state captured at epoch has been replaced. Results
// of in-flight requests captured before a login, logout, or workflow switch
// must be discarded, never applied.
func (c *Context) Stale(epoch uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return epoch != c.epoch
}

func (c *Context) persist(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	c.mu.RLock()
	snap := &Snapshot{Organization: c.org, SelectedWorkflow: c.workflow}
	c.mu.RUnlock()
	if err := c.store.Save(ctx, snap); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist session snapshot")
		return err
	}
	return nil
}
