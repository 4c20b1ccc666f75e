package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"containerboard/api/internal/events"
	"containerboard/api/internal/persist"
	"containerboard/api/internal/tracker"
)

// snapshotStore is the persistence surface the coordinator and service need.
// *persist.Synchronizer implements it.
type snapshotStore interface {
	Persist(ctx context.Context, scope persist.Scope, records []tracker.Record) error
	Load(ctx context.Context, scope persist.Scope) ([]tracker.Record, error)
	Ping(ctx context.Context) map[string]error
}

// Workspace is the collection one session works on. Its mutex is held for
// the whole of a dispatch.
type Workspace struct {
	mu     sync.Mutex
	scope  persist.Scope
	repo   *tracker.Repository
	loaded bool
}

func NewWorkspace(scope persist.Scope, claimScope tracker.ClaimScope) *Workspace {
	return &Workspace{scope: scope, repo: tracker.NewRepository(claimScope)}
}

func (w *Workspace) Scope() persist.Scope {
	return w.scope
}

// Snapshot returns a copy of the workspace records.
func (w *Workspace) Snapshot() []tracker.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.repo.Snapshot()
}

// Outcome is the result of an applied intent. Saved is false when the
// snapshot could not be written; the in-memory change stands either way.
type Outcome struct {
	Intent    string
	Saved     bool
	SaveError error
	Records   []tracker.Record
}

type Coordinator struct {
	store    snapshotStore
	notifier events.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewCoordinator(store snapshotStore, notifier events.Notifier, log zerolog.Logger) *Coordinator {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &Coordinator{store: store, notifier: notifier, log: log, now: time.Now}
}

// Dispatch validates intent, applies it to the workspace, persists the full
// snapshot and signals that the view changed. Validation and not-found
// errors are returned before anything is written.
func (c *Coordinator) Dispatch(ctx context.Context, ws *Workspace, intent Intent) (Outcome, error) {
	if err := intent.Validate(); err != nil {
		return Outcome{}, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if err := intent.Apply(ws.repo); err != nil {
		return Outcome{}, err
	}

	snapshot := ws.repo.Snapshot()
	outcome := Outcome{Intent: intent.Kind(), Saved: true, Records: snapshot}
	if err := c.store.Persist(ctx, ws.scope, snapshot); err != nil {
		outcome.Saved = false
		outcome.SaveError = err
		c.log.Warn().Err(err).Str("intent", intent.Kind()).Str("collection", ws.scope.CollectionPath()).Msg("snapshot not saved")
	}

	event := events.ViewChanged{
		Collection: ws.scope.CollectionPath(),
		Intent:     intent.Kind(),
		Saved:      outcome.Saved,
		Records:    len(snapshot),
		At:         c.now().UTC(),
	}
	if err := c.notifier.ViewChanged(ctx, event); err != nil {
		c.log.Warn().Err(err).Str("intent", intent.Kind()).Msg("view change not published")
	}
	return outcome, nil
}
