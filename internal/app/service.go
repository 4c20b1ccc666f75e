package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"containerboard/api/internal/auth"
	"containerboard/api/internal/events"
	"containerboard/api/internal/persist"
	"containerboard/api/internal/rbac"
	"containerboard/api/internal/tracker"
)

const todayLayout = "2006-01-02"

type Session struct {
	UserID   string
	UserName string
	Role     rbac.Role
}

type Options struct {
	PerUserScope bool
	ClaimScope   tracker.ClaimScope
	Location     *time.Location
	Log          zerolog.Logger
}

// Service owns one workspace per collection and routes sessions to them.
type Service struct {
	verifier    *auth.Verifier
	store       snapshotStore
	coordinator *Coordinator
	opts        Options
	now         func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewService(verifier *auth.Verifier, store snapshotStore, notifier events.Notifier, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		verifier:    verifier,
		store:       store,
		coordinator: NewCoordinator(store, notifier, opts.Log),
		opts:        opts,
		now:         time.Now,
		workspaces:  make(map[string]*Workspace),
	}
}

func (s *Service) SessionFromToken(_ context.Context, token string) (Session, error) {
	identity, err := s.verifier.Identify(token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		UserID:   identity.UserID,
		UserName: identity.Name,
		Role:     rbac.Normalize(identity.Role),
	}, nil
}

func (s *Service) Can(role rbac.Role, action rbac.Action) bool {
	return rbac.Can(role, action)
}

// Ping checks each store that supports it, keyed by store name.
func (s *Service) Ping(ctx context.Context) map[string]error {
	return s.store.Ping(ctx)
}

// Today is the current instant in the configured timezone.
func (s *Service) Today() time.Time {
	return s.now().In(s.opts.Location)
}

// ParseToday reads a YYYY-MM-DD override of the board date. Empty means now.
func (s *Service) ParseToday(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.Today(), nil
	}
	day, err := time.ParseInLocation(todayLayout, raw, s.opts.Location)
	if err != nil {
		return time.Time{}, &tracker.ValidationError{Field: "today", Value: raw, Reason: "expected YYYY-MM-DD"}
	}
	return day, nil
}

func (s *Service) scopeFor(session Session) persist.Scope {
	return persist.NewScope(session.UserID, s.opts.PerUserScope)
}

// Workspace returns the session's workspace, loading it from storage the
// first time. A failed load is logged and leaves the workspace empty. The
// load is not cancelled with ctx.
func (s *Service) Workspace(ctx context.Context, session Session) *Workspace {
	scope := s.scopeFor(session)

	s.mu.Lock()
	ws, ok := s.workspaces[scope.CollectionPath()]
	if !ok {
		ws = NewWorkspace(scope, s.opts.ClaimScope)
		s.workspaces[scope.CollectionPath()] = ws
	}
	s.mu.Unlock()

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if !ws.loaded {
		records, err := s.store.Load(context.WithoutCancel(ctx), scope)
		if err != nil {
			s.opts.Log.Warn().Err(err).Str("collection", scope.CollectionPath()).Msg("starting with empty collection")
		}
		ws.repo.Replace(records)
		ws.loaded = true
	}
	return ws
}

// Reload re-reads the session's collection. When no store can be read the
// current in-memory records are kept and the load error is returned.
func (s *Service) Reload(ctx context.Context, session Session) ([]tracker.Record, error) {
	ws := s.Workspace(ctx, session)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	records, err := s.store.Load(ctx, ws.scope)
	if err != nil {
		return ws.repo.Snapshot(), err
	}
	ws.repo.Replace(records)
	return ws.repo.Snapshot(), nil
}

// Dispatch applies intent to the session's workspace.
func (s *Service) Dispatch(ctx context.Context, session Session, intent Intent) (Outcome, error) {
	return s.coordinator.Dispatch(ctx, s.Workspace(ctx, session), intent)
}

type ItemView struct {
	Index           int    `json:"index"`
	ContainerNumber string `json:"containerNumber"`
	Claimed         bool   `json:"claimed"`
	OnHold          bool   `json:"onHold"`
}

type GroupView struct {
	JobRef     string     `json:"jobRef"`
	ETAISO     string     `json:"etaISO"`
	ETADisplay string     `json:"etaDisplay"`
	OnHold     bool       `json:"onHold"`
	Items      []ItemView `json:"items"`
}

type SectionView struct {
	Category string      `json:"category"`
	Title    string      `json:"title"`
	Count    int         `json:"count"`
	Groups   []GroupView `json:"groups"`
}

type BoardView struct {
	Today    string        `json:"today"`
	Total    int           `json:"total"`
	Sections []SectionView `json:"sections"`
}

// Board classifies and groups the session's records as of today.
func (s *Service) Board(ctx context.Context, session Session, today time.Time) BoardView {
	return buildBoard(s.Workspace(ctx, session).Snapshot(), today)
}

func buildBoard(records []tracker.Record, today time.Time) BoardView {
	view := BoardView{
		Today:    today.Format(todayLayout),
		Total:    len(records),
		Sections: make([]SectionView, 0, len(tracker.Categories())),
	}
	for _, section := range tracker.Board(records, today) {
		sectionView := SectionView{
			Category: section.Category.Slug(),
			Title:    section.Title,
			Count:    len(section.Groups),
			Groups:   make([]GroupView, 0, len(section.Groups)),
		}
		for _, group := range section.Groups {
			groupView := GroupView{
				JobRef:     group.JobRef,
				ETAISO:     group.ETAISO,
				ETADisplay: group.ETADisplay,
				OnHold:     group.OnHold,
				Items:      make([]ItemView, 0, len(group.Items)),
			}
			for _, item := range group.Items {
				groupView.Items = append(groupView.Items, ItemView{
					Index:           item.Index,
					ContainerNumber: item.Record.ContainerNumber,
					Claimed:         item.Record.Claimed,
					OnHold:          item.Record.OnHold,
				})
			}
			sectionView.Groups = append(sectionView.Groups, groupView)
		}
		view.Sections = append(view.Sections, sectionView)
	}
	return view
}
