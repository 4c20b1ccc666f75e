package persist

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"containerboard/api/internal/tracker"
)

// Synchronizer writes every snapshot to the primary store, when there is
// one, and always to the mirror. There is no lock across the two writes and
// no retry.
type Synchronizer struct {
	primary Store
	mirror  Store
	log     zerolog.Logger
}

// NewSynchronizer wires the stores chosen at startup. primary may be nil
// for a mirror-only deployment; mirror is required.
func NewSynchronizer(primary, mirror Store, log zerolog.Logger) (*Synchronizer, error) {
	if mirror == nil {
		return nil, errors.New("synchronizer requires a mirror store")
	}
	return &Synchronizer{primary: primary, mirror: mirror, log: log}, nil
}

// Stores lists the configured stores, primary first.
func (s *Synchronizer) Stores() []Store {
	if s.primary == nil {
		return []Store{s.mirror}
	}
	return []Store{s.primary, s.mirror}
}

// Persist replaces the scope's stored collection with records. The mirror
// is written even when the primary write fails, so the two can diverge.
// A primary failure is returned; a mirror failure is returned only when the
// mirror is the sole store.
func (s *Synchronizer) Persist(ctx context.Context, scope Scope, records []tracker.Record) error {
	var primaryErr error
	if s.primary != nil {
		if err := s.primary.ReplaceAll(ctx, scope, records); err != nil {
			primaryErr = &PersistenceError{Store: s.primary.Name(), Op: "replace all", Err: err}
			s.log.Warn().Err(err).Str("store", s.primary.Name()).Str("collection", scope.CollectionPath()).Msg("primary save failed")
		} else {
			s.log.Debug().Str("store", s.primary.Name()).Int("records", len(records)).Msg("primary save complete")
		}
	}

	if err := s.mirror.ReplaceAll(ctx, scope, records); err != nil {
		s.log.Warn().Err(err).Str("store", s.mirror.Name()).Str("key", scope.BlobKey()).Msg("mirror save failed")
		if s.primary == nil {
			return &PersistenceError{Store: s.mirror.Name(), Op: "replace all", Err: err}
		}
	} else {
		s.log.Debug().Str("store", s.mirror.Name()).Int("records", len(records)).Msg("mirror save complete")
	}

	return primaryErr
}

// Load returns the scope's snapshot from the primary store, falling back to
// the mirror, then to an empty collection. When nothing can be read the
// empty collection comes back together with a *LoadError.
func (s *Synchronizer) Load(ctx context.Context, scope Scope) ([]tracker.Record, error) {
	var errs []error
	for _, store := range s.Stores() {
		records, err := store.Load(ctx, scope)
		if err != nil {
			s.log.Warn().Err(err).Str("store", store.Name()).Msg("load failed")
			errs = append(errs, &PersistenceError{Store: store.Name(), Op: "load", Err: err})
			continue
		}
		if records == nil {
			records = []tracker.Record{}
		}
		s.log.Info().Str("store", store.Name()).Int("records", len(records)).Msg("containers loaded")
		return records, nil
	}
	return []tracker.Record{}, &LoadError{Errs: errs}
}

// Ping checks every store that can report reachability.
func (s *Synchronizer) Ping(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for _, store := range s.Stores() {
		if pinger, ok := store.(Pinger); ok {
			results[store.Name()] = pinger.Ping(ctx)
		}
	}
	return results
}
