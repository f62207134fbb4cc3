// Package memory implements the record store over process-local maps.
// It backs tests and demo runs; everything is lost on shutdown.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/pulsecrm-backend/internal/pkg/errors"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

type resourceSet struct {
	byID  map[string]types.Record
	order []string
}

// Store holds every resource in memory behind one RW mutex. Records are
// cloned on the way in and out, so callers can never alias stored state.
type Store struct {
	mu   sync.RWMutex
	log  *logger.Logger
	sets map[string]*resourceSet
}

var _ provider.DataProvider = (*Store)(nil)

func NewStore(log *logger.Logger) *Store {
	return &Store{
		log:  log.With("component", "memory_store"),
		sets: make(map[string]*resourceSet),
	}
}

func (s *Store) GetOne(ctx context.Context, resource string, params provider.GetOneParams) (types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[resource]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", resource, params.ID, pkgerrors.ErrNotFound)
	}
	rec, ok := set.byID[params.ID]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", resource, params.ID, pkgerrors.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *Store) GetList(ctx context.Context, resource string, params provider.GetListParams) (provider.RecordPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[resource]
	if !ok {
		return provider.RecordPage{Data: []types.Record{}}, nil
	}
	all := make([]types.Record, 0, len(set.order))
	for _, id := range set.order {
		all = append(all, set.byID[id].Clone())
	}
	page, total := provider.ApplyList(all, params)
	return provider.RecordPage{Data: page, Total: total}, nil
}

func (s *Store) Create(ctx context.Context, resource string, params provider.CreateParams) (types.Record, error) {
	if resource == "" {
		return nil, fmt.Errorf("empty resource name: %w", pkgerrors.ErrInvalidArgument)
	}
	rec := params.Data.Clone()
	if rec == nil {
		rec = types.Record{}
	}
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[resource]
	if !ok {
		set = &resourceSet{byID: make(map[string]types.Record)}
		s.sets[resource] = set
	}
	if _, exists := set.byID[id]; exists {
		return nil, fmt.Errorf("%s %q already exists: %w", resource, id, pkgerrors.ErrConflict)
	}
	set.byID[id] = rec
	set.order = append(set.order, id)
	s.log.Debug("Created record", "resource", resource, "id", id)
	return rec.Clone(), nil
}

func (s *Store) Update(ctx context.Context, resource string, params provider.UpdateParams) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := s.mergeLocked(resource, params.ID, params.Data)
	if err != nil {
		return nil, err
	}
	s.log.Debug("Updated record", "resource", resource, "id", params.ID)
	return merged.Clone(), nil
}

func (s *Store) UpdateMany(ctx context.Context, resource string, params provider.UpdateManyParams) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := make([]string, 0, len(params.IDs))
	for _, id := range params.IDs {
		if _, err := s.mergeLocked(resource, id, params.Data); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	s.log.Debug("Updated records", "resource", resource, "count", len(updated))
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, resource string, params provider.DeleteParams) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[resource]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", resource, params.ID, pkgerrors.ErrNotFound)
	}
	rec, ok := set.byID[params.ID]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", resource, params.ID, pkgerrors.ErrNotFound)
	}
	delete(set.byID, params.ID)
	for i, id := range set.order {
		if id == params.ID {
			set.order = append(set.order[:i], set.order[i+1:]...)
			break
		}
	}
	s.log.Debug("Deleted record", "resource", resource, "id", params.ID)
	return rec, nil
}

// mergeLocked overlays patch onto the stored record and keeps the id
// immutable. Callers hold the write lock.
func (s *Store) mergeLocked(resource, id string, patch types.Record) (types.Record, error) {
	set, ok := s.sets[resource]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", resource, id, pkgerrors.ErrNotFound)
	}
	existing, ok := set.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", resource, id, pkgerrors.ErrNotFound)
	}
	merged := existing.Merge(patch)
	merged["id"] = id
	set.byID[id] = merged
	return merged, nil
}
