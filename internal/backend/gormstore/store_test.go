package gormstore

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	pkgerrors "github.com/yungbote/pulsecrm-backend/internal/pkg/errors"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "records.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s, err := NewStore(gdb, logger.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestCreateAndGetOneRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "companies", provider.CreateParams{
		Data: types.Record{"id": "co1", "name": "Acme", "nb_deals": 0},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID() != "co1" {
		t.Fatalf("unexpected id: %q", created.ID())
	}

	got, err := s.GetOne(ctx, "companies", provider.GetOneParams{ID: "co1"})
	if err != nil {
		t.Fatalf("get one failed: %v", err)
	}
	if got.String("name") != "Acme" {
		t.Fatalf("unexpected doc: %#v", got)
	}
	if n, ok := got.Int("nb_deals"); !ok || n != 0 {
		t.Fatalf("numeric field lost in round trip: %#v", got["nb_deals"])
	}

	if _, err := s.GetOne(ctx, "companies", provider.GetOneParams{ID: "ghost"}); !pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateGeneratesIDAndDetectsConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "companies", provider.CreateParams{Data: types.Record{"name": "NoID"}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID() == "" {
		t.Fatalf("expected generated id")
	}

	if _, err := s.Create(ctx, "companies", provider.CreateParams{Data: types.Record{"id": created.ID()}}); !pkgerrors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("duplicate id must conflict, got %v", err)
	}
}

func TestResourcesAreIsolatedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "companies", provider.CreateParams{Data: types.Record{"id": "x"}}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.Create(ctx, "contacts", provider.CreateParams{Data: types.Record{"id": "x"}}); err != nil {
		t.Fatalf("same id under another resource must not conflict: %v", err)
	}
	if _, err := s.GetOne(ctx, "deals", provider.GetOneParams{ID: "x"}); !pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("resource isolation broken: %v", err)
	}
}

func TestUpdateMergesDocAndKeepsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, "contacts", provider.CreateParams{
		Data: types.Record{"id": "c1", "first_name": "Ada", "nb_notes": 1},
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rec, err := s.Update(ctx, "contacts", provider.UpdateParams{
		ID:   "c1",
		Data: types.Record{"nb_notes": 2, "id": "evil"},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if rec.ID() != "c1" {
		t.Fatalf("id must stay immutable, got %q", rec.ID())
	}
	if n, _ := rec.Int("nb_notes"); n != 2 {
		t.Fatalf("patch not applied: %#v", rec)
	}

	got, err := s.GetOne(ctx, "contacts", provider.GetOneParams{ID: "c1"})
	if err != nil {
		t.Fatalf("get one failed: %v", err)
	}
	if got.String("first_name") != "Ada" {
		t.Fatalf("unpatched fields lost: %#v", got)
	}
}

func TestUpdateManyIsTransactional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"c1", "c2"} {
		if _, err := s.Create(ctx, "contacts", provider.CreateParams{
			Data: types.Record{"id": id, "sales_id": "s1"},
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	// A missing id fails the whole batch and rolls back the rest.
	_, err := s.UpdateMany(ctx, "contacts", provider.UpdateManyParams{
		IDs:  []string{"c1", "ghost", "c2"},
		Data: types.Record{"sales_id": "s2"},
	})
	if !pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, err := s.GetOne(ctx, "contacts", provider.GetOneParams{ID: "c1"})
	if err != nil {
		t.Fatalf("get one failed: %v", err)
	}
	if got.String("sales_id") != "s1" {
		t.Fatalf("failed batch must roll back, got %#v", got)
	}

	ids, err := s.UpdateMany(ctx, "contacts", provider.UpdateManyParams{
		IDs:  []string{"c1", "c2"},
		Data: types.Record{"sales_id": "s2"},
	})
	if err != nil {
		t.Fatalf("update many failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("unexpected ids: %#v", ids)
	}
	got, _ = s.GetOne(ctx, "contacts", provider.GetOneParams{ID: "c2"})
	if got.String("sales_id") != "s2" {
		t.Fatalf("batch update not applied: %#v", got)
	}
}

func TestDeleteReturnsRemovedDoc(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, "deals", provider.CreateParams{
		Data: types.Record{"id": "d1", "name": "Rollout"},
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	removed, err := s.Delete(ctx, "deals", provider.DeleteParams{ID: "d1"})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if removed.String("name") != "Rollout" {
		t.Fatalf("unexpected removed doc: %#v", removed)
	}
	if _, err := s.Delete(ctx, "deals", provider.DeleteParams{ID: "d1"}); !pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("second delete must be not found, got %v", err)
	}
}

func TestGetListFiltersSortsAndPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, rec := range []types.Record{
		{"id": "t1", "contact_id": "c1", "rank": 3},
		{"id": "t2", "contact_id": "c2", "rank": 1},
		{"id": "t3", "contact_id": "c1", "rank": 2},
	} {
		if _, err := s.Create(ctx, "tasks", provider.CreateParams{Data: rec}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	page, err := s.GetList(ctx, "tasks", provider.GetListParams{
		Filter: provider.Filter{"contact_id": "c1"},
		Sort:   provider.Sort{Field: "rank", Order: provider.SortAsc},
	})
	if err != nil {
		t.Fatalf("get list failed: %v", err)
	}
	if page.Total != 2 || len(page.Data) != 2 {
		t.Fatalf("unexpected page size: total=%d len=%d", page.Total, len(page.Data))
	}
	if page.Data[0].ID() != "t3" || page.Data[1].ID() != "t1" {
		t.Fatalf("unexpected order: %#v", page.Data)
	}

	page, err = s.GetList(ctx, "tasks", provider.GetListParams{
		Pagination: provider.Pagination{Page: 2, PerPage: 2},
	})
	if err != nil {
		t.Fatalf("get list failed: %v", err)
	}
	if page.Total != 3 || len(page.Data) != 1 {
		t.Fatalf("unexpected second page: total=%d len=%d", page.Total, len(page.Data))
	}
}
