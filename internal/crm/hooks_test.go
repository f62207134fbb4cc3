package crm

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/pulsecrm-backend/internal/backend/memory"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/services"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func TestStampIsFixedWidthUTC(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	if got := f.hooks.stamp(); got != "2026-08-15T12:30:45.123Z" {
		t.Fatalf("unexpected stamp: %q", got)
	}
	f.clock.Set(time.Date(2026, 8, 15, 12, 30, 46, 0, time.UTC))
	if got := f.hooks.stamp(); got != "2026-08-15T12:30:46.000Z" {
		t.Fatalf("stamp must keep fixed width: %q", got)
	}
}

func TestAdjustCounterSkipsMissingParent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if err := f.hooks.adjustCounter(ctx, f.dp, ResourceContacts, "ghost", "nb_notes", +1); err != nil {
		t.Fatalf("missing parent must be a soft no-op, got %v", err)
	}
	if err := f.hooks.adjustCounter(ctx, f.dp, ResourceContacts, "", "nb_notes", +1); err != nil {
		t.Fatalf("empty parent id must be a soft no-op, got %v", err)
	}
}

func TestAdjustCounterAppliesDeltaToStoredValue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.base.Create(ctx, ResourceContacts, provider.CreateParams{
		Data: types.Record{"id": "c1", "nb_notes": 1},
	}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	if err := f.hooks.adjustCounter(ctx, f.dp, ResourceContacts, "c1", "nb_notes", +2); err != nil {
		t.Fatalf("adjust counter: %v", err)
	}
	if got := f.counter(ResourceContacts, "c1", "nb_notes"); got != 3 {
		t.Fatalf("nb_notes: got=%d want=3", got)
	}

	// Absent counter fields start from zero.
	if err := f.hooks.adjustCounter(ctx, f.dp, ResourceContacts, "c1", "nb_tasks", -1); err != nil {
		t.Fatalf("adjust counter: %v", err)
	}
	if got := f.counter(ResourceContacts, "c1", "nb_tasks"); got != -1 {
		t.Fatalf("nb_tasks: got=%d want=-1", got)
	}
}

func TestLogActivityDropsEmptyRefs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.hooks.logActivity(context.Background(), f.dp, ActivityCompanyCreated, types.Record{
		"company_id": "co1",
		"sales_id":   "",
	})
	if err != nil {
		t.Fatalf("log activity: %v", err)
	}

	entries := f.activities(ActivityCompanyCreated)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.String("company_id") != "co1" {
		t.Fatalf("missing ref: %#v", entry)
	}
	if entry.Has("sales_id") {
		t.Fatalf("empty ref must be dropped: %#v", entry)
	}
	if entry.String("date") != "2026-08-15T12:30:45.123Z" {
		t.Fatalf("unexpected date: %q", entry.String("date"))
	}
}

func TestMergedViewOverlaysPatch(t *testing.T) {
	t.Parallel()
	merged := mergedView(provider.UpdateParams{
		Data:         types.Record{"name": "New Name"},
		PreviousData: types.Record{"id": "co1", "name": "Old Name", "city": "Portland"},
	})
	if merged.String("name") != "New Name" || merged.String("city") != "Portland" || merged.ID() != "co1" {
		t.Fatalf("unexpected merged view: %#v", merged)
	}
}

func TestIsResolvedImageRef(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   any
		want bool
	}{
		{"http url", "http://cdn.example/x.png", true},
		{"https url", "https://cdn.example/x.png", true},
		{"data uri", "data:image/png;base64,AAAA", true},
		{"plain string", "x.png", false},
		{"nil", nil, false},
		{"src map", map[string]any{"src": "https://cdn.example/x.png"}, true},
		{"blank src map", map[string]any{"src": "  "}, false},
		{"src record", types.Record{"src": "data:image/png;base64,AAAA"}, true},
		{"number", 7, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := isResolvedImageRef(tc.in); got != tc.want {
				t.Fatalf("isResolvedImageRef(%#v): got=%v want=%v", tc.in, got, tc.want)
			}
		})
	}
}

// ------------------------------------------------------------------
// Shared test fixture
// ------------------------------------------------------------------

// fixture wires the full rule set over an in-memory backend with a fake
// clock and deterministic image services.
type fixture struct {
	t     *testing.T
	base  *memory.Store
	dp    provider.DataProvider
	hooks *Hooks
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	clock := &fakeClock{now: time.Date(2026, 8, 15, 12, 30, 45, 123000000, time.UTC)}
	hooks := NewHooks(log, fakeAvatarResolver{}, fakeLogoResolver{}, fakeFileEncoder{},
		WithClock(clock.Now), WithFanoutLimit(2))
	base := memory.NewStore(log)
	dp, err := Wrap(base, hooks, log)
	if err != nil {
		t.Fatalf("wrap provider: %v", err)
	}
	return &fixture{t: t, base: base, dp: dp, hooks: hooks, clock: clock}
}

func (f *fixture) create(resource string, data types.Record) types.Record {
	f.t.Helper()
	rec, err := f.dp.Create(context.Background(), resource, provider.CreateParams{Data: data})
	if err != nil {
		f.t.Fatalf("create %s: %v", resource, err)
	}
	return rec
}

func (f *fixture) get(resource, id string) types.Record {
	f.t.Helper()
	rec, err := f.dp.GetOne(context.Background(), resource, provider.GetOneParams{ID: id})
	if err != nil {
		f.t.Fatalf("get %s %q: %v", resource, id, err)
	}
	return rec
}

// update patches one record the way the HTTP layer does: previous data
// is the record as currently stored.
func (f *fixture) update(resource, id string, data types.Record) types.Record {
	f.t.Helper()
	rec, err := f.dp.Update(context.Background(), resource, provider.UpdateParams{
		ID:           id,
		Data:         data,
		PreviousData: f.get(resource, id),
	})
	if err != nil {
		f.t.Fatalf("update %s %q: %v", resource, id, err)
	}
	return rec
}

func (f *fixture) delete(resource, id string, meta provider.Meta) types.Record {
	f.t.Helper()
	rec, err := f.dp.Delete(context.Background(), resource, provider.DeleteParams{ID: id, Meta: meta})
	if err != nil {
		f.t.Fatalf("delete %s %q: %v", resource, id, err)
	}
	return rec
}

func (f *fixture) counter(resource, id, field string) int {
	f.t.Helper()
	n, _ := f.get(resource, id).Int(field)
	return n
}

func (f *fixture) activities(activityType string) []types.Record {
	f.t.Helper()
	page, err := f.dp.GetList(context.Background(), ResourceActivityLogs, provider.GetListParams{
		Filter: provider.Filter{"type": activityType},
	})
	if err != nil {
		f.t.Fatalf("list activity logs: %v", err)
	}
	return page.Data
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeAvatarResolver derives a stable URL from the contact email, and
// nothing when the email is empty.
type fakeAvatarResolver struct{}

func (fakeAvatarResolver) ResolveAvatar(_ context.Context, rec types.Record) (string, error) {
	email := strings.ToLower(strings.TrimSpace(rec.String("email")))
	if email == "" {
		return "", nil
	}
	return "https://avatars.test/" + email, nil
}

// fakeLogoResolver derives a stable URL from the company website, and
// nothing when the website is empty.
type fakeLogoResolver struct{}

func (fakeLogoResolver) ResolveLogo(_ context.Context, rec types.Record) (string, error) {
	site := strings.TrimSpace(rec.String("website"))
	if site == "" {
		return "", nil
	}
	return "https://logos.test/" + site, nil
}

// fakeFileEncoder marks encoded descriptors with their source path so
// tests can tell which file was inlined.
type fakeFileEncoder struct{}

func (fakeFileEncoder) FileToDataURI(_ context.Context, desc services.FileDescriptor) (string, error) {
	return "data:test/file;base64," + desc.Path, nil
}

func (fakeFileEncoder) AvatarToDataURI(_ context.Context, desc services.FileDescriptor) (string, error) {
	return "data:test/avatar;base64," + desc.Path, nil
}
