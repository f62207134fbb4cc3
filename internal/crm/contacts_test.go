package crm

import (
	"testing"

	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func TestContactCreateDerivesAvatarAndCompanyName(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.create(ResourceCompanies, types.Record{"id": "co1", "name": "Acme", "website": "acme.com"})
	rec := f.create(ResourceContacts, types.Record{
		"id":         "c1",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@acme.com",
		"company_id": "co1",
		"sales_id":   "s1",
	})

	if got := rec.String("avatar"); got != "https://avatars.test/ada@acme.com" {
		t.Fatalf("avatar not resolved: %q", got)
	}
	if got := rec.String("company_name"); got != "Acme" {
		t.Fatalf("company_name not denormalized: %q", got)
	}

	entries := f.activities(ActivityContactCreated)
	if len(entries) != 1 {
		t.Fatalf("expected one contact-created entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.String("contact_id") != "c1" || entry.String("company_id") != "co1" || entry.String("sales_id") != "s1" {
		t.Fatalf("unexpected refs: %#v", entry)
	}
}

func TestContactCreateInlinesUploadedAvatar(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.create(ResourceContacts, types.Record{
		"id":         "c1",
		"first_name": "Ada",
		"avatar":     map[string]any{"path": "/tmp/upload/me.jpg"},
	})
	if got := rec.String("avatar"); got != "data:test/avatar;base64,/tmp/upload/me.jpg" {
		t.Fatalf("uploaded avatar not inlined: %q", got)
	}
}

func TestContactCreateWithNothingToResolveGetsNilAvatar(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.create(ResourceContacts, types.Record{"id": "c1", "first_name": "Ada"})
	v, ok := rec["avatar"]
	if !ok || v != nil {
		t.Fatalf("unresolvable avatar must be stored as nil: %#v", rec)
	}
}

func TestContactCreateWithMissingCompanyIsSoftSkipped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.create(ResourceContacts, types.Record{
		"id":         "c1",
		"first_name": "Ada",
		"company_id": "ghost",
	})
	if rec.Has("company_name") {
		t.Fatalf("missing company must not write company_name: %#v", rec)
	}
}

func TestContactPartialUpdateKeepsResolvedAvatar(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.create(ResourceCompanies, types.Record{"id": "co1", "name": "Acme", "website": "acme.com"})
	f.create(ResourceContacts, types.Record{
		"id":         "c1",
		"first_name": "Ada",
		"email":      "ada@acme.com",
		"company_id": "co1",
	})

	updated := f.update(ResourceContacts, "c1", types.Record{"phone_number": "555-0100"})
	if got := updated.String("avatar"); got != "https://avatars.test/ada@acme.com" {
		t.Fatalf("partial update clobbered the avatar: %q", got)
	}
	if got := updated.String("company_name"); got != "Acme" {
		t.Fatalf("company_name lost on partial update: %q", got)
	}
}

func TestContactUpdateClearingAvatarReResolves(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.create(ResourceContacts, types.Record{
		"id":         "c1",
		"first_name": "Ada",
		"email":      "ada@acme.com",
	})

	updated := f.update(ResourceContacts, "c1", types.Record{"avatar": nil})
	if got := updated.String("avatar"); got != "https://avatars.test/ada@acme.com" {
		t.Fatalf("cleared avatar must be re-resolved: %q", got)
	}
}
