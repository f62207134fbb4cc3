package services

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func TestWebsiteDomain(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in, want string
	}{
		{"https://www.acme.com/about", "www.acme.com"},
		{"http://Acme.COM", "acme.com"},
		{"acme.com", "acme.com"},
		{"  acme.com  ", "acme.com"},
		{"", ""},
		{"://broken", ""},
	}
	for _, tc := range cases {
		if got := websiteDomain(tc.in); got != tc.want {
			t.Fatalf("websiteDomain(%q): got=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestResolveLogoPrefersWebsiteOverEmail(t *testing.T) {
	t.Parallel()
	fr := NewFaviconLogoResolver(logger.NewNop())
	ctx := context.Background()

	got, err := fr.ResolveLogo(ctx, types.Record{
		"website": "https://www.acme.com",
		"email":   "sales@other.io",
	})
	if err != nil {
		t.Fatalf("resolve logo: %v", err)
	}
	if !strings.Contains(got, "domain=www.acme.com") {
		t.Fatalf("expected website domain in %q", got)
	}

	got, err = fr.ResolveLogo(ctx, types.Record{"email": "sales@other.io"})
	if err != nil {
		t.Fatalf("resolve logo: %v", err)
	}
	if !strings.Contains(got, "domain=other.io") {
		t.Fatalf("expected email-domain fallback in %q", got)
	}

	got, err = fr.ResolveLogo(ctx, types.Record{"name": "No Web Presence Inc"})
	if err != nil || got != "" {
		t.Fatalf("company without domains must resolve to nothing: got=%q err=%v", got, err)
	}
}
