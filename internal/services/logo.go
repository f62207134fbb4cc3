package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

// LogoResolver derives a company's logo image reference from its stored
// fields. An empty result with a nil error means there is nothing to
// resolve from.
type LogoResolver interface {
	ResolveLogo(ctx context.Context, rec types.Record) (string, error)
}

// FaviconLogoResolver points logos at the public favicon service for the
// company's website domain. Companies without a usable website fall back
// to the domain of their contact email, then to nothing.
type FaviconLogoResolver struct {
	log *logger.Logger
}

func NewFaviconLogoResolver(log *logger.Logger) *FaviconLogoResolver {
	return &FaviconLogoResolver{log: log.With("service", "FaviconLogoResolver")}
}

func (fr *FaviconLogoResolver) ResolveLogo(ctx context.Context, rec types.Record) (string, error) {
	domain := websiteDomain(rec.String("website"))
	if domain == "" {
		domain = emailDomain(strings.TrimSpace(rec.String("email")))
	}
	if domain == "" {
		return "", nil
	}
	return fmt.Sprintf("https://www.google.com/s2/favicons?domain=%s&sz=128", url.QueryEscape(domain)), nil
}

// websiteDomain extracts the host from a website value, tolerating bare
// domains without a scheme.
func websiteDomain(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Host)
}
