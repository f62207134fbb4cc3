package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/yungbote/pulsecrm-backend/internal/pkg/errors"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/services"
	"github.com/yungbote/pulsecrm-backend/internal/types"
	"github.com/yungbote/pulsecrm-backend/internal/utils"
)

// timeLayout is fixed width so stamped values sort correctly as strings.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Hooks holds the per-resource lifecycle rules and their dependencies.
// Every follow-up read or write a rule makes goes through the dispatcher
// handle it receives, so nested operations run their own rules too.
type Hooks struct {
	log     *logger.Logger
	avatars services.AvatarResolver
	logos   services.LogoResolver
	files   services.FileEncoder

	now    func() time.Time
	fanout int
}

type HookOption func(*Hooks)

// WithClock replaces the wall clock used for stamped timestamps.
func WithClock(now func() time.Time) HookOption {
	return func(h *Hooks) { h.now = now }
}

// WithFanoutLimit caps how many fan-out writes run concurrently.
func WithFanoutLimit(n int) HookOption {
	return func(h *Hooks) {
		if n > 0 {
			h.fanout = n
		}
	}
}

func NewHooks(log *logger.Logger, avatars services.AvatarResolver, logos services.LogoResolver, files services.FileEncoder, opts ...HookOption) *Hooks {
	h := &Hooks{
		log:     log.With("component", "crm_hooks"),
		avatars: avatars,
		logos:   logos,
		files:   files,
		now:     time.Now,
		fanout:  utils.GetEnvAsInt("HOOK_FANOUT_LIMIT", 8, log),
	}
	if h.fanout <= 0 {
		h.fanout = 8
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Callbacks assembles the full rule set for registration with the
// lifecycle dispatcher.
func (h *Hooks) Callbacks() []provider.ResourceCallbacks {
	return []provider.ResourceCallbacks{
		{
			Resource:     ResourceSales,
			BeforeCreate: h.saleBeforeCreate,
			BeforeUpdate: h.saleBeforeUpdate,
			BeforeDelete: h.saleBeforeDelete,
		},
		{
			Resource:     ResourceCompanies,
			BeforeCreate: h.companyBeforeCreate,
			AfterCreate:  h.companyAfterCreate,
			BeforeUpdate: h.companyBeforeUpdate,
			AfterUpdate:  h.companyAfterUpdate,
		},
		{
			Resource:     ResourceContacts,
			BeforeCreate: h.contactBeforeCreate,
			AfterCreate:  h.contactAfterCreate,
			BeforeUpdate: h.contactBeforeUpdate,
		},
		{
			Resource:    ResourceContactNotes,
			AfterCreate: h.contactNoteAfterCreate,
			AfterDelete: h.contactNoteAfterDelete,
		},
		{
			Resource:     ResourceTasks,
			AfterCreate:  h.taskAfterCreate,
			BeforeUpdate: h.taskBeforeUpdate,
			AfterUpdate:  h.taskAfterUpdate,
			AfterDelete:  h.taskAfterDelete,
		},
		{
			Resource:     ResourceDeals,
			BeforeCreate: h.dealBeforeCreate,
			BeforeUpdate: h.dealBeforeUpdate,
			AfterCreate:  h.dealAfterCreate,
		},
	}
}

// Wrap registers the rule set around base and returns the dispatching
// provider every caller should use.
func Wrap(base provider.DataProvider, h *Hooks, log *logger.Logger) (provider.DataProvider, error) {
	return provider.WithLifecycleCallbacks(base, log, h.Callbacks())
}

func (h *Hooks) stamp() string {
	return h.now().UTC().Format(timeLayout)
}

// adjustCounter applies the read, delta, write denormalization step for
// one counter field. A missing parent is a soft no-op; the write is not
// atomic with the read.
func (h *Hooks) adjustCounter(ctx context.Context, dp provider.DataProvider, resource, id, field string, delta int) error {
	if id == "" {
		return nil
	}
	parent, err := dp.GetOne(ctx, resource, provider.GetOneParams{ID: id})
	if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		h.log.Debug("Counter parent missing, skipping adjustment", "resource", resource, "id", id, "field", field)
		return nil
	}
	if err != nil {
		return err
	}
	current, _ := parent.Int(field)
	_, err = dp.Update(ctx, resource, provider.UpdateParams{
		ID:           id,
		Data:         types.Record{field: current + delta},
		PreviousData: parent,
	})
	return err
}

// logActivity appends one immutable audit entry referencing the involved
// records.
func (h *Hooks) logActivity(ctx context.Context, dp provider.DataProvider, activityType string, refs types.Record) error {
	entry := types.Record{
		"type": activityType,
		"date": h.stamp(),
	}
	for k, v := range refs {
		if v != nil && v != "" {
			entry[k] = v
		}
	}
	if _, err := dp.Create(ctx, ResourceActivityLogs, provider.CreateParams{Data: entry}); err != nil {
		return fmt.Errorf("log activity %s: %w", activityType, err)
	}
	return nil
}

// mergedView is the record as it will read after the pending write:
// previous data overlaid with the patch. Derivation rules run against it
// so partial updates never lose derived fields.
func mergedView(params provider.UpdateParams) types.Record {
	return params.PreviousData.Merge(params.Data)
}

// resolveImageField computes the new value for a derived image field
// (contact avatar, company logo) from the merged record view. Uploaded
// file descriptors are inlined, already resolved references pass through
// untouched, and anything else is resolved from record data, ending up
// nil when unresolvable.
func (h *Hooks) resolveImageField(ctx context.Context, merged types.Record, field string, encode func(context.Context, services.FileDescriptor) (string, error), auto func(context.Context, types.Record) (string, error)) (value any, write bool, err error) {
	current := merged[field]
	if desc, ok := services.DescriptorFromValue(current); ok {
		encoded, err := encode(ctx, desc)
		if err != nil {
			return nil, false, fmt.Errorf("encode %s: %w", field, err)
		}
		return encoded, true, nil
	}
	if isResolvedImageRef(current) {
		return nil, false, nil
	}
	resolved, err := auto(ctx, merged)
	if err != nil {
		return nil, false, fmt.Errorf("resolve %s: %w", field, err)
	}
	if resolved == "" {
		return nil, true, nil
	}
	return resolved, true, nil
}

// isResolvedImageRef reports whether v already points at usable image
// content: an http(s) or data URI, or a src-carrying reference object.
func isResolvedImageRef(v any) bool {
	switch tv := v.(type) {
	case string:
		return strings.HasPrefix(tv, "http://") ||
			strings.HasPrefix(tv, "https://") ||
			strings.HasPrefix(tv, "data:")
	case map[string]any:
		src, _ := tv["src"].(string)
		return strings.TrimSpace(src) != ""
	case types.Record:
		src, _ := tv["src"].(string)
		return strings.TrimSpace(src) != ""
	default:
		return false
	}
}
