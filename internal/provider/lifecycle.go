package provider

import (
	"context"
	"fmt"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

// Lifecycle callback signatures. Before callbacks may rewrite the params
// or veto the operation; after callbacks may rewrite the result or fail it.
// Every callback receives the wrapping provider, so follow-up calls made
// from inside a callback run through the full lifecycle again.
type (
	BeforeCreateFunc func(ctx context.Context, params CreateParams, dp DataProvider) (CreateParams, error)
	AfterCreateFunc  func(ctx context.Context, record types.Record, params CreateParams, dp DataProvider) (types.Record, error)
	BeforeUpdateFunc func(ctx context.Context, params UpdateParams, dp DataProvider) (UpdateParams, error)
	AfterUpdateFunc  func(ctx context.Context, record types.Record, params UpdateParams, dp DataProvider) (types.Record, error)
	BeforeDeleteFunc func(ctx context.Context, params DeleteParams, dp DataProvider) (DeleteParams, error)
	AfterDeleteFunc  func(ctx context.Context, record types.Record, params DeleteParams, dp DataProvider) (types.Record, error)
)

// ResourceCallbacks binds lifecycle callbacks to one resource. Any subset
// of the six slots may be set.
type ResourceCallbacks struct {
	Resource     string
	BeforeCreate BeforeCreateFunc
	AfterCreate  AfterCreateFunc
	BeforeUpdate BeforeUpdateFunc
	AfterUpdate  AfterUpdateFunc
	BeforeDelete BeforeDeleteFunc
	AfterDelete  AfterDeleteFunc
}

func (rc ResourceCallbacks) empty() bool {
	return rc.BeforeCreate == nil && rc.AfterCreate == nil &&
		rc.BeforeUpdate == nil && rc.AfterUpdate == nil &&
		rc.BeforeDelete == nil && rc.AfterDelete == nil
}

type lifecycleProvider struct {
	base      DataProvider
	log       *logger.Logger
	callbacks map[string]ResourceCallbacks
}

// WithLifecycleCallbacks wraps base so that create, update and delete on
// registered resources pass through their callbacks. Reads and batch
// updates are never intercepted. Registration is validated up front:
// every entry needs a resource name, at least one callback, and no
// resource may be registered twice.
func WithLifecycleCallbacks(base DataProvider, log *logger.Logger, callbacks []ResourceCallbacks) (DataProvider, error) {
	if base == nil {
		return nil, fmt.Errorf("lifecycle: base provider is nil")
	}
	byResource := make(map[string]ResourceCallbacks, len(callbacks))
	for _, cb := range callbacks {
		if cb.Resource == "" {
			return nil, fmt.Errorf("lifecycle: callback entry without resource name")
		}
		if cb.empty() {
			return nil, fmt.Errorf("lifecycle: resource %q registered without callbacks", cb.Resource)
		}
		if _, dup := byResource[cb.Resource]; dup {
			return nil, fmt.Errorf("lifecycle: resource %q registered twice", cb.Resource)
		}
		byResource[cb.Resource] = cb
	}
	return &lifecycleProvider{
		base:      base,
		log:       log.With("component", "lifecycle"),
		callbacks: byResource,
	}, nil
}

func (p *lifecycleProvider) GetOne(ctx context.Context, resource string, params GetOneParams) (types.Record, error) {
	return p.base.GetOne(ctx, resource, params)
}

func (p *lifecycleProvider) GetList(ctx context.Context, resource string, params GetListParams) (RecordPage, error) {
	return p.base.GetList(ctx, resource, params)
}

func (p *lifecycleProvider) UpdateMany(ctx context.Context, resource string, params UpdateManyParams) ([]string, error) {
	return p.base.UpdateMany(ctx, resource, params)
}

func (p *lifecycleProvider) Create(ctx context.Context, resource string, params CreateParams) (types.Record, error) {
	cb := p.callbacks[resource]
	if cb.BeforeCreate != nil {
		var err error
		if params, err = cb.BeforeCreate(ctx, params, p); err != nil {
			return nil, fmt.Errorf("before create %s: %w", resource, err)
		}
	}
	record, err := p.base.Create(ctx, resource, params)
	if err != nil {
		return nil, err
	}
	if cb.AfterCreate != nil {
		if record, err = cb.AfterCreate(ctx, record, params, p); err != nil {
			return nil, fmt.Errorf("after create %s: %w", resource, err)
		}
	}
	return record, nil
}

func (p *lifecycleProvider) Update(ctx context.Context, resource string, params UpdateParams) (types.Record, error) {
	cb := p.callbacks[resource]
	if cb.BeforeUpdate != nil {
		var err error
		if params, err = cb.BeforeUpdate(ctx, params, p); err != nil {
			return nil, fmt.Errorf("before update %s %q: %w", resource, params.ID, err)
		}
	}
	record, err := p.base.Update(ctx, resource, params)
	if err != nil {
		return nil, err
	}
	if cb.AfterUpdate != nil {
		if record, err = cb.AfterUpdate(ctx, record, params, p); err != nil {
			return nil, fmt.Errorf("after update %s %q: %w", resource, params.ID, err)
		}
	}
	return record, nil
}

func (p *lifecycleProvider) Delete(ctx context.Context, resource string, params DeleteParams) (types.Record, error) {
	cb := p.callbacks[resource]
	if cb.BeforeDelete != nil {
		var err error
		if params, err = cb.BeforeDelete(ctx, params, p); err != nil {
			return nil, fmt.Errorf("before delete %s %q: %w", resource, params.ID, err)
		}
	}
	record, err := p.base.Delete(ctx, resource, params)
	if err != nil {
		return nil, err
	}
	if cb.AfterDelete != nil {
		if record, err = cb.AfterDelete(ctx, record, params, p); err != nil {
			return nil, fmt.Errorf("after delete %s %q: %w", resource, params.ID, err)
		}
	}
	return record, nil
}
