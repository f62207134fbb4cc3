package realtime

import (
	"context"
	"time"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

// changeProvider publishes one change event per successful write. Reads
// pass through the embedded provider untouched. Publishing is best
// effort: a bus failure is logged, never surfaced to the writer.
type changeProvider struct {
	provider.DataProvider
	bus Bus
	log *logger.Logger
}

// WithChangeEvents decorates dp so every committed create, update and
// delete is announced on the bus.
func WithChangeEvents(dp provider.DataProvider, bus Bus, log *logger.Logger) provider.DataProvider {
	return &changeProvider{
		DataProvider: dp,
		bus:          bus,
		log:          log.With("component", "change_events"),
	}
}

func (p *changeProvider) publish(ctx context.Context, resource, action string, ids []string) {
	change := Change{
		Resource: resource,
		Action:   action,
		IDs:      ids,
		At:       time.Now().UTC(),
	}
	if err := p.bus.Publish(ctx, change); err != nil {
		p.log.Warn("Failed to publish change event",
			"resource", resource, "action", action, "error", err)
	}
}

func (p *changeProvider) Create(ctx context.Context, resource string, params provider.CreateParams) (types.Record, error) {
	record, err := p.DataProvider.Create(ctx, resource, params)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, resource, ActionCreate, []string{record.ID()})
	return record, nil
}

func (p *changeProvider) Update(ctx context.Context, resource string, params provider.UpdateParams) (types.Record, error) {
	record, err := p.DataProvider.Update(ctx, resource, params)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, resource, ActionUpdate, []string{params.ID})
	return record, nil
}

func (p *changeProvider) UpdateMany(ctx context.Context, resource string, params provider.UpdateManyParams) ([]string, error) {
	ids, err := p.DataProvider.UpdateMany(ctx, resource, params)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, resource, ActionUpdate, ids)
	return ids, nil
}

func (p *changeProvider) Delete(ctx context.Context, resource string, params provider.DeleteParams) (types.Record, error) {
	record, err := p.DataProvider.Delete(ctx, resource, params)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, resource, ActionDelete, []string{params.ID})
	return record, nil
}
