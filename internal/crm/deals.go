package crm

import (
	"context"

	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func (h *Hooks) dealBeforeCreate(ctx context.Context, params provider.CreateParams, dp provider.DataProvider) (provider.CreateParams, error) {
	data := params.Data.Clone()
	if data == nil {
		data = types.Record{}
	}
	now := h.stamp()
	data["created_at"] = now
	data["updated_at"] = now
	params.Data = data
	return params, nil
}

func (h *Hooks) dealBeforeUpdate(ctx context.Context, params provider.UpdateParams, dp provider.DataProvider) (provider.UpdateParams, error) {
	data := params.Data.Clone()
	if data == nil {
		data = types.Record{}
	}
	data["updated_at"] = h.stamp()
	params.Data = data
	return params, nil
}

func (h *Hooks) dealAfterCreate(ctx context.Context, record types.Record, params provider.CreateParams, dp provider.DataProvider) (types.Record, error) {
	if err := h.adjustCounter(ctx, dp, ResourceCompanies, record.String("company_id"), "nb_deals", +1); err != nil {
		return nil, err
	}
	err := h.logActivity(ctx, dp, ActivityDealCreated, types.Record{
		"deal_id":    record.ID(),
		"company_id": record.String("company_id"),
		"sales_id":   record.String("sales_id"),
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
