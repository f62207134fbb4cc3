package crm

import (
	"context"
	"fmt"

	pkgerrors "github.com/yungbote/pulsecrm-backend/internal/pkg/errors"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func (h *Hooks) contactBeforeCreate(ctx context.Context, params provider.CreateParams, dp provider.DataProvider) (provider.CreateParams, error) {
	data := params.Data.Clone()
	if data == nil {
		data = types.Record{}
	}
	if err := h.applyContactDerivations(ctx, dp, data, data); err != nil {
		return params, err
	}
	params.Data = data
	return params, nil
}

func (h *Hooks) contactBeforeUpdate(ctx context.Context, params provider.UpdateParams, dp provider.DataProvider) (provider.UpdateParams, error) {
	data := params.Data.Clone()
	if data == nil {
		data = types.Record{}
	}
	if err := h.applyContactDerivations(ctx, dp, data, params.PreviousData.Merge(data)); err != nil {
		return params, err
	}
	params.Data = data
	return params, nil
}

// applyContactDerivations maintains the contact's derived fields over the
// merged record view: the avatar image and the denormalized company_name.
// A missing company is a soft no-op.
func (h *Hooks) applyContactDerivations(ctx context.Context, dp provider.DataProvider, data, merged types.Record) error {
	value, write, err := h.resolveImageField(ctx, merged, "avatar", h.files.AvatarToDataURI, h.avatars.ResolveAvatar)
	if err != nil {
		return err
	}
	if write {
		data["avatar"] = value
	}

	companyID := merged.String("company_id")
	if companyID == "" {
		return nil
	}
	company, err := dp.GetOne(ctx, ResourceCompanies, provider.GetOneParams{ID: companyID})
	if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch company %q for contact: %w", companyID, err)
	}
	data["company_name"] = company.String("name")
	return nil
}

func (h *Hooks) contactAfterCreate(ctx context.Context, record types.Record, params provider.CreateParams, dp provider.DataProvider) (types.Record, error) {
	err := h.logActivity(ctx, dp, ActivityContactCreated, types.Record{
		"contact_id": record.ID(),
		"company_id": record.String("company_id"),
		"sales_id":   record.String("sales_id"),
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
