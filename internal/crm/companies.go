package crm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func (h *Hooks) companyBeforeCreate(ctx context.Context, params provider.CreateParams, dp provider.DataProvider) (provider.CreateParams, error) {
	data := params.Data.Clone()
	if data == nil {
		data = types.Record{}
	}
	if err := h.applyCompanyDerivations(ctx, data, data); err != nil {
		return params, err
	}
	params.Data = data
	return params, nil
}

func (h *Hooks) companyBeforeUpdate(ctx context.Context, params provider.UpdateParams, dp provider.DataProvider) (provider.UpdateParams, error) {
	data := params.Data.Clone()
	if data == nil {
		data = types.Record{}
	}
	if err := h.applyCompanyDerivations(ctx, data, params.PreviousData.Merge(data)); err != nil {
		return params, err
	}
	params.Data = data
	return params, nil
}

func (h *Hooks) applyCompanyDerivations(ctx context.Context, data, merged types.Record) error {
	value, write, err := h.resolveImageField(ctx, merged, "logo", h.files.FileToDataURI, h.logos.ResolveLogo)
	if err != nil {
		return err
	}
	if write {
		data["logo"] = value
	}
	return nil
}

func (h *Hooks) companyAfterCreate(ctx context.Context, record types.Record, params provider.CreateParams, dp provider.DataProvider) (types.Record, error) {
	err := h.logActivity(ctx, dp, ActivityCompanyCreated, types.Record{
		"company_id": record.ID(),
		"sales_id":   record.String("sales_id"),
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// companyAfterUpdate pushes the company's current name onto every one of
// its contacts. The writes are independent: no ordering among them, and a
// failure stops the fan-out without undoing updates already applied.
func (h *Hooks) companyAfterUpdate(ctx context.Context, record types.Record, params provider.UpdateParams, dp provider.DataProvider) (types.Record, error) {
	companyID := record.ID()
	if companyID == "" {
		return record, nil
	}
	page, err := dp.GetList(ctx, ResourceContacts, provider.GetListParams{
		Filter: provider.Filter{"company_id": companyID},
	})
	if err != nil {
		return nil, fmt.Errorf("list contacts of company %q: %w", companyID, err)
	}
	if len(page.Data) == 0 {
		return record, nil
	}

	name := record.String("name")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.fanout)
	for _, contact := range page.Data {
		g.Go(func() error {
			_, err := dp.Update(gctx, ResourceContacts, provider.UpdateParams{
				ID:           contact.ID(),
				Data:         types.Record{"company_name": name},
				PreviousData: contact,
			})
			if err != nil {
				return fmt.Errorf("propagate company name to contact %q: %w", contact.ID(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return record, nil
}
