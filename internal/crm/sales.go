package crm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/yungbote/pulsecrm-backend/internal/pkg/errors"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
	"github.com/yungbote/pulsecrm-backend/internal/utils"
)

// ownedResources are the resource types carrying a sales_id owner
// reference that must move to a replacement owner before a sale goes.
var ownedResources = []string{
	ResourceCompanies,
	ResourceContacts,
	ResourceContactNotes,
	ResourceDeals,
}

func (h *Hooks) saleBeforeCreate(ctx context.Context, params provider.CreateParams, dp provider.DataProvider) (provider.CreateParams, error) {
	data := params.Data.Clone()
	if data == nil {
		data = types.Record{}
	}
	if !data.Has("administrator") {
		data["administrator"] = false
	}
	if pw := data.String("password"); pw != "" {
		hash, err := utils.HashPassword(pw)
		if err != nil {
			return params, err
		}
		data["password"] = hash
	}
	params.Data = data
	return params, nil
}

func (h *Hooks) saleBeforeUpdate(ctx context.Context, params provider.UpdateParams, dp provider.DataProvider) (provider.UpdateParams, error) {
	if _, present := params.Data["new_password"]; !present {
		return params, nil
	}
	data := params.Data.Clone()
	newPassword := data.String("new_password")
	delete(data, "new_password")
	if newPassword != "" {
		hash, err := utils.HashPassword(newPassword)
		if err != nil {
			return params, err
		}
		data["password"] = hash
	}
	params.Data = data
	return params, nil
}

// saleBeforeDelete reassigns everything the sale owns to the caller
// identity, one batch update per owned resource type, fanned out
// concurrently. Reads and writes here are not atomic with the delete
// that follows.
func (h *Hooks) saleBeforeDelete(ctx context.Context, params provider.DeleteParams, dp provider.DataProvider) (provider.DeleteParams, error) {
	ident, ok := params.Meta.Identity()
	if !ok {
		return params, fmt.Errorf("delete sale %q needs a caller identity: %w", params.ID, pkgerrors.ErrMissingIdentity)
	}
	if ident.ID == params.ID {
		return params, fmt.Errorf("delete sale %q cannot reassign records to itself: %w", params.ID, pkgerrors.ErrInvalidArgument)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.fanout)
	for _, resource := range ownedResources {
		g.Go(func() error {
			page, err := dp.GetList(gctx, resource, provider.GetListParams{
				Filter: provider.Filter{"sales_id": params.ID},
			})
			if err != nil {
				return fmt.Errorf("list %s owned by sale %q: %w", resource, params.ID, err)
			}
			if len(page.Data) == 0 {
				return nil
			}
			ids := make([]string, 0, len(page.Data))
			for _, rec := range page.Data {
				ids = append(ids, rec.ID())
			}
			if _, err := dp.UpdateMany(gctx, resource, provider.UpdateManyParams{
				IDs:  ids,
				Data: types.Record{"sales_id": ident.ID},
			}); err != nil {
				return fmt.Errorf("reassign %s to sale %q: %w", resource, ident.ID, err)
			}
			h.log.Info("Reassigned records before sale deletion",
				"resource", resource, "count", len(ids), "from", params.ID, "to", ident.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return params, err
	}
	return params, nil
}
