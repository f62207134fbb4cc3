package crm

import (
	"context"

	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func (h *Hooks) contactNoteAfterCreate(ctx context.Context, record types.Record, params provider.CreateParams, dp provider.DataProvider) (types.Record, error) {
	if err := h.adjustCounter(ctx, dp, ResourceContacts, record.String("contact_id"), "nb_notes", +1); err != nil {
		return nil, err
	}
	err := h.logActivity(ctx, dp, ActivityContactNoteCreated, types.Record{
		"contact_note_id": record.ID(),
		"contact_id":      record.String("contact_id"),
		"sales_id":        record.String("sales_id"),
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (h *Hooks) contactNoteAfterDelete(ctx context.Context, record types.Record, params provider.DeleteParams, dp provider.DataProvider) (types.Record, error) {
	if err := h.adjustCounter(ctx, dp, ResourceContacts, record.String("contact_id"), "nb_notes", -1); err != nil {
		return nil, err
	}
	return record, nil
}
