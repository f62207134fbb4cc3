package crm

import (
	"context"

	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func (h *Hooks) taskAfterCreate(ctx context.Context, record types.Record, params provider.CreateParams, dp provider.DataProvider) (types.Record, error) {
	if err := h.adjustCounter(ctx, dp, ResourceContacts, record.String("contact_id"), "nb_tasks", +1); err != nil {
		return nil, err
	}
	return record, nil
}

// taskBeforeUpdate classifies the done_date transition this update makes
// and records it in the call's meta, where the paired after hook reads
// it. The classification never leaves the call, so concurrent task
// updates cannot observe each other's transitions.
func (h *Hooks) taskBeforeUpdate(ctx context.Context, params provider.UpdateParams, dp provider.DataProvider) (provider.UpdateParams, error) {
	transition := TransitionUnchanged
	if raw, present := params.Data["done_date"]; present {
		newDone := raw != nil && params.Data.String("done_date") != ""
		prevDone := params.PreviousData.String("done_date") != ""
		switch {
		case newDone && !prevDone:
			transition = TransitionMarkedDone
		case !newDone && prevDone:
			transition = TransitionMarkedUndone
		}
	}

	meta := make(provider.Meta, len(params.Meta)+1)
	for k, v := range params.Meta {
		meta[k] = v
	}
	meta[transitionMetaKey] = transition
	params.Meta = meta
	return params, nil
}

func (h *Hooks) taskAfterUpdate(ctx context.Context, record types.Record, params provider.UpdateParams, dp provider.DataProvider) (types.Record, error) {
	transition, _ := params.Meta[transitionMetaKey].(string)
	var delta int
	switch transition {
	case TransitionMarkedDone:
		delta = -1
	case TransitionMarkedUndone:
		delta = +1
	default:
		return record, nil
	}
	if err := h.adjustCounter(ctx, dp, ResourceContacts, record.String("contact_id"), "nb_tasks", delta); err != nil {
		return nil, err
	}
	return record, nil
}

func (h *Hooks) taskAfterDelete(ctx context.Context, record types.Record, params provider.DeleteParams, dp provider.DataProvider) (types.Record, error) {
	if err := h.adjustCounter(ctx, dp, ResourceContacts, record.String("contact_id"), "nb_tasks", -1); err != nil {
		return nil, err
	}
	return record, nil
}
