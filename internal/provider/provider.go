// Package provider defines the record access contract every backend and
// decorator in this service speaks: six operations over named resources
// holding opaque records.
package provider

import (
	"context"

	"github.com/yungbote/pulsecrm-backend/internal/types"
)

// Sort orders a listing by one field.
type Sort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// Pagination selects a page of a listing. PerPage <= 0 disables paging and
// returns every match.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// Filter restricts a listing to records whose fields equal the given
// values. A nil or empty filter matches everything.
type Filter map[string]any

// Meta is a side channel for operation inputs that are not record data,
// such as the caller identity on deletes.
type Meta map[string]any

const metaIdentityKey = "identity"

// Identity returns the caller identity attached to the meta, if any.
func (m Meta) Identity() (types.Identity, bool) {
	if m == nil {
		return types.Identity{}, false
	}
	ident, ok := m[metaIdentityKey].(types.Identity)
	if !ok || ident.ID == "" {
		return types.Identity{}, false
	}
	return ident, true
}

// WithIdentity returns a copy of the meta carrying the caller identity.
func (m Meta) WithIdentity(ident types.Identity) Meta {
	out := make(Meta, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[metaIdentityKey] = ident
	return out
}

type GetOneParams struct {
	ID string
}

type GetListParams struct {
	Filter     Filter
	Sort       Sort
	Pagination Pagination
}

type CreateParams struct {
	Data types.Record
}

type UpdateParams struct {
	ID           string
	Data         types.Record
	PreviousData types.Record
	Meta         Meta
}

type UpdateManyParams struct {
	IDs  []string
	Data types.Record
}

type DeleteParams struct {
	ID   string
	Meta Meta
}

// RecordPage is one page of a listing plus the total match count before
// pagination.
type RecordPage struct {
	Data  []types.Record `json:"data"`
	Total int            `json:"total"`
}

// DataProvider is the uniform record access surface. Backends implement it
// over real storage; decorators wrap it to add behavior.
type DataProvider interface {
	GetOne(ctx context.Context, resource string, params GetOneParams) (types.Record, error)
	GetList(ctx context.Context, resource string, params GetListParams) (RecordPage, error)
	Create(ctx context.Context, resource string, params CreateParams) (types.Record, error)
	Update(ctx context.Context, resource string, params UpdateParams) (types.Record, error)
	UpdateMany(ctx context.Context, resource string, params UpdateManyParams) ([]string, error)
	Delete(ctx context.Context, resource string, params DeleteParams) (types.Record, error)
}
