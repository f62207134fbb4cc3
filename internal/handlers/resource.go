package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulsecrm-backend/internal/crm"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/requestdata"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

// defaultPerPage caps listings that do not ask for a page size. Clients
// can pass perPage=0 to fetch everything.
const defaultPerPage = 25

// ResourceHandler serves the generic record CRUD surface for every known
// resource. All writes go through the lifecycle-wrapped provider, so the
// consistency rules run no matter which client calls in.
type ResourceHandler struct {
	log *logger.Logger
	dp  provider.DataProvider
}

func NewResourceHandler(log *logger.Logger, dp provider.DataProvider) *ResourceHandler {
	return &ResourceHandler{
		log: log.With("handler", "ResourceHandler"),
		dp:  dp,
	}
}

// GET /api/:resource
func (h *ResourceHandler) GetList(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}
	params, err := parseListQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_list_query", err)
		return
	}
	page, err := h.dp.GetList(c.Request.Context(), resource, params)
	if err != nil {
		h.log.Error("GetList failed", "error", err, "resource", resource)
		RespondDomainError(c, "list_failed", err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(page.Total))
	RespondOK(c, page)
}

// GET /api/:resource/:id
func (h *ResourceHandler) GetOne(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}
	rec, err := h.dp.GetOne(c.Request.Context(), resource, provider.GetOneParams{ID: c.Param("id")})
	if err != nil {
		RespondDomainError(c, "record_not_found", err)
		return
	}
	RespondOK(c, gin.H{"data": rec})
}

// POST /api/:resource
func (h *ResourceHandler) Create(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}
	var data types.Record
	if err := c.ShouldBindJSON(&data); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	rec, err := h.dp.Create(c.Request.Context(), resource, provider.CreateParams{Data: data})
	if err != nil {
		h.log.Error("Create failed", "error", err, "resource", resource)
		RespondDomainError(c, "create_failed", err)
		return
	}
	RespondOK(c, gin.H{"data": rec})
}

// PUT /api/:resource/:id
//
// The body is either {"data": {...}, "previousData": {...}} or a bare
// record patch. When previousData is absent the handler loads the stored
// record first, so the lifecycle rules always see the pre-update state.
func (h *ResourceHandler) Update(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var envelope struct {
		Data         types.Record `json:"data"`
		PreviousData types.Record `json:"previousData"`
	}
	raw, err := c.GetRawData()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Data == nil {
		var bare types.Record
		if err := json.Unmarshal(raw, &bare); err != nil || bare == nil {
			RespondError(c, http.StatusBadRequest, "invalid_request_body", fmt.Errorf("body must be a record or a {data, previousData} envelope"))
			return
		}
		envelope.Data = bare
		envelope.PreviousData = nil
	}
	if envelope.PreviousData == nil {
		prev, err := h.dp.GetOne(c.Request.Context(), resource, provider.GetOneParams{ID: id})
		if err != nil {
			RespondDomainError(c, "record_not_found", err)
			return
		}
		envelope.PreviousData = prev
	}

	rec, err := h.dp.Update(c.Request.Context(), resource, provider.UpdateParams{
		ID:           id,
		Data:         envelope.Data,
		PreviousData: envelope.PreviousData,
		Meta:         h.callerMeta(c),
	})
	if err != nil {
		h.log.Error("Update failed", "error", err, "resource", resource, "id", id)
		RespondDomainError(c, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"data": rec})
}

// PUT /api/:resource
func (h *ResourceHandler) UpdateMany(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}
	var req struct {
		IDs  []string     `json:"ids"`
		Data types.Record `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if len(req.IDs) == 0 {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", fmt.Errorf("ids must not be empty"))
		return
	}
	ids, err := h.dp.UpdateMany(c.Request.Context(), resource, provider.UpdateManyParams{
		IDs:  req.IDs,
		Data: req.Data,
	})
	if err != nil {
		h.log.Error("UpdateMany failed", "error", err, "resource", resource, "ids", req.IDs)
		RespondDomainError(c, "update_many_failed", err)
		return
	}
	RespondOK(c, gin.H{"data": ids})
}

// DELETE /api/:resource/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}
	id := c.Param("id")
	rec, err := h.dp.Delete(c.Request.Context(), resource, provider.DeleteParams{
		ID:   id,
		Meta: h.callerMeta(c),
	})
	if err != nil {
		h.log.Error("Delete failed", "error", err, "resource", resource, "id", id)
		RespondDomainError(c, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"data": rec})
}

// resource validates the :resource path segment, rejecting names the
// service does not serve.
func (h *ResourceHandler) resource(c *gin.Context) (string, bool) {
	name := c.Param("resource")
	if !crm.KnownResource(name) {
		RespondError(c, http.StatusNotFound, "unknown_resource", fmt.Errorf("unknown resource %q", name))
		return "", false
	}
	return name, true
}

// callerMeta attaches the request identity, when one is present, so the
// lifecycle rules can see who is calling.
func (h *ResourceHandler) callerMeta(c *gin.Context) provider.Meta {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || !rd.HasIdentity {
		return nil
	}
	return provider.Meta{}.WithIdentity(rd.Identity)
}

// parseListQuery decodes the listing controls: filter is a JSON object,
// sort is either a JSON ["field","ORDER"] pair or a bare field name with
// a separate order param, page and perPage are integers.
func parseListQuery(c *gin.Context) (provider.GetListParams, error) {
	params := provider.GetListParams{
		Pagination: provider.Pagination{Page: 1, PerPage: defaultPerPage},
	}

	if rawFilter := c.Query("filter"); rawFilter != "" {
		if err := json.Unmarshal([]byte(rawFilter), &params.Filter); err != nil {
			return params, fmt.Errorf("parse filter: %w", err)
		}
	}

	if rawSort := c.Query("sort"); rawSort != "" {
		if strings.HasPrefix(strings.TrimSpace(rawSort), "[") {
			var pair []string
			if err := json.Unmarshal([]byte(rawSort), &pair); err != nil {
				return params, fmt.Errorf("parse sort: %w", err)
			}
			if len(pair) > 0 {
				params.Sort.Field = pair[0]
			}
			if len(pair) > 1 {
				params.Sort.Order = pair[1]
			}
		} else {
			params.Sort.Field = rawSort
			params.Sort.Order = c.Query("order")
		}
		if params.Sort.Order == "" {
			params.Sort.Order = provider.SortAsc
		}
	}

	if rawPage := c.Query("page"); rawPage != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil {
			return params, fmt.Errorf("parse page: %w", err)
		}
		params.Pagination.Page = page
	}
	if rawPerPage := c.Query("perPage"); rawPerPage != "" {
		perPage, err := strconv.Atoi(rawPerPage)
		if err != nil {
			return params, fmt.Errorf("parse perPage: %w", err)
		}
		params.Pagination.PerPage = perPage
	}
	return params, nil
}
