package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulsecrm-backend/internal/crm"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/realtime"
)

type ChangesHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewChangesHandler(log *logger.Logger, hub *realtime.Hub) *ChangesHandler {
	return &ChangesHandler{
		log: log.With("handler", "ChangesHandler"),
		hub: hub,
	}
}

// GET /api/changes
//
// Streams record change events over SSE. The optional resources query
// param narrows the stream to a comma-separated set of resource names;
// without it the client sees every resource.
func (h *ChangesHandler) Stream(c *gin.Context) {
	var resources []string
	if raw := c.Query("resources"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !crm.KnownResource(name) {
				RespondError(c, http.StatusBadRequest, "unknown_resource", nil)
				return
			}
			resources = append(resources, name)
		}
	}

	client := h.hub.NewClient(resources)
	h.log.Info("Change stream open", "client_id", client.ID, "resources", resources)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Info("Change stream closed", "client_id", client.ID)
}
