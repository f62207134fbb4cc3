package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulsecrm-backend/internal/crm"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/requestdata"
	"github.com/yungbote/pulsecrm-backend/internal/utils"
)

type AccountHandler struct {
	log      *logger.Logger
	accounts crm.AccountService
	secret   string
	tokenTTL time.Duration
}

func NewAccountHandler(log *logger.Logger, accounts crm.AccountService, secret string, tokenTTL time.Duration) *AccountHandler {
	return &AccountHandler{
		log:      log.With("handler", "AccountHandler"),
		accounts: accounts,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// POST /api/login
//
// Emails without a matching sale still get a session, as the guest
// identity. Guests hold no identity claims, so identity-gated rules and
// routes stay closed to them.
func (h *AccountHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	ident, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, "login_failed", err)
		return
	}
	token, err := utils.GenerateSessionToken(h.secret, ident, h.tokenTTL)
	if err != nil {
		h.log.Error("Login failed (sign token)", "error", err, "email", req.Email)
		RespondError(c, http.StatusInternalServerError, "sign_token_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"identity":   ident,
		"expires_in": int(h.tokenTTL.Seconds()),
	})
}

// POST /api/sales/transfer-admin
func (h *AccountHandler) TransferAdmin(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || !rd.HasIdentity {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if !rd.Identity.Administrator {
		RespondError(c, http.StatusForbidden, "administrator_required", nil)
		return
	}

	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	rec, err := h.accounts.TransferAdministrator(c.Request.Context(), req.From, req.To)
	if err != nil {
		h.log.Error("TransferAdmin failed", "error", err, "from", req.From, "to", req.To)
		RespondDomainError(c, "transfer_admin_failed", err)
		return
	}
	if rec == nil {
		RespondError(c, http.StatusNotFound, "sale_not_found", nil)
		return
	}
	RespondOK(c, gin.H{"data": rec})
}
