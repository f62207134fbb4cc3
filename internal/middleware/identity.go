package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/requestdata"
	"github.com/yungbote/pulsecrm-backend/internal/utils"
)

type IdentityMiddleware struct {
	log    *logger.Logger
	secret string
}

func NewIdentityMiddleware(log *logger.Logger, secret string) *IdentityMiddleware {
	return &IdentityMiddleware{
		log:    log.With("Middleware", "IdentityMiddleware"),
		secret: secret,
	}
}

// Attach resolves the session token when one is sent and stores the
// identity on the request context. Requests without a valid token pass
// through anonymous.
func (im *IdentityMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &requestdata.RequestData{}
		if tokenString := extractToken(c); tokenString != "" {
			rd.TokenString = tokenString
			ident, err := utils.ParseSessionToken(im.secret, tokenString)
			if err != nil {
				im.log.Debug("Session token rejected", "error", err)
			} else {
				rd.Identity = ident
				rd.HasIdentity = true
			}
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), rd)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Require aborts with 401 unless Attach resolved an identity earlier in
// the chain.
func (im *IdentityMiddleware) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requestdata.IdentityFrom(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
