package requestdata

import (
	"context"

	"github.com/yungbote/pulsecrm-backend/internal/types"
)

type ctxKey struct{}

var requestDataKey ctxKey

// RequestData is the per-request state middleware attaches for handlers:
// the raw session token and the identity it resolved to.
type RequestData struct {
	TokenString string
	Identity    types.Identity
	HasIdentity bool
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}

// IdentityFrom returns the request identity when one was attached.
func IdentityFrom(ctx context.Context) (types.Identity, bool) {
	rd := GetRequestData(ctx)
	if rd == nil || !rd.HasIdentity {
		return types.Identity{}, false
	}
	return rd.Identity, true
}
