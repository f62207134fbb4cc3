package crm

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/yungbote/pulsecrm-backend/internal/pkg/errors"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
	"github.com/yungbote/pulsecrm-backend/internal/utils"
)

// sessionListLimit bounds how many sales a session lookup scans.
const sessionListLimit = 200

// AccountService exposes the account-level operations that sit directly
// on the storage backend rather than the lifecycle dispatcher.
type AccountService interface {
	// SessionFromEmail resolves the identity a session should act as.
	// Unknown emails and an empty sales set both yield the guest identity.
	SessionFromEmail(ctx context.Context, email string) (types.Identity, error)
	// Login resolves a session identity like SessionFromEmail, but when
	// the matched sale carries a password hash the supplied password must
	// verify against it. Unknown emails still fall back to the guest
	// identity.
	Login(ctx context.Context, email, password string) (types.Identity, error)
	// TransferAdministrator moves the administrator role between two
	// sales, promoting to before demoting from. It returns the updated
	// from record, or nil without error when either sale is missing.
	TransferAdministrator(ctx context.Context, fromID, toID string) (types.Record, error)
}

type accountService struct {
	dp  provider.DataProvider
	log *logger.Logger
}

func NewAccountService(dp provider.DataProvider, log *logger.Logger) AccountService {
	return &accountService{
		dp:  dp,
		log: log.With("service", "AccountService"),
	}
}

func (as *accountService) SessionFromEmail(ctx context.Context, email string) (types.Identity, error) {
	rec, err := as.findSaleByEmail(ctx, email)
	if err != nil {
		return types.Identity{}, err
	}
	if rec == nil {
		as.log.Debug("No sale matched session email, using guest", "email", email)
		return types.GuestIdentity(), nil
	}
	return types.IdentityFromRecord(rec), nil
}

func (as *accountService) Login(ctx context.Context, email, password string) (types.Identity, error) {
	rec, err := as.findSaleByEmail(ctx, email)
	if err != nil {
		return types.Identity{}, err
	}
	if rec == nil {
		as.log.Debug("No sale matched login email, using guest", "email", email)
		return types.GuestIdentity(), nil
	}
	if hash := rec.String("password"); hash != "" {
		if !utils.CheckPassword(hash, password) {
			return types.Identity{}, fmt.Errorf("password mismatch for %q: %w", email, pkgerrors.ErrUnauthorized)
		}
	}
	return types.IdentityFromRecord(rec), nil
}

// findSaleByEmail scans the first sessionListLimit sales for a
// case-insensitive email match. A nil record with a nil error means no
// sale matched.
func (as *accountService) findSaleByEmail(ctx context.Context, email string) (types.Record, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	page, err := as.dp.GetList(ctx, ResourceSales, provider.GetListParams{
		Pagination: provider.Pagination{Page: 1, PerPage: sessionListLimit},
	})
	if err != nil {
		return nil, fmt.Errorf("list sales for session: %w", err)
	}
	for _, rec := range page.Data {
		if email != "" && strings.EqualFold(strings.TrimSpace(rec.String("email")), email) {
			return rec, nil
		}
	}
	return nil, nil
}

func (as *accountService) TransferAdministrator(ctx context.Context, fromID, toID string) (types.Record, error) {
	if fromID == "" || toID == "" || fromID == toID {
		return nil, fmt.Errorf("transfer needs two distinct sale ids: %w", pkgerrors.ErrInvalidArgument)
	}
	from, err := as.dp.GetOne(ctx, ResourceSales, provider.GetOneParams{ID: fromID})
	if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		as.log.Warn("Transfer source sale missing", "from", fromID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	to, err := as.dp.GetOne(ctx, ResourceSales, provider.GetOneParams{ID: toID})
	if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
		as.log.Warn("Transfer target sale missing", "to", toID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Promotion runs first; between the two writes both sales hold the
	// role.
	if _, err := as.dp.Update(ctx, ResourceSales, provider.UpdateParams{
		ID:           toID,
		Data:         types.Record{"administrator": true},
		PreviousData: to,
	}); err != nil {
		return nil, fmt.Errorf("promote sale %q: %w", toID, err)
	}
	updatedFrom, err := as.dp.Update(ctx, ResourceSales, provider.UpdateParams{
		ID:           fromID,
		Data:         types.Record{"administrator": false},
		PreviousData: from,
	})
	if err != nil {
		return nil, fmt.Errorf("demote sale %q: %w", fromID, err)
	}
	as.log.Info("Administrator role transferred", "from", fromID, "to", toID)
	return updatedFrom, nil
}
