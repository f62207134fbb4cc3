package types

import "strings"

// Identity is the signed-in account a request acts as.
type Identity struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Avatar        string `json:"avatar,omitempty"`
	Administrator bool   `json:"administrator"`
}

// GuestIdentity is the fallback identity used when no account matches a
// session lookup. It has no ID, so writes that require a real account
// reject it.
func GuestIdentity() Identity {
	return Identity{FullName: "Guest"}
}

// IdentityFromRecord builds an Identity from a stored sales record.
func IdentityFromRecord(rec Record) Identity {
	fullName := strings.TrimSpace(strings.TrimSpace(rec.String("first_name")) + " " + strings.TrimSpace(rec.String("last_name")))
	return Identity{
		ID:            rec.ID(),
		FullName:      fullName,
		Avatar:        rec.String("avatar"),
		Administrator: rec.Bool("administrator"),
	}
}
