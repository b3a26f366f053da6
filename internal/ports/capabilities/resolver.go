package capabilities

import (
	"context"

	"adoption-manager/internal/ports/auth"
)

type ScopeKind string

const (
	// ScopeUnrestricted ve todo (superadmin).
	ScopeUnrestricted ScopeKind = "unrestricted"
	// ScopeOwner ve solo lo propio (adoptante).
	ScopeOwner ScopeKind = "owner"
	// ScopeAffiliate ve lo de sus organizaciones (admin / colaborador).
	ScopeAffiliate ScopeKind = "affiliate"
)

// AccessScope es el alcance de visibilidad ya resuelto para un caller.
// Los handlers lo resuelven una vez; los servicios no vuelven a mirar roles.
type AccessScope struct {
	Kind   ScopeKind
	UserID string
	OrgIDs []string
}

func Unrestricted() AccessScope {
	return AccessScope{Kind: ScopeUnrestricted}
}

func Owner(userID string) AccessScope {
	return AccessScope{Kind: ScopeOwner, UserID: userID}
}

func Affiliate(userID string, orgIDs []string) AccessScope {
	return AccessScope{Kind: ScopeAffiliate, UserID: userID, OrgIDs: orgIDs}
}

type ScopeResolver interface {
	ResolveScope(ctx context.Context, claims auth.Claims) (AccessScope, error)
}
