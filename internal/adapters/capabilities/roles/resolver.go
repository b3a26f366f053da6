// Package roles resuelve el alcance de visibilidad a partir de los
// roles que vienen en los claims del token.
package roles

import (
	"context"

	"adoption-manager/internal/domain/orgs"
	"adoption-manager/internal/ports/auth"
	"adoption-manager/internal/ports/capabilities"
)

type Resolver struct {
	orgs orgs.Repository
}

func NewResolver(orgRepo orgs.Repository) *Resolver {
	return &Resolver{orgs: orgRepo}
}

// ResolveScope: superadmin ve todo; admin y colaborador ven lo de sus
// organizaciones; cualquier otro rol (o ninguno) ve solo lo propio.
func (r *Resolver) ResolveScope(ctx context.Context, claims auth.Claims) (capabilities.AccessScope, error) {
	if claims.HasRole(auth.RoleSuperAdmin) {
		return capabilities.Unrestricted(), nil
	}

	if claims.HasRole(auth.RoleAdmin) || claims.HasRole(auth.RoleColaborador) {
		orgIDs, err := r.orgs.OrganizationsForUser(ctx, claims.UserID)
		if err != nil {
			return capabilities.AccessScope{}, err
		}
		return capabilities.Affiliate(claims.UserID, orgIDs), nil
	}

	return capabilities.Owner(claims.UserID), nil
}
