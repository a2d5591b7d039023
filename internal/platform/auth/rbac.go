package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Roles recognized by the system. The staff flag is not a role: it is an
// elevated-privilege marker that satisfies every role check.
const (
	RoleAdmin      = "admin"
	RoleDoctor     = "doctor"
	RolePharmacist = "pharmacist"
)

var allRoles = []string{RoleAdmin, RoleDoctor, RolePharmacist}

// EffectiveRoles computes the set of roles an identity may act as:
// the profile role plus, for staff identities, every role. A nil claims
// value (unauthenticated) yields the empty set.
func EffectiveRoles(claims *Claims) map[string]bool {
	roles := make(map[string]bool)
	if claims == nil {
		return roles
	}
	if claims.IsStaff {
		for _, r := range allRoles {
			roles[r] = true
		}
	}
	switch claims.Role {
	case RoleAdmin, RoleDoctor, RolePharmacist:
		roles[claims.Role] = true
	}
	return roles
}

// IsDoctor reports whether the request identity may act as a doctor.
func IsDoctor(ctx context.Context) bool {
	return EffectiveRoles(ClaimsFromContext(ctx))[RoleDoctor]
}

// IsPharmacist reports whether the request identity may act as a pharmacist.
func IsPharmacist(ctx context.Context) bool {
	return EffectiveRoles(ClaimsFromContext(ctx))[RolePharmacist]
}

// IsAdminStaff reports whether the request identity carries the staff flag.
func IsAdminStaff(ctx context.Context) bool {
	claims := ClaimsFromContext(ctx)
	return claims != nil && claims.IsStaff
}

// RequireRole returns middleware that admits the request if the identity's
// effective role set intersects the given roles. Staff identities pass every
// check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c.Request().Context())
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			effective := EffectiveRoles(claims)
			for _, required := range roles {
				if effective[required] {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
