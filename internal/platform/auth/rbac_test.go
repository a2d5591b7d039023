package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func ctxWithClaims(claims *Claims) context.Context {
	return context.WithValue(context.Background(), ClaimsKey, claims)
}

func TestEffectiveRoles_StaffGetsAllRoles(t *testing.T) {
	claims := &Claims{Role: RoleAdmin, IsStaff: true}
	roles := EffectiveRoles(claims)

	for _, r := range []string{RoleAdmin, RoleDoctor, RolePharmacist} {
		if !roles[r] {
			t.Errorf("staff identity missing role %s", r)
		}
	}
}

func TestEffectiveRoles_DoctorOnly(t *testing.T) {
	claims := &Claims{Role: RoleDoctor, IsStaff: false}
	roles := EffectiveRoles(claims)

	if !roles[RoleDoctor] {
		t.Error("doctor role missing")
	}
	if roles[RolePharmacist] || roles[RoleAdmin] {
		t.Errorf("doctor received extra roles: %v", roles)
	}
}

func TestEffectiveRoles_NoProfile(t *testing.T) {
	claims := &Claims{Role: RoleNone, IsStaff: false}
	if roles := EffectiveRoles(claims); len(roles) != 0 {
		t.Errorf("expected empty role set, got %v", roles)
	}
}

func TestEffectiveRoles_Unauthenticated(t *testing.T) {
	if roles := EffectiveRoles(nil); len(roles) != 0 {
		t.Errorf("expected empty role set for nil claims, got %v", roles)
	}
}

// A staff identity passes all three predicates simultaneously; a doctor-role
// non-staff identity passes IsDoctor only.
func TestPredicates_Matrix(t *testing.T) {
	staff := ctxWithClaims(&Claims{Role: RoleAdmin, IsStaff: true})
	if !IsDoctor(staff) || !IsPharmacist(staff) || !IsAdminStaff(staff) {
		t.Error("staff identity should pass every predicate")
	}

	doctor := ctxWithClaims(&Claims{Role: RoleDoctor})
	if !IsDoctor(doctor) {
		t.Error("doctor should pass IsDoctor")
	}
	if IsPharmacist(doctor) {
		t.Error("doctor should not pass IsPharmacist")
	}
	if IsAdminStaff(doctor) {
		t.Error("doctor should not pass IsAdminStaff")
	}

	pharmacist := ctxWithClaims(&Claims{Role: RolePharmacist})
	if !IsPharmacist(pharmacist) {
		t.Error("pharmacist should pass IsPharmacist")
	}
	if IsDoctor(pharmacist) {
		t.Error("pharmacist should not pass IsDoctor")
	}

	if IsDoctor(context.Background()) || IsPharmacist(context.Background()) || IsAdminStaff(context.Background()) {
		t.Error("unauthenticated context should fail every predicate")
	}
}

func invokeWithRole(t *testing.T, claims *Claims, required ...string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if claims != nil {
		req = req.WithContext(ctxWithClaims(claims))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	return RequireRole(required...)(handler)(c)
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	err := invokeWithRole(t, &Claims{Role: RolePharmacist}, RolePharmacist, RoleAdmin)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRequireRole_StaffBypassesCheck(t *testing.T) {
	err := invokeWithRole(t, &Claims{Role: RoleNone, IsStaff: true}, RoleDoctor)
	if err != nil {
		t.Errorf("staff should bypass role check, got %v", err)
	}
}

func TestRequireRole_ForbidsWrongRole(t *testing.T) {
	err := invokeWithRole(t, &Claims{Role: RoleDoctor}, RolePharmacist)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRequireRole_RejectsUnauthenticated(t *testing.T) {
	err := invokeWithRole(t, nil, RoleDoctor)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
