package auth

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// Role is a platform role granted to a user. The set of roles is closed:
// unknown role strings are rejected at parse time rather than silently
// carried along.
type Role string

const (
	RolePatient            Role = "patient"
	RoleAdmin              Role = "admin"
	RoleHospitalAdmin      Role = "hospital_admin"
	RoleSuperAdmin         Role = "superadmin"
	RoleConsultationAdmin  Role = "consultation_admin"
	RoleVisaAdmin          Role = "visa_admin"
	RoleAccommodationAdmin Role = "accommodation_admin"
)

var validRoles = map[Role]bool{
	RolePatient:            true,
	RoleAdmin:              true,
	RoleHospitalAdmin:      true,
	RoleSuperAdmin:         true,
	RoleConsultationAdmin:  true,
	RoleVisaAdmin:          true,
	RoleAccommodationAdmin: true,
}

// adminRoles are the roles that grant access to the administrative dashboard.
// hospital_admin manages the hospital catalog only and is deliberately not an
// admin role.
var adminRoles = map[Role]bool{
	RoleAdmin:              true,
	RoleSuperAdmin:         true,
	RoleConsultationAdmin:  true,
	RoleVisaAdmin:          true,
	RoleAccommodationAdmin: true,
}

// ParseRole validates a role string against the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !validRoles[r] {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleSet is the set of roles resolved for a user. The zero value is an empty
// set: a user whose roles could not be loaded has no roles and fails every
// check (fail closed).
type RoleSet map[Role]bool

// NewRoleSet builds a RoleSet from role strings, dropping unknown values.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, s := range roles {
		if r, err := ParseRole(s); err == nil {
			set[r] = true
		}
	}
	return set
}

// Has reports whether the set contains the exact role.
func (s RoleSet) Has(r Role) bool {
	return s[r]
}

// IsAdmin reports whether any held role grants admin dashboard access.
func (s RoleSet) IsAdmin() bool {
	for r := range s {
		if adminRoles[r] {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the superadmin role is held.
func (s RoleSet) IsSuperAdmin() bool {
	return s[RoleSuperAdmin]
}

// Roles returns the held roles sorted for stable output.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Surface identifies a protected area of the platform. Each surface maps to
// the set of roles allowed through; the mapping lives here so access rules
// are reviewable in one place instead of scattered across handlers.
type Surface string

const (
	SurfaceAdminDashboard Surface = "admin_dashboard"
	SurfaceConsultations  Surface = "consultations"
	SurfaceVisa           Surface = "visa"
	SurfaceAccommodation  Surface = "accommodation"
	SurfaceHospitalMgmt   Surface = "hospital_management"
	SurfaceUserMgmt       Surface = "user_management"
)

// surfaceRoles maps each surface to the roles allowed through. An empty set
// means superadmin only. superadmin always passes regardless of the entry.
var surfaceRoles = map[Surface]map[Role]bool{
	SurfaceAdminDashboard: {
		RoleAdmin:              true,
		RoleConsultationAdmin:  true,
		RoleVisaAdmin:          true,
		RoleAccommodationAdmin: true,
	},
	SurfaceConsultations: {
		RoleAdmin:             true,
		RoleConsultationAdmin: true,
	},
	SurfaceVisa: {
		RoleAdmin:     true,
		RoleVisaAdmin: true,
	},
	SurfaceAccommodation: {
		RoleAdmin:              true,
		RoleAccommodationAdmin: true,
	},
	SurfaceHospitalMgmt: {
		RoleHospitalAdmin: true,
	},
	SurfaceUserMgmt: {},
}

// Allowed reports whether the role set may access the surface. Superadmin
// supersedes every per-surface rule. Unknown surfaces deny everyone except
// superadmin.
func (s RoleSet) Allowed(surface Surface) bool {
	if s.IsSuperAdmin() {
		return true
	}
	required := surfaceRoles[surface]
	for r := range s {
		if required[r] {
			return true
		}
	}
	return false
}

// RequireSurface returns middleware that gates a route group behind a surface
// check. Requests without resolved roles are rejected.
func RequireSurface(surface Surface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles := RoleSetFromContext(c.Request().Context())
			if !roles.Allowed(surface) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("access to %s denied", surface))
			}
			return next(c)
		}
	}
}

// RequireAuthenticated returns middleware that only requires a resolved user
// id, for routes any signed-in user may call.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserIDFromContext(c.Request().Context()) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
