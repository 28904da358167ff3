package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/afyalink/afyalink-api/internal/platform/auth"
	"github.com/afyalink/afyalink-api/pkg/pagination"
)

// Handler exposes profile and user management over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler for the given service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the self-service profile routes for any signed-in
// user and the user management routes behind the superadmin-only surface.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	profile := api.Group("/profile", auth.RequireAuthenticated())
	profile.GET("", h.GetMyProfile)
	profile.PUT("", h.UpsertMyProfile)

	users := api.Group("/admin/users", auth.RequireSurface(auth.SurfaceUserMgmt))
	users.GET("", h.ListUsers)
	users.POST("/:id/roles", h.GrantRole)
	users.DELETE("/:id/roles/:role", h.RevokeRole)
}

// GetMyProfile handles GET /profile.
func (h *Handler) GetMyProfile(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

type profileRequest struct {
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone"`
	Country     *string `json:"country"`
	DateOfBirth string  `json:"date_of_birth"` // "2006-01-02"
	Gender      *string `json:"gender"`
}

// UpsertMyProfile handles PUT /profile, completing signup on first call.
func (h *Handler) UpsertMyProfile(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	in := ProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Country:  req.Country,
		Gender:   req.Gender,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date_of_birth, expected YYYY-MM-DD")
		}
		in.DateOfBirth = &dob
	}

	userID := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.CompleteSignup(c.Request().Context(), userID, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(c echo.Context) error {
	params := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, params.Limit, params.Offset))
}

type grantRequest struct {
	Role string `json:"role"`
}

// GrantRole handles POST /admin/users/:id/roles.
func (h *Handler) GrantRole(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.svc.GrantRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		if errors.Is(err, ErrRoleAlreadyGranted) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// RevokeRole handles DELETE /admin/users/:id/roles/:role.
func (h *Handler) RevokeRole(c echo.Context) error {
	err := h.svc.RevokeRole(c.Request().Context(), c.Param("id"), c.Param("role"))
	if err != nil {
		if errors.Is(err, ErrRoleNotGranted) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
