// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/middleware"
	requestutil "github.com/taibuivan/aegis/internal/platform/request"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/sec"
	"github.com/taibuivan/aegis/internal/platform/validate"
	"github.com/taibuivan/aegis/pkg/pagination"
	"github.com/taibuivan/aegis/pkg/pointer"
	"github.com/taibuivan/aegis/pkg/query"
)

// AdminHandler implements the administrative user-management surface. Every
// route requires role ≥ Admin, enforced once at the router group.
type AdminHandler struct {
	accounts *AccountService
}

// NewAdminHandler constructs a new [AdminHandler].
func NewAdminHandler(accounts *AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// Routes returns a [chi.Router] configured with the admin routes. The caller
// is expected to have already mounted [middleware.Authenticate].
func (h *AdminHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAdmin)

	router.Post("/users", h.createUser)
	router.Get("/users", h.listUsers)
	router.Get("/users/search", h.searchUsers)
	router.Get("/users/{id}", h.getUser)
	router.Put("/users/{id}", h.updateUser)
	router.Delete("/users/{id}", h.deleteUser)
	router.Put("/users/{id}/password", h.resetUserPassword)
	router.Put("/users/{id}/role", h.changeUserRole)
	router.Get("/dashboard/stats", h.dashboardStats)

	return router
}

type createUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Role      int    `json:"role"`
}

type updateUserRequest struct {
	Status        *string `json:"accountStatus"`
	EmailVerified *bool   `json:"emailVerified"`
	PhoneVerified *bool   `json:"phoneVerified"`
}

type resetPasswordAdminRequest struct {
	NewPassword string `json:"newPassword"`
}

type changeRoleRequest struct {
	Role int `json:"role"`
}

// createUser handles POST /admin/users.
func (h *AdminHandler) createUser(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("firstName", input.FirstName).
		Required("lastName", input.LastName).
		Required("username", input.Username).Username("username", input.Username).
		Required("email", input.Email).Email("email", input.Email).
		Required("phone", input.Phone).Phone("phone", input.Phone).
		Required("password", input.Password).MinLen("password", input.Password, 8).
		Range("role", input.Role, 1, 5)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := h.accounts.CreateUser(request.Context(), CreateUserInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
		Phone:     input.Phone,
		Role:      sec.Role(input.Role),
	}, *caller)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, view)
}

// listUsers handles GET /admin/users?status=&role=&page=&limit=.
func (h *AdminHandler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	var filter AccountFilter
	if status := request.URL.Query().Get("status"); status != "" {
		filter.Status = pointer.To(AccountStatus(status))
	}
	if roleParam := request.URL.Query().Get("role"); roleParam != "" {
		n, err := strconv.Atoi(roleParam)
		if err != nil {
			respond.Error(writer, request, validate.RequiredError("role", "must be an integer"))
			return
		}
		filter.Role = pointer.To(sec.Role(n))
	}

	views, total, err := h.accounts.ListUsers(request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, views, pagination.NewMeta(params.Page, params.Limit, total))
}

// searchUsers handles GET /admin/users/search?q=&fields=&page=&limit=.
func (h *AdminHandler) searchUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	query := request.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		respond.Error(writer, request, validate.RequiredError("q", "is required"))
		return
	}

	fields := query.StringSlice(request.URL.Query().Get("fields"))

	views, total, err := h.accounts.SearchUsers(request.Context(), query, fields, params.Page, params.Limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, views, pagination.NewMeta(params.Page, params.Limit, total))
}

// getUser handles GET /admin/users/{id}.
func (h *AdminHandler) getUser(writer http.ResponseWriter, request *http.Request) {
	id, err := parseAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := h.accounts.GetUser(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// updateUser handles PUT /admin/users/{id}.
func (h *AdminHandler) updateUser(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := parseAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	patch := AccountPatch{EmailVerified: input.EmailVerified, PhoneVerified: input.PhoneVerified}
	if input.Status != nil {
		v := &validate.Validator{}
		v.OneOf("status", *input.Status, string(StatusPending), string(StatusActive), string(StatusSuspended), string(StatusLocked), string(StatusDeleted))
		if err := v.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
		patch.Status = pointer.To(AccountStatus(*input.Status))
	}

	view, err := h.accounts.UpdateUser(request.Context(), id, patch, *caller)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// resetUserPassword handles PUT /admin/users/{id}/password.
func (h *AdminHandler) resetUserPassword(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := parseAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input resetPasswordAdminRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("newPassword", input.NewPassword).MinLen("newPassword", input.NewPassword, 8)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.accounts.ResetUserPassword(request.Context(), id, input.NewPassword, *caller); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password reset successfully")
}

// deleteUser handles DELETE /admin/users/{id}.
func (h *AdminHandler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := parseAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.accounts.DeleteUser(request.Context(), id, *caller); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "User deleted")
}

// changeUserRole handles PUT /admin/users/{id}/role.
func (h *AdminHandler) changeUserRole(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := parseAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changeRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Range("role", input.Role, 1, 5)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := h.accounts.ChangeUserRole(request.Context(), id, sec.Role(input.Role), *caller)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// dashboardStats handles GET /admin/dashboard/stats.
func (h *AdminHandler) dashboardStats(writer http.ResponseWriter, request *http.Request) {
	stats, err := h.accounts.DashboardStats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, stats)
}

// parseAccountID extracts and validates the {id} URL parameter.
func parseAccountID(request *http.Request) (int, error) {
	raw := requestutil.Param(request, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperr.ValidationError("id must be a positive integer")
	}
	return id, nil
}
