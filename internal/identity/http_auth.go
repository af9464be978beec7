// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity provides the HTTP delivery layer for the authentication
lifecycle: registration, login, password management, and email/phone
verification.

The handler acts as a thin mediation layer between the web and domain
services: decode, validate, dispatch, serialize. Protocol and security
concerns (status codes, headers, bearer token extraction) stop here; business
rules live in [CredentialService] and [VerificationService].
*/
package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aegis/internal/platform/middleware"
	requestutil "github.com/taibuivan/aegis/internal/platform/request"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/validate"
)

// AuthHandler implements the public and self-service authentication routes.
type AuthHandler struct {
	credentials  *CredentialService
	verification *VerificationService
	accounts     *AccountService
}

// NewAuthHandler constructs a new [AuthHandler] with its service dependencies.
func NewAuthHandler(credentials *CredentialService, verification *VerificationService, accounts *AccountService) *AuthHandler {
	return &AuthHandler{credentials: credentials, verification: verification, accounts: accounts}
}

// Routes returns a [chi.Router] configured with authentication routes.
func (h *AuthHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Post("/password/reset-request", h.requestPasswordReset)
	router.Post("/password/reset", h.resetPassword)
	router.Get("/verify/email/confirm", h.confirmEmailVerification)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", h.me)
		r.Post("/user/password/change", h.changePassword)
		r.Post("/verify/email/send", h.sendEmailVerification)
		r.Post("/verify/phone/send", h.sendPhoneVerification)
		r.Post("/verify/phone/verify", h.confirmPhoneVerification)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type requestPasswordResetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type confirmPhoneRequest struct {
	Code string `json:"code"`
}

// register handles POST /auth/register.
func (h *AuthHandler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("firstName", input.FirstName).MaxLen("firstName", input.FirstName, 100).
		Required("lastName", input.LastName).MaxLen("lastName", input.LastName, 100).
		Required("username", input.Username).Username("username", input.Username).
		Required("email", input.Email).Email("email", input.Email).
		Required("phone", input.Phone).Phone("phone", input.Phone).
		Required("password", input.Password).MinLen("password", input.Password, 8)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := h.credentials.Register(request.Context(), RegisterInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
		Phone:     input.Phone,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, authResultPayload(result))
}

// login handles POST /auth/login.
func (h *AuthHandler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("email", input.Email).Required("password", input.Password)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := h.credentials.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, authResultPayload(result))
}

// me handles GET /auth/me.
func (h *AuthHandler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := h.accounts.GetSelf(request.Context(), claims.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

// changePassword handles POST /auth/user/password/change.
func (h *AuthHandler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("currentPassword", input.CurrentPassword).
		Required("newPassword", input.NewPassword).MinLen("newPassword", input.NewPassword, 8)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.credentials.ChangePassword(request.Context(), claims.ID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password changed successfully")
}

// requestPasswordReset handles POST /auth/password/reset-request.
func (h *AuthHandler) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input requestPasswordResetRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("email", input.Email).Email("email", input.Email)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.credentials.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "If this email is registered, a reset link has been sent.")
}

// resetPassword handles POST /auth/password/reset.
func (h *AuthHandler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("token", input.Token).
		Required("password", input.Password).MinLen("password", input.Password, 8)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.credentials.ConsumePasswordReset(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password updated successfully")
}

// sendEmailVerification handles POST /auth/verify/email/send.
func (h *AuthHandler) sendEmailVerification(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.verification.SendEmailVerification(request.Context(), claims.ID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Verification email sent")
}

// confirmEmailVerification handles GET /auth/verify/email/confirm?token=....
func (h *AuthHandler) confirmEmailVerification(writer http.ResponseWriter, request *http.Request) {
	token := request.URL.Query().Get("token")
	if token == "" {
		respond.Error(writer, request, validate.RequiredError("token", "is required"))
		return
	}

	if err := h.verification.ConfirmEmailVerification(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Email verified successfully")
}

// sendPhoneVerification handles POST /auth/verify/phone/send.
func (h *AuthHandler) sendPhoneVerification(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.verification.SendPhoneVerification(request.Context(), claims.ID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Verification code sent")
}

// confirmPhoneVerification handles POST /auth/verify/phone/verify.
func (h *AuthHandler) confirmPhoneVerification(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input confirmPhoneRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("code", input.Code)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.verification.ConfirmPhoneVerification(request.Context(), claims.ID, input.Code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Phone verified successfully")
}

// authResultPayload shapes an [AuthResult] into the response body for
// register/login.
func authResultPayload(result AuthResult) map[string]any {
	return map[string]any{
		"accessToken": result.AccessToken,
		"user":        result.User,
	}
}
