// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the Aegis API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthN/AuthZ, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/ctxkey"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify bearer tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the `sec` package's
// concrete TokenService, allowing mocks during unit testing.
type TokenVerifier interface {
	VerifyAccess(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the bearer token from the request.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>', falling back to the legacy
//     'x-access-token' header for clients that predate the Authorization scheme.
//  2. If absent, the request proceeds as anonymous — public routes decide for
//     themselves whether that's acceptable via [RequireAuth]/[RequireMinRole].
//  3. If present, parse and verify via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			tokenStr := bearerToken(request)

			if tokenStr == "" {
				next.ServeHTTP(writer, request)
				return
			}

			claims, err := verifier.VerifyAccess(tokenStr)
			if err != nil {
				respond.Error(writer, request, mapTokenError(err))
				return
			}

			ctx := context.WithValue(request.Context(), ctxkey.KeyUser, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router after [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if GetUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireMinRole blocks requests whose caller role is below min. It implies
// [RequireAuth], so routes need not mount both.
func RequireMinRole(min sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := GetUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}
			if !claims.IsAtLeast(min) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// RequireAdmin blocks requests whose caller role is below Admin.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireMinRole(sec.RoleAdmin)(next)
}

// GetUser retrieves the [*sec.AuthClaims] from the [context.Context], or nil
// for an anonymous request.
func GetUser(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

// bearerToken extracts a token from the standard Authorization header or,
// failing that, the legacy x-access-token header.
func bearerToken(request *http.Request) string {
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return request.Header.Get(constants.HeaderLegacyAccessTok)
}

// mapTokenError translates a sec token error into the taxonomy's 401/403 shape.
func mapTokenError(err error) error {
	switch err {
	case sec.ErrTokenExpired:
		return apperr.TokenExpired(http.StatusUnauthorized)
	case sec.ErrTokenWrongType:
		return apperr.TokenWrongType()
	default:
		return apperr.TokenInvalid(http.StatusUnauthorized)
	}
}
