// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

package auth

import (
	"net/http"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "auramatch_session"

// NewSessionCookie builds the cookie that carries token to the client.
// The cookie is HTTP-only so the token is never exposed to scripts, and it has
// no expiry of its own: validity is tracked server side.
func NewSessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie builds a cookie that instructs the client to drop the
// session cookie.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

// SessionTokenFromRequest returns the session token carried by r, or "" when absent.
func SessionTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
