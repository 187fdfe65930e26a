// Package common contains shared constants and sentinel errors used across
// recipebook components.
package common

// AuthorizationHeaderName is the HTTP header carrying the access token.
const AuthorizationHeaderName = "Authorization"

// Accepted schemes in the Authorization header, e.g. "Token <jwt>".
const (
	TokenAuthScheme  = "Token"
	BearerAuthScheme = "Bearer"
)

// MaxNameLength bounds every free-text name/title column.
const MaxNameLength = 255
