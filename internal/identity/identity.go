// Package identity exposes the authenticated caller of the current request.
//
// The authentication middleware stores a Claims value in the request context;
// the Accessor reads it back. Calling the Accessor with a context that never
// went through the middleware is a programming error and panics.
package identity

import (
	"context"
	"errors"
	"slices"
)

// ErrNoRequestContext is the panic value raised when no claims were attached to the context
var ErrNoRequestContext = errors.New("identity: context carries no request claims")

// Claims is the part of a verified token the service relies on
type Claims struct {
	Subject  string
	Email    string
	HasEmail bool
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying claims
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims attached to ctx
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(Claims)
	return claims, ok
}

// Accessor answers questions about the caller of the current request
type Accessor struct {
	allowEmailsCreateTenant []string
}

// NewAccessor creates an Accessor; allowEmailsCreateTenant lists who may register tenants
func NewAccessor(allowEmailsCreateTenant []string) *Accessor {
	return &Accessor{
		allowEmailsCreateTenant: slices.Clone(allowEmailsCreateTenant),
	}
}

// HasUserEmail reports whether the caller's claims contain an e-mail
func (a *Accessor) HasUserEmail(ctx context.Context) bool {
	return mustClaims(ctx).HasEmail
}

// GetUserEmail returns the caller's e-mail claim, or "" when there is none
func (a *Accessor) GetUserEmail(ctx context.Context) string {
	claims := mustClaims(ctx)
	if !claims.HasEmail {
		return ""
	}
	return claims.Email
}

// CanRegisterTenant reports whether the caller's e-mail is on the tenant creation allow-list
func (a *Accessor) CanRegisterTenant(ctx context.Context) bool {
	return slices.Contains(a.allowEmailsCreateTenant, a.GetUserEmail(ctx))
}

func mustClaims(ctx context.Context) Claims {
	if ctx == nil {
		panic(ErrNoRequestContext)
	}
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		panic(ErrNoRequestContext)
	}
	return claims
}
