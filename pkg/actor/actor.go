// Package actor identifies the point-of-sale user on whose behalf a request runs.
//
// The actor is resolved once by HTTP middleware from the access token and is then
// passed explicitly into the allocation service; nothing below the handler layer
// reads it back from the context.
package actor

import (
	"context"
	"fmt"
)

// Actor represents the authenticated user performing a request.
type Actor struct {
	// ID is the user ID in the stock ledger (owner of POS sessions)
	ID int64 `json:"id"`

	// ScopeID is the company the user is currently working in. Lots owned by
	// another company are invisible to this actor; lots without a company are shared.
	ScopeID int64 `json:"scope_id"`

	Email string `json:"email"`

	Permissions []string `json:"permissions,omitempty"`
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a == nil {
		return "anonymous"
	}
	return fmt.Sprintf("user %d (%s) in company %d", a.ID, a.Email, a.ScopeID)
}

// contextKey is the type for context keys to avoid collisions
type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}
