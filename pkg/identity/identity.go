// Package identity verifies bearer ID tokens issued by the external identity
// authority and yields the principal they vouch for.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrNoEmail      = errors.New("identity token carries no email")
)

// Principal is the verified caller.
type Principal struct {
	UID   string
	Email string
	Name  string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}
