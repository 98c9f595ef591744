package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/models"
)

// Gate turns an Authorization header into the principal it identifies.
type Gate struct {
	tokens *Service
	users  db.UserCollection
}

// NewGate creates an identity gate
func NewGate(tokens *Service, users db.UserCollection) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Resolve extracts the bearer token from authorization and loads the user it
// names. Missing, malformed, expired and orphaned credentials are all
// ErrUnauthenticated; only store failures are not. The stored role wins over
// the role in the token.
func (g *Gate) Resolve(ctx context.Context, authorization string) (*models.Principal, error) {
	if authorization == "" {
		return nil, fmt.Errorf("%w: missing credential", apperr.ErrUnauthenticated)
	}
	credential, err := g.tokens.ExtractTokenFromHeader(authorization)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	claims, err := g.tokens.ValidateToken(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}

	user, err := g.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", apperr.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	return user.Principal(), nil
}
