// Package identity verifies federated sign-in tokens.
package identity

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleVerifier validates Google ID tokens issued for one client id.
type GoogleVerifier struct {
	clientID string
	validate validateFunc
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*ports.FederatedIdentity, error) {
	p, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("google token: %w: %v", domain.ErrInvalidCredentials, err)
	}
	email, _ := p.Claims["email"].(string)
	verified, _ := p.Claims["email_verified"].(bool)
	name, _ := p.Claims["name"].(string)
	return &ports.FederatedIdentity{
		Subject:       p.Subject,
		Email:         email,
		EmailVerified: verified,
		Name:          name,
	}, nil
}
