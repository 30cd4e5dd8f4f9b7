package ports

import (
	"context"
	"io"
)

// AvatarStore stores binary objects and hands out public retrieval URLs.
type AvatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// FederatedIdentity is the verified result of a third-party sign-in.
type FederatedIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// IdentityVerifier validates tokens issued by a federated identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*FederatedIdentity, error)
}

// ResetNotifier delivers password reset links.
type ResetNotifier interface {
	SendReset(ctx context.Context, email, link string) error
}
