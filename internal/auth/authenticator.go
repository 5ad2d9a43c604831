package auth

import (
	"context"

	"github.com/mmynk/spendilog/internal/models"
)

// Authenticator verifies who is calling. Trips record the authenticated user
// as their owner, so swapping the credential scheme (passwords today,
// passkeys or OAuth later) does not touch the trip and expense services.
type Authenticator interface {
	// Register creates an account for email. The credential format depends
	// on the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user owning email when credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials that do not meet the
	// implementation's requirements.
	ValidateCredential(credential string) error

	// User loads an account by ID.
	User(ctx context.Context, id string) (*models.User, error)
}
