package directory

import (
	"context"
	"errors"

	"reservely/models"
)

// ErrProviderNotFound is returned when the provider does not exist.
var ErrProviderNotFound = errors.New("provider not found")

// ProviderDirectory is the narrow contract over the provider profile
// store. The booking engine only needs preferences.
type ProviderDirectory interface {
	GetPreferences(ctx context.Context, providerID string) (*models.ProviderPreferences, error)
}
