//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks
package ai

import (
	"context"

	"github.com/mindbridge-gateway/internal/models"
)

// Client sends one prompt to the inference endpoint and returns the raw reply body.
// Implementations make a single attempt; callers treat any error as final.
type Client interface {
	Generate(ctx context.Context, req models.InferenceRequest) (string, error)
}
