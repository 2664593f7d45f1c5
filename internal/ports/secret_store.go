package ports

import "context"

// SecretStore resolves credential references found in configuration.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
}
