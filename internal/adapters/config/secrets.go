package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
)

var errNoSecretStore = errors.New("no secret store available")

// resolveSecrets replaces every credential written as secret:<key> with the
// value stored under key.
func resolveSecrets(ctx context.Context, cfg *domain.Config, store ports.SecretStore) error {
	var errs []error
	resolve := func(field string, value *string) {
		key, ok := strings.CutPrefix(*value, secretRef)
		if !ok {
			return
		}
		if store == nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, errNoSecretStore))
			return
		}
		secret, err := store.Get(ctx, strings.TrimSpace(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return
		}
		*value = strings.TrimSpace(secret)
	}

	resolve("twitter.bearer_token", &cfg.Twitter.BearerToken)
	resolve("omdb.api_key", &cfg.OMDb.APIKey)
	resolve("youtube.api_key", &cfg.YouTube.APIKey)
	resolve("wolfram.app_id", &cfg.Wolfram.AppID)

	for _, name := range cfg.NetworkNames() {
		network := cfg.Networks[name]
		resolve(fmt.Sprintf("network.%s.password", name), &network.Password)
		cfg.Networks[name] = network
	}

	if len(errs) > 0 {
		return fmt.Errorf("resolve secrets: %w", errors.Join(errs...))
	}
	return nil
}
