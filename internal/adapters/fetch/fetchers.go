package fetch

import "github.com/bnema/annoirc/internal/ports"

// Endpoints overrides API base URLs. Empty fields use the public services.
type Endpoints struct {
	Twitter string
	OMDb    string
	YouTube string
	Wolfram string
}

// NewFetchers builds every fetcher on one shared HTTP client. Sources without
// credentials stay wired and report domain.ErrNotConfigured, so adding a key
// on reload enables them without a restart.
func NewFetchers(config configSource, endpoints Endpoints, clock ports.Clock) ports.Fetchers {
	client := NewClient(config)
	return ports.Fetchers{
		Pages:   NewPageFetcher(client),
		Twitter: NewTwitterFetcher(client, endpoints.Twitter, clock),
		Movies:  NewMovieFetcher(client, endpoints.OMDb),
		Videos:  NewVideoFetcher(client, endpoints.YouTube),
		Compute: NewComputeFetcher(client, endpoints.Wolfram),
	}
}
