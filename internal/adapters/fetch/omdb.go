package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
)

const DefaultOMDbBaseURL = "https://www.omdbapi.com/"

// MovieFetcher queries the OMDb API by IMDb id or by title.
type MovieFetcher struct {
	client  *Client
	baseURL string
}

var _ ports.MovieFetcher = (*MovieFetcher)(nil)

func NewMovieFetcher(client *Client, baseURL string) *MovieFetcher {
	if baseURL == "" {
		baseURL = DefaultOMDbBaseURL
	}
	return &MovieFetcher{client: client, baseURL: baseURL}
}

// OMDb answers 200 with Response "False" for misses, so the status alone
// does not tell success from failure.
type omdbMovie struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Type       string `json:"Type"`
	Plot       string `json:"Plot"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	IMDbRating string `json:"imdbRating"`
	IMDbVotes  string `json:"imdbVotes"`
	IMDbID     string `json:"imdbID"`
	Metascore  string `json:"Metascore"`
}

func (f *MovieFetcher) FetchMovie(ctx context.Context, kind domain.MovieKind, query string) (domain.Movie, error) {
	key := f.client.config.Current().OMDb.APIKey
	if key == "" {
		return domain.Movie{}, domain.ErrNotConfigured
	}

	params := url.Values{}
	params.Set("apikey", key)
	params.Set("plot", "short")
	switch kind {
	case domain.MovieKindIMDbID:
		params.Set("i", query)
	case domain.MovieKindMovie, domain.MovieKindSeries:
		params.Set("t", query)
		params.Set("type", string(kind))
	default:
		params.Set("t", query)
	}

	var payload omdbMovie
	if _, err := f.client.getJSON(ctx, f.baseURL, params, nil, &payload); err != nil {
		return domain.Movie{}, fmt.Errorf("fetch movie %q: %w", query, err)
	}
	if !strings.EqualFold(payload.Response, "true") {
		reason := payload.Error
		if reason == "" {
			reason = "no result"
		}
		if strings.Contains(strings.ToLower(reason), "limit") {
			return domain.Movie{}, fmt.Errorf("fetch movie %q: %w: %s", query, domain.ErrRateLimited, reason)
		}
		return domain.Movie{}, fmt.Errorf("fetch movie %q: %w: %s", query, domain.ErrNotFound, reason)
	}

	return domain.Movie{
		Title:      payload.Title,
		Year:       payload.Year,
		Type:       payload.Type,
		Plot:       omdbValue(payload.Plot),
		Rated:      omdbValue(payload.Rated),
		Released:   omdbValue(payload.Released),
		Runtime:    omdbValue(payload.Runtime),
		Genre:      omdbValue(payload.Genre),
		Director:   omdbValue(payload.Director),
		IMDbRating: omdbValue(payload.IMDbRating),
		IMDbVotes:  omdbValue(payload.IMDbVotes),
		IMDbID:     payload.IMDbID,
		Metascore:  omdbValue(payload.Metascore),
	}, nil
}

// omdbValue drops the "N/A" placeholder OMDb uses for missing fields.
func omdbValue(value string) string {
	if value == "N/A" {
		return ""
	}
	return value
}
