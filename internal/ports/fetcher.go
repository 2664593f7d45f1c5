package ports

import (
	"context"

	"github.com/bnema/annoirc/internal/domain"
)

type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (domain.URLInfo, error)
}

type TwitterFetcher interface {
	FetchTweet(ctx context.Context, id uint64) (domain.Tweet, error)
	FetchUser(ctx context.Context, screenName string) (domain.TwitterUser, error)
}

type MovieFetcher interface {
	FetchMovie(ctx context.Context, kind domain.MovieKind, query string) (domain.Movie, error)
}

type VideoFetcher interface {
	FetchVideo(ctx context.Context, id string) (domain.Video, error)
}

type ComputeFetcher interface {
	Compute(ctx context.Context, query string) (domain.Answer, error)
}

// Fetchers groups the data sources the dispatcher routes commands to. A nil
// member disables the matching command kinds.
type Fetchers struct {
	Pages   PageFetcher
	Twitter TwitterFetcher
	Movies  MovieFetcher
	Videos  VideoFetcher
	Compute ComputeFetcher
}
