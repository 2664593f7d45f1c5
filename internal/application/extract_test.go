package application

import (
	"testing"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/stretchr/testify/assert"
)

func fullyConfigured() *domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Twitter.BearerToken = "bearer"
	cfg.OMDb.APIKey = "omdb"
	cfg.YouTube.APIKey = "youtube"
	cfg.Wolfram.AppID = "wolfram"
	return cfg
}

func TestExtractCommands(t *testing.T) {
	tests := []struct {
		name string
		text string
		cfg  *domain.Config
		want []domain.Command
	}{
		{
			name: "duplicate links collapse",
			text: "check http://example.com and http://example.com",
			cfg:  domain.DefaultConfig(),
			want: []domain.Command{domain.URLCommand{URL: "http://example.com"}},
		},
		{
			name: "no links",
			text: "hello there, nothing to see",
			cfg:  domain.DefaultConfig(),
			want: []domain.Command{},
		},
		{
			name: "capped at max per message",
			text: "http://a.example http://b.example https://c.example/x http://d.example",
			cfg:  domain.DefaultConfig(),
			want: []domain.Command{
				domain.URLCommand{URL: "http://a.example"},
				domain.URLCommand{URL: "http://b.example"},
				domain.URLCommand{URL: "https://c.example/x"},
			},
		},
		{
			name: "scheme-less link gets http",
			text: "see golang.org/doc for details",
			cfg:  domain.DefaultConfig(),
			want: []domain.Command{domain.URLCommand{URL: "http://golang.org/doc"}},
		},
		{
			name: "fragment and host case are normalized",
			text: "https://Example.COM/Path#top and https://example.com/Path",
			cfg:  domain.DefaultConfig(),
			want: []domain.Command{domain.URLCommand{URL: "https://example.com/Path"}},
		},
		{
			name: "email addresses are not links",
			text: "mail me at someone@example.com",
			cfg:  domain.DefaultConfig(),
			want: []domain.Command{},
		},
		{
			name: "youtube without key stays a link",
			text: "https://youtu.be/dQw4w9WgXcQ",
			cfg:  domain.DefaultConfig(),
			want: []domain.Command{domain.URLCommand{URL: "https://youtu.be/dQw4w9WgXcQ"}},
		},
		{
			name: "youtube forms share one video",
			text: "https://youtu.be/dQw4w9WgXcQ https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=3 https://youtube.com/shorts/abcdefghijk",
			cfg:  fullyConfigured(),
			want: []domain.Command{
				domain.VideoCommand{ID: "dQw4w9WgXcQ"},
				domain.VideoCommand{ID: "abcdefghijk"},
			},
		},
		{
			name: "malformed youtube id stays a link",
			text: "https://youtu.be/short",
			cfg:  fullyConfigured(),
			want: []domain.Command{domain.URLCommand{URL: "https://youtu.be/short"}},
		},
		{
			name: "tweets and profiles",
			text: "https://twitter.com/jack/status/20 https://x.com/Golang https://twitter.com/explore",
			cfg:  fullyConfigured(),
			want: []domain.Command{
				domain.TweetCommand{ID: 20},
				domain.TwitterUserCommand{ScreenName: "golang"},
				domain.URLCommand{URL: "https://twitter.com/explore"},
			},
		},
		{
			name: "imdb title",
			text: "https://www.imdb.com/title/tt0078748/",
			cfg:  fullyConfigured(),
			want: []domain.Command{domain.MovieCommand{Type: domain.MovieKindIMDbID, Query: "tt0078748"}},
		},
		{
			name: "explicit movie search",
			text: "!movie   Alien  ",
			cfg:  fullyConfigured(),
			want: []domain.Command{domain.MovieCommand{Type: domain.MovieKindMovie, Query: "Alien"}},
		},
		{
			name: "explicit imdb id",
			text: "!imdb tt0078748",
			cfg:  fullyConfigured(),
			want: []domain.Command{domain.MovieCommand{Type: domain.MovieKindIMDbID, Query: "tt0078748"}},
		},
		{
			name: "explicit series search",
			text: "!tv The  Wire",
			cfg:  fullyConfigured(),
			want: []domain.Command{domain.MovieCommand{Type: domain.MovieKindSeries, Query: "The Wire"}},
		},
		{
			name: "explicit computation wins over links",
			text: "!wa distance to http://moon.example",
			cfg:  fullyConfigured(),
			want: []domain.Command{domain.ComputeCommand{Query: "distance to http://moon.example"}},
		},
		{
			name: "explicit command without source falls back to links",
			text: "!wa http://example.com",
			cfg:  domain.DefaultConfig(),
			want: []domain.Command{domain.URLCommand{URL: "http://example.com"}},
		},
		{
			name: "unknown command",
			text: "!weather paris",
			cfg:  fullyConfigured(),
			want: []domain.Command{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCommands(tt.text, tt.cfg))
		})
	}
}

func TestExtractCommandsDisabledByZeroLimit(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Commands.MaxPerMessage = 0

	assert.Empty(t, ExtractCommands("http://example.com", cfg))
}
