package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withYouTubeKey(cfg *domain.Config) {
	cfg.YouTube.APIKey = "yt-key"
	cfg.YouTube.Lang = "en"
}

func TestFetchVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/videos", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "dQw4w9WgXcQ", query.Get("id"))
		assert.Equal(t, "yt-key", query.Get("key"))
		assert.Equal(t, "en", query.Get("hl"))
		assert.Equal(t, "snippet,contentDetails,statistics", query.Get("part"))
		_, _ = w.Write([]byte(`{"items":[{
		  "id": "dQw4w9WgXcQ",
		  "snippet": {
		    "title": "Original title",
		    "description": "Original description",
		    "channelTitle": "Rick Astley",
		    "publishedAt": "2009-10-25T06:57:33Z",
		    "localized": {"title": "Never Gonna Give You Up", "description": "The official video"}
		  },
		  "contentDetails": {"duration": "PT3M33S"},
		  "statistics": {"viewCount": "1500000000", "likeCount": "17000000"}
		}]}`))
	}))
	t.Cleanup(server.Close)

	video, err := NewVideoFetcher(NewClient(testConfig(withYouTubeKey)), server.URL+"/youtube/v3/").
		FetchVideo(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, domain.Video{
		ID:          "dQw4w9WgXcQ",
		Title:       "Never Gonna Give You Up",
		Description: "The official video",
		Channel:     "Rick Astley",
		PublishedAt: time.Date(2009, 10, 25, 6, 57, 33, 0, time.UTC),
		Duration:    3*time.Minute + 33*time.Second,
		Views:       1500000000,
		Likes:       17000000,
	}, video)
}

func TestFetchVideoWithoutItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	t.Cleanup(server.Close)

	_, err := NewVideoFetcher(NewClient(testConfig(withYouTubeKey)), server.URL+"/").
		FetchVideo(context.Background(), "aaaaaaaaaaa")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchVideoWithoutKeyIsNotConfigured(t *testing.T) {
	_, err := NewVideoFetcher(NewClient(testConfig()), "").FetchVideo(context.Background(), "aaaaaaaaaaa")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{in: "PT3M33S", want: 3*time.Minute + 33*time.Second, ok: true},
		{in: "PT1H", want: time.Hour, ok: true},
		{in: "P1DT2H3M4S", want: 26*time.Hour + 3*time.Minute + 4*time.Second, ok: true},
		{in: "P1W", want: 7 * 24 * time.Hour, ok: true},
		{in: "PT0S", want: 0, ok: true},
		{in: "PT1.5S", want: 1500 * time.Millisecond, ok: true},
		{in: "P", ok: false},
		{in: "PT", ok: false},
		{in: "3M", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseISODuration(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
