package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withWolframID(cfg *domain.Config) {
	cfg.Wolfram.AppID = "wa-app"
}

func TestCompute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/result", r.URL.Path)
		assert.Equal(t, "wa-app", r.URL.Query().Get("appid"))
		assert.Equal(t, "distance to the moon", r.URL.Query().Get("i"))
		_, _ = w.Write([]byte("about 384400 kilometers\n"))
	}))
	t.Cleanup(server.Close)

	answer, err := NewComputeFetcher(NewClient(testConfig(withWolframID)), server.URL+"/v1/").
		Compute(context.Background(), "distance to the moon")
	require.NoError(t, err)
	assert.Equal(t, domain.Answer{Query: "distance to the moon", Text: "about 384400 kilometers"}, answer)
}

func TestComputeWithoutShortAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
		_, _ = w.Write([]byte("No short answer available"))
	}))
	t.Cleanup(server.Close)

	_, err := NewComputeFetcher(NewClient(testConfig(withWolframID)), server.URL+"/").
		Compute(context.Background(), "meaning of life")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComputeWithoutAppIDIsNotConfigured(t *testing.T) {
	_, err := NewComputeFetcher(NewClient(testConfig()), "").Compute(context.Background(), "1+1")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestNewFetchersWiresEverySource(t *testing.T) {
	fetchers := NewFetchers(testConfig(), Endpoints{}, nil)
	assert.NotNil(t, fetchers.Pages)
	assert.NotNil(t, fetchers.Twitter)
	assert.NotNil(t, fetchers.Movies)
	assert.NotNil(t, fetchers.Videos)
	assert.NotNil(t, fetchers.Compute)
}
