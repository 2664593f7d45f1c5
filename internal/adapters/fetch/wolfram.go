package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
)

const DefaultWolframBaseURL = "https://api.wolframalpha.com/v1/"

const maxAnswerBytes = 4 << 10

// ComputeFetcher asks the Wolfram|Alpha short answers API.
type ComputeFetcher struct {
	client  *Client
	baseURL string
}

var _ ports.ComputeFetcher = (*ComputeFetcher)(nil)

func NewComputeFetcher(client *Client, baseURL string) *ComputeFetcher {
	if baseURL == "" {
		baseURL = DefaultWolframBaseURL
	}
	return &ComputeFetcher{client: client, baseURL: baseURL}
}

func (f *ComputeFetcher) Compute(ctx context.Context, query string) (domain.Answer, error) {
	appID := f.client.config.Current().Wolfram.AppID
	if appID == "" {
		return domain.Answer{}, domain.ErrNotConfigured
	}

	endpoint, err := buildAPIURL(f.baseURL, "result")
	if err != nil {
		return domain.Answer{}, err
	}
	params := url.Values{}
	params.Set("appid", appID)
	params.Set("i", query)

	resp, err := f.client.get(ctx, endpoint, params, nil)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("compute %q: %w", query, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 501 means the query was understood but has no short answer.
	if resp.StatusCode == http.StatusNotImplemented {
		return domain.Answer{}, fmt.Errorf("compute %q: %w", query, domain.ErrNotFound)
	}
	if err := statusError(resp); err != nil {
		return domain.Answer{}, fmt.Errorf("compute %q: %w", query, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerBytes))
	if err != nil {
		return domain.Answer{}, fmt.Errorf("read answer: %w", err)
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return domain.Answer{}, fmt.Errorf("compute %q: %w", query, domain.ErrNotFound)
	}
	return domain.Answer{Query: query, Text: text}, nil
}
