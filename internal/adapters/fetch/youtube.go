package fetch

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
)

const DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3/"

// VideoFetcher reads video metadata from the YouTube Data API.
type VideoFetcher struct {
	client  *Client
	baseURL string
}

var _ ports.VideoFetcher = (*VideoFetcher)(nil)

func NewVideoFetcher(client *Client, baseURL string) *VideoFetcher {
	if baseURL == "" {
		baseURL = DefaultYouTubeBaseURL
	}
	return &VideoFetcher{client: client, baseURL: baseURL}
}

type youtubeResponse struct {
	Items []youtubeItem `json:"items"`
}

type youtubeItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
		Localized    struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"localized"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
		LikeCount string `json:"likeCount"`
	} `json:"statistics"`
}

func (f *VideoFetcher) FetchVideo(ctx context.Context, id string) (domain.Video, error) {
	cfg := f.client.config.Current().YouTube
	if cfg.APIKey == "" {
		return domain.Video{}, domain.ErrNotConfigured
	}

	endpoint, err := buildAPIURL(f.baseURL, "videos")
	if err != nil {
		return domain.Video{}, err
	}
	params := url.Values{}
	params.Set("id", id)
	params.Set("key", cfg.APIKey)
	params.Set("part", "snippet,contentDetails,statistics")
	if cfg.Lang != "" {
		params.Set("hl", cfg.Lang)
	}

	var payload youtubeResponse
	if _, err := f.client.getJSON(ctx, endpoint, params, nil, &payload); err != nil {
		return domain.Video{}, fmt.Errorf("fetch video %s: %w", id, err)
	}
	if len(payload.Items) == 0 {
		return domain.Video{}, fmt.Errorf("fetch video %s: %w", id, domain.ErrNotFound)
	}

	item := payload.Items[0]
	title := item.Snippet.Localized.Title
	if title == "" {
		title = item.Snippet.Title
	}
	description := item.Snippet.Localized.Description
	if description == "" {
		description = item.Snippet.Description
	}
	published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	duration, _ := parseISODuration(item.ContentDetails.Duration)
	views, _ := strconv.ParseUint(item.Statistics.ViewCount, 10, 64)
	likes, _ := strconv.ParseUint(item.Statistics.LikeCount, 10, 64)

	return domain.Video{
		ID:          item.ID,
		Title:       title,
		Description: description,
		Channel:     item.Snippet.ChannelTitle,
		PublishedAt: published,
		Duration:    duration,
		Views:       views,
		Likes:       likes,
	}, nil
}

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// parseISODuration handles the week/day/time subset of ISO 8601 durations the
// API emits, e.g. PT1H2M3S or P1DT4M.
func parseISODuration(value string) (time.Duration, error) {
	match := isoDurationPattern.FindStringSubmatch(value)
	if match == nil || value == "P" || value == "PT" {
		return 0, fmt.Errorf("invalid duration %q", value)
	}

	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute}
	var total time.Duration
	for i, unit := range units {
		if match[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(match[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", value, err)
		}
		total += time.Duration(n) * unit
	}
	if match[5] != "" {
		seconds, err := strconv.ParseFloat(match[5], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", value, err)
		}
		total += time.Duration(seconds * float64(time.Second))
	}
	return total, nil
}
