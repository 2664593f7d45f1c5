package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/ports"
)

const DefaultTwitterBaseURL = "https://api.twitter.com/1.1/"

// TwitterFetcher looks up tweets and profiles through the v1.1 REST API with
// an application bearer token. Once the API reports an exhausted window,
// requests fail locally until the window resets.
type TwitterFetcher struct {
	client  *Client
	baseURL string
	clock   ports.Clock

	mu        sync.Mutex
	remaining int
	reset     time.Time
}

var _ ports.TwitterFetcher = (*TwitterFetcher)(nil)

func NewTwitterFetcher(client *Client, baseURL string, clock ports.Clock) *TwitterFetcher {
	if baseURL == "" {
		baseURL = DefaultTwitterBaseURL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &TwitterFetcher{client: client, baseURL: baseURL, clock: clock, remaining: -1}
}

type apiTweet struct {
	ID              uint64    `json:"id"`
	CreatedAt       string    `json:"created_at"`
	FavoriteCount   int       `json:"favorite_count"`
	Text            string    `json:"text"`
	FullText        string    `json:"full_text"`
	User            *apiUser  `json:"user"`
	QuotedStatus    *apiTweet `json:"quoted_status"`
	RetweetedStatus *apiTweet `json:"retweeted_status"`
}

type apiUser struct {
	ID             uint64    `json:"id"`
	CreatedAt      string    `json:"created_at"`
	Name           string    `json:"name"`
	ScreenName     string    `json:"screen_name"`
	URL            *string   `json:"url"`
	Verified       bool      `json:"verified"`
	Description    *string   `json:"description"`
	Location       *string   `json:"location"`
	StatusesCount  int       `json:"statuses_count"`
	FollowersCount int       `json:"followers_count"`
	FriendsCount   int       `json:"friends_count"`
	Status         *apiTweet `json:"status"`
}

func (f *TwitterFetcher) FetchTweet(ctx context.Context, id uint64) (domain.Tweet, error) {
	query := url.Values{}
	query.Set("id", strconv.FormatUint(id, 10))
	query.Set("tweet_mode", "extended")

	var payload apiTweet
	if err := f.call(ctx, "statuses/show.json", query, &payload); err != nil {
		return domain.Tweet{}, fmt.Errorf("fetch tweet %d: %w", id, err)
	}
	return *payload.toDomain(), nil
}

func (f *TwitterFetcher) FetchUser(ctx context.Context, screenName string) (domain.TwitterUser, error) {
	query := url.Values{}
	query.Set("screen_name", screenName)
	query.Set("tweet_mode", "extended")

	var payload apiUser
	if err := f.call(ctx, "users/show.json", query, &payload); err != nil {
		return domain.TwitterUser{}, fmt.Errorf("fetch twitter user %q: %w", screenName, err)
	}
	return *payload.toDomain(), nil
}

func (f *TwitterFetcher) call(ctx context.Context, path string, query url.Values, out any) error {
	token := f.client.config.Current().Twitter.BearerToken
	if token == "" {
		return domain.ErrNotConfigured
	}
	if f.limited() {
		return domain.ErrRateLimited
	}

	endpoint, err := buildAPIURL(f.baseURL, path)
	if err != nil {
		return err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	resp, err := f.client.getJSON(ctx, endpoint, query, header, out)
	if resp != nil {
		f.track(resp.Header)
	}
	return err
}

func (f *TwitterFetcher) limited() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining == 0 && f.clock.Now().Before(f.reset)
}

func (f *TwitterFetcher) track(header http.Header) {
	remaining, err := strconv.Atoi(header.Get("X-Rate-Limit-Remaining"))
	if err != nil {
		return
	}
	reset, err := strconv.ParseInt(header.Get("X-Rate-Limit-Reset"), 10, 64)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.remaining = remaining
	f.reset = time.Unix(reset, 0)
}

func parseTwitterTime(value string) time.Time {
	parsed, err := time.Parse(time.RubyDate, value)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

func (t *apiTweet) toDomain() *domain.Tweet {
	if t == nil {
		return nil
	}
	text := t.FullText
	if text == "" {
		text = t.Text
	}
	return &domain.Tweet{
		ID:            t.ID,
		CreatedAt:     parseTwitterTime(t.CreatedAt),
		FavoriteCount: t.FavoriteCount,
		Text:          text,
		User:          t.User.toDomain(),
		Quote:         t.QuotedStatus.toDomain(),
		Retweet:       t.RetweetedStatus.toDomain(),
	}
}

func (u *apiUser) toDomain() *domain.TwitterUser {
	if u == nil {
		return nil
	}
	return &domain.TwitterUser{
		ID:             u.ID,
		CreatedAt:      parseTwitterTime(u.CreatedAt),
		Name:           u.Name,
		ScreenName:     u.ScreenName,
		URL:            deref(u.URL),
		Verified:       u.Verified,
		Description:    deref(u.Description),
		Location:       deref(u.Location),
		StatusesCount:  u.StatusesCount,
		FollowersCount: u.FollowersCount,
		FriendsCount:   u.FriendsCount,
		Status:         u.Status.toDomain(),
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
