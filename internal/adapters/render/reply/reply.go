// Package reply formats resolved commands as plain chat lines.
package reply

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/annoirc/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxLineBytes leaves room for the PRIVMSG prefix inside the 512 byte limit.
const MaxLineBytes = 400

const (
	hostBytes  = 30
	nameBytes  = 30
	titleBytes = 300
	textBytes  = 300
)

const timestampLayout = "2006-01-02 15:04"

const heart = "\u2764\ufe0f"

var counts = message.NewPrinter(language.English)

// Lines renders info as one or more outbound lines. Unknown values render as
// nothing.
func Lines(info domain.Info) []string {
	var lines []string
	switch v := info.(type) {
	case domain.URLInfo:
		lines = urlLines(v)
	case domain.Tweet:
		lines = tweetLines(v)
	case domain.TwitterUser:
		lines = userLines(v)
	case domain.Movie:
		lines = movieLines(v)
	case domain.Video:
		lines = videoLines(v)
	case domain.Answer:
		lines = []string{fmt.Sprintf("[Wolfram] %s = %s", Sanitize(v.Query, 100), Sanitize(v.Text, titleBytes))}
	}

	out := lines[:0]
	for _, line := range lines {
		if line = Truncate(line, MaxLineBytes); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func urlLines(info domain.URLInfo) []string {
	host := Sanitize(info.Host, hostBytes)
	title := Sanitize(info.Title, MaxLineBytes)
	if title == "" {
		return nil
	}
	lines := []string{fmt.Sprintf("[%s] %s", host, title)}
	if desc := Sanitize(info.Description, MaxLineBytes); desc != "" {
		lines = append(lines, fmt.Sprintf("[%s] %s", host, desc))
	}
	return lines
}

func tweetLines(tweet domain.Tweet) []string {
	lines := []string{formatTweet(tweet)}
	if tweet.Quote != nil {
		lines = append(lines, formatTweet(*tweet.Quote))
	}
	if tweet.Retweet != nil {
		lines = append(lines, formatTweet(*tweet.Retweet))
	}
	return lines
}

func formatTweet(tweet domain.Tweet) string {
	var b strings.Builder
	b.WriteString("[Twitter] ")
	if tweet.User != nil {
		b.WriteString(author(*tweet.User))
		b.WriteString(" ")
	}
	b.WriteString(Sanitize(tweet.Text, textBytes))
	b.WriteString(" |")
	if tweet.FavoriteCount > 0 {
		b.WriteString(" " + heart + counts.Sprintf("%d", tweet.FavoriteCount))
	}
	if !tweet.CreatedAt.IsZero() {
		b.WriteString(" " + tweet.CreatedAt.UTC().Format(timestampLayout))
	}
	return b.String()
}

func author(user domain.TwitterUser) string {
	verified := ""
	if user.Verified {
		verified = "✓"
	}
	return fmt.Sprintf("%s%s (@%s)", Sanitize(user.Name, nameBytes), verified, Sanitize(user.ScreenName, nameBytes))
}

func userLines(user domain.TwitterUser) []string {
	parts := []string{
		author(user),
		counts.Sprintf("%d Tweets, %d Followers,", user.StatusesCount, user.FollowersCount),
	}
	if desc := Sanitize(user.Description, textBytes); desc != "" {
		parts = append(parts, fmt.Sprintf("%q,", desc))
	}
	if !user.CreatedAt.IsZero() {
		parts = append(parts, user.CreatedAt.UTC().Format(timestampLayout))
	}

	lines := []string{"[Twitter] " + strings.Join(parts, " ")}
	if user.Status != nil {
		lines = append(lines, formatTweet(*user.Status))
	}
	return lines
}

func movieLines(movie domain.Movie) []string {
	heading := Sanitize(movie.Title, titleBytes)
	if movie.Year != "" {
		heading += " (" + Sanitize(movie.Year, 16) + ")"
	}
	parts := []string{heading}
	for _, field := range []string{movie.Genre, movie.Rated, movie.Runtime} {
		if value := Sanitize(field, 60); value != "" {
			parts = append(parts, value)
		}
	}
	if movie.IMDbRating != "" {
		rating := "★ " + Sanitize(movie.IMDbRating, 8) + "/10"
		if movie.IMDbVotes != "" {
			rating += " (" + Sanitize(movie.IMDbVotes, 16) + " votes)"
		}
		parts = append(parts, rating)
	}
	if movie.Director != "" {
		parts = append(parts, "dir. "+Sanitize(movie.Director, 60))
	}

	lines := []string{"[IMDb] " + strings.Join(parts, " | ")}
	if plot := Sanitize(movie.Plot, MaxLineBytes); plot != "" {
		lines = append(lines, "[IMDb] "+plot)
	}
	return lines
}

func videoLines(video domain.Video) []string {
	parts := []string{Sanitize(video.Title, titleBytes)}
	if channel := Sanitize(video.Channel, nameBytes); channel != "" {
		parts = append(parts, channel)
	}
	if video.Duration > 0 {
		parts = append(parts, formatDuration(video.Duration))
	}
	parts = append(parts, counts.Sprintf("%d views", video.Views))
	if video.Likes > 0 {
		parts = append(parts, counts.Sprintf("👍 %d", video.Likes))
	}
	if !video.PublishedAt.IsZero() {
		parts = append(parts, video.PublishedAt.UTC().Format(time.DateOnly))
	}
	return []string{"[YouTube] " + strings.Join(parts, " | ")}
}

func formatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	hours, minutes, seconds := total/3600, (total%3600)/60, total%60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
