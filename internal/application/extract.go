package application

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/bnema/annoirc/internal/domain"
	"mvdan.cc/xurls/v2"
)

var (
	urlPattern    = xurls.Relaxed()
	imdbIDPattern = regexp.MustCompile(`^tt\d{7,10}$`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Twitter paths that look like a screen name but are site pages.
var reservedTwitterPaths = map[string]struct{}{
	"home": {}, "explore": {}, "search": {}, "settings": {}, "notifications": {},
	"messages": {}, "i": {}, "login": {}, "signup": {}, "tos": {}, "privacy": {},
}

// ExtractCommands finds the commands in one chat message. An explicit
// prefixed command wins over links. Results are distinct and capped at
// cfg.Commands.MaxPerMessage, in order of appearance.
func ExtractCommands(text string, cfg *domain.Config) []domain.Command {
	limit := cfg.Commands.MaxPerMessage
	if limit < 1 {
		return nil
	}

	if command, ok := parseExplicit(text, cfg); ok {
		return []domain.Command{command}
	}

	commands := make([]domain.Command, 0, limit)
	seen := make(map[domain.Command]struct{}, limit)
	for _, candidate := range urlPattern.FindAllString(text, -1) {
		link, ok := parseLink(candidate)
		if !ok {
			continue
		}

		command := routeLink(link, cfg)
		if _, dup := seen[command]; dup {
			continue
		}
		seen[command] = struct{}{}
		commands = append(commands, command)

		if len(commands) == limit {
			break
		}
	}

	return commands
}

func parseExplicit(text string, cfg *domain.Config) (domain.Command, bool) {
	prefix := cfg.Commands.Prefix
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return nil, false
	}

	name, arg, _ := strings.Cut(text[len(prefix):], " ")
	arg = whitespace.ReplaceAllString(strings.TrimSpace(arg), " ")
	if arg == "" {
		return nil, false
	}

	switch strings.ToLower(name) {
	case "imdb":
		if cfg.OMDb.APIKey == "" {
			return nil, false
		}
		if imdbIDPattern.MatchString(arg) {
			return domain.MovieCommand{Type: domain.MovieKindIMDbID, Query: arg}, true
		}
		return domain.MovieCommand{Type: domain.MovieKindAny, Query: arg}, true
	case "movie", "film":
		if cfg.OMDb.APIKey == "" {
			return nil, false
		}
		return domain.MovieCommand{Type: domain.MovieKindMovie, Query: arg}, true
	case "tv", "series":
		if cfg.OMDb.APIKey == "" {
			return nil, false
		}
		return domain.MovieCommand{Type: domain.MovieKindSeries, Query: arg}, true
	case "wa", "calc":
		if cfg.Wolfram.AppID == "" {
			return nil, false
		}
		return domain.ComputeCommand{Query: arg}, true
	default:
		return nil, false
	}
}

func parseLink(text string) (*url.URL, bool) {
	if !strings.Contains(text, "://") {
		if strings.Contains(text, "@") || strings.HasPrefix(text, "mailto:") {
			return nil, false
		}
		text = "http://" + text
	}

	link, err := url.Parse(text)
	if err != nil {
		return nil, false
	}
	if link.Scheme != "http" && link.Scheme != "https" {
		return nil, false
	}
	if link.Hostname() == "" || link.User != nil {
		return nil, false
	}

	link.Host = strings.ToLower(link.Host)
	link.Fragment = ""
	link.RawFragment = ""
	return link, true
}

func routeLink(link *url.URL, cfg *domain.Config) domain.Command {
	host := strings.TrimPrefix(link.Hostname(), "www.")

	if cfg.YouTube.APIKey != "" {
		if id, ok := youTubeID(host, link); ok {
			return domain.VideoCommand{ID: id}
		}
	}

	if cfg.Twitter.BearerToken != "" {
		if command, ok := twitterCommand(host, link); ok {
			return command
		}
	}

	if cfg.OMDb.APIKey != "" {
		if id, ok := imdbID(host, link); ok {
			return domain.MovieCommand{Type: domain.MovieKindIMDbID, Query: id}
		}
	}

	return domain.URLCommand{URL: link.String()}
}

func pathSegments(link *url.URL) []string {
	trimmed := strings.Trim(link.EscapedPath(), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func youTubeID(host string, link *url.URL) (string, bool) {
	segments := pathSegments(link)

	switch host {
	case "youtu.be":
		if len(segments) >= 1 {
			return videoID(segments[0])
		}
	case "youtube.com", "m.youtube.com":
		if len(segments) == 0 {
			return "", false
		}
		switch segments[0] {
		case "shorts", "embed", "live":
			if len(segments) >= 2 {
				return videoID(segments[1])
			}
		case "watch":
			return videoID(link.Query().Get("v"))
		}
	}

	return "", false
}

func videoID(candidate string) (string, bool) {
	if len(candidate) != 11 {
		return "", false
	}
	for _, r := range candidate {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return "", false
		}
	}
	return candidate, true
}

func twitterCommand(host string, link *url.URL) (domain.Command, bool) {
	switch host {
	case "twitter.com", "mobile.twitter.com", "x.com":
	default:
		return nil, false
	}

	segments := pathSegments(link)
	switch {
	case len(segments) == 1:
		if _, reserved := reservedTwitterPaths[strings.ToLower(segments[0])]; reserved {
			return nil, false
		}
		return domain.TwitterUserCommand{ScreenName: strings.ToLower(segments[0])}, true
	case len(segments) >= 3 && segments[1] == "status":
		id, err := strconv.ParseUint(segments[2], 10, 64)
		if err != nil {
			return nil, false
		}
		return domain.TweetCommand{ID: id}, true
	}

	return nil, false
}

func imdbID(host string, link *url.URL) (string, bool) {
	if host != "imdb.com" && host != "m.imdb.com" {
		return "", false
	}

	segments := pathSegments(link)
	if len(segments) >= 2 && segments[0] == "title" && imdbIDPattern.MatchString(segments[1]) {
		return segments[1], true
	}
	return "", false
}
