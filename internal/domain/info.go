package domain

import "time"

// Info is the resolved value of a Command.
type Info interface {
	isInfo()
}

type URLInfo struct {
	URL         string
	Host        string
	Title       string
	Description string
}

type Tweet struct {
	ID            uint64
	CreatedAt     time.Time
	FavoriteCount int
	Text          string
	User          *TwitterUser
	Quote         *Tweet
	Retweet       *Tweet
}

type TwitterUser struct {
	ID             uint64
	CreatedAt      time.Time
	Name           string
	ScreenName     string
	URL            string
	Verified       bool
	Description    string
	Location       string
	StatusesCount  int
	FollowersCount int
	FriendsCount   int
	Status         *Tweet
}

type Movie struct {
	Title      string
	Year       string
	Type       string
	Plot       string
	Rated      string
	Released   string
	Runtime    string
	Genre      string
	Director   string
	IMDbRating string
	IMDbVotes  string
	IMDbID     string
	Metascore  string
}

type Video struct {
	ID          string
	Title       string
	Description string
	Channel     string
	PublishedAt time.Time
	Duration    time.Duration
	Views       uint64
	Likes       uint64
}

type Answer struct {
	Query string
	Text  string
}

func (URLInfo) isInfo()     {}
func (Tweet) isInfo()       {}
func (TwitterUser) isInfo() {}
func (Movie) isInfo()       {}
func (Video) isInfo()       {}
func (Answer) isInfo()      {}
