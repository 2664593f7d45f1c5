package domain

import "strconv"

type CommandKind string

const (
	CommandKindURL         CommandKind = "url"
	CommandKindMovie       CommandKind = "movie"
	CommandKindVideo       CommandKind = "video"
	CommandKindCompute     CommandKind = "compute"
	CommandKindTweet       CommandKind = "tweet"
	CommandKindTwitterUser CommandKind = "twitter_user"
)

// Command is one resolvable unit of work. Implementations are comparable
// values so a Command can be used directly as a map key.
type Command interface {
	Kind() CommandKind
	String() string
	isCommand()
}

type URLCommand struct {
	URL string
}

func (URLCommand) Kind() CommandKind { return CommandKindURL }
func (c URLCommand) String() string  { return "url:" + c.URL }
func (URLCommand) isCommand()        {}

type MovieKind string

const (
	MovieKindAny    MovieKind = "any"
	MovieKindMovie  MovieKind = "movie"
	MovieKindSeries MovieKind = "series"
	MovieKindIMDbID MovieKind = "imdb_id"
)

type MovieCommand struct {
	Type  MovieKind
	Query string
}

func (MovieCommand) Kind() CommandKind { return CommandKindMovie }
func (c MovieCommand) String() string {
	return "movie:" + string(c.Type) + ":" + c.Query
}
func (MovieCommand) isCommand() {}

type VideoCommand struct {
	ID string
}

func (VideoCommand) Kind() CommandKind { return CommandKindVideo }
func (c VideoCommand) String() string  { return "video:" + c.ID }
func (VideoCommand) isCommand()        {}

type ComputeCommand struct {
	Query string
}

func (ComputeCommand) Kind() CommandKind { return CommandKindCompute }
func (c ComputeCommand) String() string  { return "compute:" + c.Query }
func (ComputeCommand) isCommand()        {}

type TweetCommand struct {
	ID uint64
}

func (TweetCommand) Kind() CommandKind { return CommandKindTweet }
func (c TweetCommand) String() string  { return "tweet:" + strconv.FormatUint(c.ID, 10) }
func (TweetCommand) isCommand()        {}

type TwitterUserCommand struct {
	ScreenName string
}

func (TwitterUserCommand) Kind() CommandKind { return CommandKindTwitterUser }
func (c TwitterUserCommand) String() string  { return "twitter_user:" + c.ScreenName }
func (TwitterUserCommand) isCommand()        {}
