package domain

type MessageKind string

const (
	MessageKindPrivmsg MessageKind = "PRIVMSG"
	MessageKindInvite  MessageKind = "INVITE"
	MessageKindKick    MessageKind = "KICK"
	MessageKindOther   MessageKind = "OTHER"
)

// Message is an inbound chat event reduced to what the session acts on.
//
// For PRIVMSG, Target is the channel (or our nick) and Text the content.
// For INVITE, Target is the invited nick and Channel the channel.
// For KICK, Channel is the channel, Target the kicked nick and Text the reason.
type Message struct {
	Kind    MessageKind
	From    string
	Target  string
	Channel string
	Text    string
}
