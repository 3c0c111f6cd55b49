package irc

import "time"

// Names of the events the client emits besides raw commands and reply names.
const (
	EventLineReceived    = "lineReceived"
	EventUnknownLine     = "unknownLine"
	EventConnected       = "connected"
	EventJoined          = "joined"
	EventParting         = "parting"
	EventTopic           = "topic"
	EventNames           = "names"
	EventPinged          = "pinged"
	EventNicknameInUse   = "nicknameInUse"
	EventMessage         = "message"
	EventNotice          = "notice"
	EventDisconnecting   = "disconnecting"
	EventDisconnected    = "disconnected"
	EventReconnecting    = "reconnecting"
	EventReconnectFailed = "reconnectFailed"
)

// Event is anything delivered to callbacks. Name is the key callbacks are
// registered under.
type Event interface {
	Name() string
}

// LineEvent is emitted for every parsed line.
type LineEvent struct {
	Msg *Message
}

func (*LineEvent) Name() string { return EventLineReceived }

// CommandEvent is emitted for every parsed line under its raw command.
type CommandEvent struct {
	Msg *Message
}

func (e *CommandEvent) Name() string { return e.Msg.Command }

// ReplyEvent is emitted for a cataloged numeric under its reply name.
type ReplyEvent struct {
	Reply string
	Msg   *Message
}

func (e *ReplyEvent) Name() string { return e.Reply }

// UnknownLineEvent carries a line that did not parse.
type UnknownLineEvent struct {
	Raw string
	Err error
}

func (*UnknownLineEvent) Name() string { return EventUnknownLine }

// ConnectedEvent fires once the transport is up and registration was sent.
type ConnectedEvent struct {
	Addr string
}

func (*ConnectedEvent) Name() string { return EventConnected }

type JoinedEvent struct {
	Channel string
}

func (*JoinedEvent) Name() string { return EventJoined }

type PartingEvent struct {
	Channels []string
}

func (*PartingEvent) Name() string { return EventParting }

// TopicEvent carries the topic of Channel; Topic is empty for RPL_NOTOPIC.
type TopicEvent struct {
	Channel string
	Topic   string
}

func (*TopicEvent) Name() string { return EventTopic }

// NamesEvent carries every nickname collected for Channel.
type NamesEvent struct {
	Channel string
	Names   []string
}

func (*NamesEvent) Name() string { return EventNames }

type PingedEvent struct {
	Token string
}

func (*PingedEvent) Name() string { return EventPinged }

// NicknameInUseEvent reports ERR_NICKNAMEINUSE. Picking another nick is up
// to the callback.
type NicknameInUseEvent struct {
	Nick string
}

func (*NicknameInUseEvent) Name() string { return EventNicknameInUse }

// MessageEvent is a PRIVMSG.
type MessageEvent struct {
	Source string
	Target string
	Text   string
}

func (*MessageEvent) Name() string { return EventMessage }

// NoticeEvent is a NOTICE.
type NoticeEvent struct {
	Source string
	Target string
	Text   string
}

func (*NoticeEvent) Name() string { return EventNotice }

type DisconnectingEvent struct {
	Reason string
	Err    error
}

func (*DisconnectingEvent) Name() string { return EventDisconnecting }

type DisconnectedEvent struct {
	Err error
}

func (*DisconnectedEvent) Name() string { return EventDisconnected }

// ReconnectingEvent precedes each reconnect attempt. Attempt is 1-based.
type ReconnectingEvent struct {
	Attempt int
}

func (*ReconnectingEvent) Name() string { return EventReconnecting }

// ReconnectFailedEvent is emitted when the reconnect budget runs out.
type ReconnectFailedEvent struct {
	Err      error
	Duration time.Duration
}

func (*ReconnectFailedEvent) Name() string { return EventReconnectFailed }
