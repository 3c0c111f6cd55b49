package irc

import (
	"strings"
	"sync"
)

// session holds the per-connection correlation state: channels waiting for
// a join confirmation and NAMES replies collected so far. It is owned by a
// Client and reset whenever a new transport connects.
// Both maps are keyed by foldChannel.
type session struct {
	mu           sync.Mutex
	pendingJoins map[string]struct{}
	names        map[string][]string
}

func newSession() *session {
	s := &session{}
	s.reset()
	return s
}

func (s *session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingJoins = make(map[string]struct{})
	s.names = make(map[string][]string)
}

// foldChannel maps a channel name to its RFC 1459 lower-case form, where
// []\~ are the upper-case forms of {}|^.
func foldChannel(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '[':
			return '{'
		case r == ']':
			return '}'
		case r == '\\':
			return '|'
		case r == '~':
			return '^'
		}
		return r
	}, name)
}

func (s *session) addPendingJoin(channel string) {
	s.mu.Lock()
	s.pendingJoins[foldChannel(channel)] = struct{}{}
	s.mu.Unlock()
}

func (s *session) cancelJoin(channel string) {
	s.mu.Lock()
	delete(s.pendingJoins, foldChannel(channel))
	s.mu.Unlock()
}

func (s *session) isPendingJoin(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pendingJoins[foldChannel(channel)]
	return ok
}

// requestNames drops the channels whose NAMES reply is still being
// collected.
func (s *session) requestNames(channels []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, ch := range channels {
		if _, ok := s.names[foldChannel(ch)]; ok {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func (s *session) hasNames(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[foldChannel(channel)]
	return ok
}

// correlate turns a parsed message into the semantic events it implies.
// The raw dispatches (line, command, reply name) are the caller's job.
func (s *session) correlate(msg *Message) []Event {
	reply, _ := ReplyName(msg.Command)

	switch {
	case reply == RPL_TOPIC || reply == RPL_NOTOPIC:
		events := s.resolveJoins(msg.Params)
		topic := ""
		if reply == RPL_TOPIC {
			topic = msg.Trailing
		}
		return append(events, &TopicEvent{Channel: msg.Param(0), Topic: topic})

	case reply == RPL_NAMREPLY:
		events := s.resolveJoins(msg.Params)
		channel := msg.Param(1)
		if len(msg.Params) < 2 {
			// RFC 1459 servers omit the channel type token.
			channel = msg.Param(0)
		}
		s.appendNames(channel, strings.Fields(msg.Trailing))
		return events

	case reply == RPL_ENDOFNAMES:
		channel := msg.Param(0)
		return []Event{&NamesEvent{Channel: channel, Names: s.takeNames(channel)}}

	case reply == ERR_NICKNAMEINUSE:
		return []Event{&NicknameInUseEvent{Nick: msg.Param(0)}}

	case msg.Command == "PING":
		token := msg.Trailing
		if !msg.HasTrailing {
			// PING server1 carries its token as a middle parameter.
			if middle := msg.Middle(); len(middle) > 0 {
				token = middle[0]
			}
		}
		return []Event{&PingedEvent{Token: token}}

	case msg.Command == "PRIVMSG":
		return []Event{&MessageEvent{Source: msg.Source(), Target: msg.Target(), Text: msg.Trailing}}

	case msg.Command == "NOTICE":
		return []Event{&NoticeEvent{Source: msg.Source(), Target: msg.Target(), Text: msg.Trailing}}
	}
	return nil
}

// resolveJoins confirms every pending join named in params.
func (s *session) resolveJoins(params []string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []Event
	for _, p := range params {
		key := foldChannel(p)
		if _, ok := s.pendingJoins[key]; ok {
			delete(s.pendingJoins, key)
			events = append(events, &JoinedEvent{Channel: p})
		}
	}
	return events
}

func (s *session) appendNames(channel string, nicks []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := foldChannel(channel)
	if s.names[key] == nil {
		s.names[key] = make([]string, 0, len(nicks))
	}
	s.names[key] = append(s.names[key], nicks...)
}

// takeNames returns and forgets the names collected for channel. A channel
// with no fragments yields an empty list.
func (s *session) takeNames(channel string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := foldChannel(channel)
	names, ok := s.names[key]
	if !ok {
		names = []string{}
	}
	delete(s.names, key)
	return names
}
