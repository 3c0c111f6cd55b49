package irc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrEmptyCommand = errors.New("empty command")
	ErrInvalidToken = errors.New("token contains CR, LF or NUL")
)

// encode builds one CRLF-terminated line. When trailing is set the last
// parameter is always sent colon-prefixed.
func encode(command string, trailing bool, params ...string) ([]byte, error) {
	if command == "" {
		return nil, ErrEmptyCommand
	}
	for _, p := range append([]string{command}, params...) {
		if strings.ContainsAny(p, "\r\n\x00") {
			return nil, fmt.Errorf("%s: %w", command, ErrInvalidToken)
		}
	}

	msg := ircmsg.MakeMessage(nil, "", command, params...)
	if trailing && len(params) > 0 {
		msg.ForceTrailing()
	}
	line, err := msg.Line()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", command, err)
	}
	return []byte(line), nil
}

// encodeRaw joins tokens with single spaces, the way send() does.
func encodeRaw(tokens ...string) ([]byte, error) {
	line := strings.Join(tokens, " ")
	if strings.TrimSpace(line) == "" {
		return nil, ErrEmptyCommand
	}
	if strings.ContainsAny(line, "\r\n\x00") {
		return nil, ErrInvalidToken
	}
	return []byte(line + "\r\n"), nil
}

// registration returns PASS (when set), NICK and USER.
func registration(pass, nick, user, realname string) ([][]byte, error) {
	var lines [][]byte
	if pass != "" {
		l, err := encode("PASS", false, pass)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	l, err := encode("NICK", false, nick)
	if err != nil {
		return nil, err
	}
	lines = append(lines, l)

	l, err = encode("USER", true, user, "0", "*", realname)
	if err != nil {
		return nil, err
	}
	return append(lines, l), nil
}

func encodeJoin(channel string) ([]byte, error) {
	if channel == "" {
		return nil, fmt.Errorf("JOIN: empty channel: %w", ErrInvalidToken)
	}
	return encode("JOIN", false, channel)
}

func encodePart(channels []string) ([]byte, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("PART: no channels: %w", ErrInvalidToken)
	}
	return encode("PART", false, strings.Join(channels, ","))
}

// encodeTopic queries the topic when topic is empty and sets it otherwise.
func encodeTopic(channel, topic string) ([]byte, error) {
	if topic == "" {
		return encode("TOPIC", false, channel)
	}
	return encode("TOPIC", true, channel, topic)
}

func encodeNames(channels []string) ([]byte, error) {
	if len(channels) == 0 {
		return encode("NAMES", false)
	}
	return encode("NAMES", false, strings.Join(channels, ","))
}

func encodePrivmsg(targets []string, text string) ([]byte, error) {
	return encodeText("PRIVMSG", targets, text)
}

func encodeNotice(targets []string, text string) ([]byte, error) {
	return encodeText("NOTICE", targets, text)
}

func encodeText(command string, targets []string, text string) ([]byte, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%s: no targets: %w", command, ErrInvalidToken)
	}
	return encode(command, true, strings.Join(targets, ","), text)
}

func encodeNick(nick string) ([]byte, error) {
	return encode("NICK", false, nick)
}

func encodeQuit(reason string) ([]byte, error) {
	return encode("QUIT", true, reason)
}

func encodePong(token string) ([]byte, error) {
	return encode("PONG", true, token)
}
