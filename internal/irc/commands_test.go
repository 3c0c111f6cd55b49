package irc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCommands(t *testing.T) {
	tests := []struct {
		name string
		got  func() ([]byte, error)
		want string
	}{
		{"join", func() ([]byte, error) { return encodeJoin("#go") }, "JOIN #go\r\n"},
		{"part", func() ([]byte, error) { return encodePart([]string{"#a", "#b"}) }, "PART #a,#b\r\n"},
		{"topic query", func() ([]byte, error) { return encodeTopic("#go", "") }, "TOPIC #go\r\n"},
		{"topic set", func() ([]byte, error) { return encodeTopic("#go", "new topic") }, "TOPIC #go :new topic\r\n"},
		{"names all", func() ([]byte, error) { return encodeNames(nil) }, "NAMES\r\n"},
		{"names some", func() ([]byte, error) { return encodeNames([]string{"#a", "#b"}) }, "NAMES #a,#b\r\n"},
		{"privmsg", func() ([]byte, error) { return encodePrivmsg([]string{"#a", "bob"}, "hello there") }, "PRIVMSG #a,bob :hello there\r\n"},
		{"privmsg one word", func() ([]byte, error) { return encodePrivmsg([]string{"#a"}, "hi") }, "PRIVMSG #a :hi\r\n"},
		{"notice", func() ([]byte, error) { return encodeNotice([]string{"bob"}, "psst") }, "NOTICE bob :psst\r\n"},
		{"nick", func() ([]byte, error) { return encodeNick("guest2") }, "NICK guest2\r\n"},
		{"quit", func() ([]byte, error) { return encodeQuit("gone fishing") }, "QUIT :gone fishing\r\n"},
		{"pong", func() ([]byte, error) { return encodePong("irc.example.net") }, "PONG :irc.example.net\r\n"},
		{"raw", func() ([]byte, error) { return encodeRaw("MODE", "me", "+i") }, "MODE me +i\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := tt.got()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(line))
		})
	}
}

func TestRegistration(t *testing.T) {
	lines, err := registration("", "guest", "guest", "Guest User")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "NICK guest\r\n", string(lines[0]))
	assert.Equal(t, "USER guest 0 * :Guest User\r\n", string(lines[1]))

	lines, err = registration("sekrit", "guest", "guest", "Guest")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "PASS sekrit\r\n", string(lines[0]))
	assert.Equal(t, "NICK guest\r\n", string(lines[1]))
	assert.Equal(t, "USER guest 0 * :Guest\r\n", string(lines[2]))
}

func TestEncodeRejectsFramingCharacters(t *testing.T) {
	_, err := encodePrivmsg([]string{"#go"}, "one\r\nQUIT :injected")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = encodeRaw("PRIVMSG", "#go", ":a\nb")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = encodeRaw()
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = encodeJoin("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = encodePart(nil)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = encodeNotice(nil, "nobody")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEncodeRejectsSpaceInMiddleParameter(t *testing.T) {
	_, err := encodePrivmsg([]string{"two words"}, "hi")
	assert.Error(t, err)
}

func TestEncodeParseRoundTrip(t *testing.T) {
	tests := []struct {
		line     func() ([]byte, error)
		command  string
		targets  []string
		trailing string
	}{
		{func() ([]byte, error) { return encodePrivmsg([]string{"#a", "#b"}, "hi: there :)") }, "PRIVMSG", []string{"#a", "#b"}, "hi: there :)"},
		{func() ([]byte, error) { return encodeNotice([]string{"bob"}, "x") }, "NOTICE", []string{"bob"}, "x"},
		{func() ([]byte, error) { return encodeTopic("#go", "Go: the language") }, "TOPIC", []string{"#go"}, "Go: the language"},
		{func() ([]byte, error) { return encodePart([]string{"#a", "#b"}) }, "PART", []string{"#a", "#b"}, ""},
		{func() ([]byte, error) { return encodeQuit("bye all") }, "QUIT", nil, "bye all"},
		{func() ([]byte, error) { return encodePong("tok") }, "PONG", nil, "tok"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			line, err := tt.line()
			require.NoError(t, err)
			require.True(t, strings.HasSuffix(string(line), "\r\n"))

			msg, err := Parse(strings.TrimSuffix(string(line), "\r\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.command, msg.Command)
			assert.Equal(t, tt.targets, msg.Targets)
			assert.Equal(t, tt.trailing, msg.Trailing)
		})
	}
}

func TestReplyName(t *testing.T) {
	tests := map[string]string{
		"331": RPL_NOTOPIC,
		"332": RPL_TOPIC,
		"353": RPL_NAMREPLY,
		"366": RPL_ENDOFNAMES,
		"433": ERR_NICKNAMEINUSE,
		"376": "RPL_ENDOFMOTD",
		"502": "ERR_USERSDONTMATCH",
	}
	for code, want := range tests {
		name, ok := ReplyName(code)
		assert.True(t, ok, code)
		assert.Equal(t, want, name, code)
	}

	for _, code := range []string{"001", "005", "999", "PRIVMSG", ""} {
		_, ok := ReplyName(code)
		assert.False(t, ok, code)
	}
}
