package irc

import (
	"fmt"
	"regexp"
	"strings"
)

// lineRE matches one protocol line:
//
//	[:name[!user][@host] ]command [targets] rest
var lineRE = regexp.MustCompile(`^(:([^!@\s]+)(?:!([^!@\s]+))?(?:@([^!@\s]+))?\s+)?(\d{3}|\S+)\s*([^:\s]*)(.*)$`)

// Message is one parsed protocol line.
type Message struct {
	Raw string

	// Prefix is the whole source segment without the leading colon and
	// trailing whitespace. Name is the server or nick part of it.
	Prefix string
	Name   string
	User   string
	Host   string

	Command string

	// Targets is the first middle token split on commas.
	Targets []string
	// Params holds the middle parameters that follow the target token.
	Params []string
	// Trailing is the colon-introduced final argument, if any.
	Trailing    string
	HasTrailing bool
}

// ParseError reports a line that does not match the protocol grammar.
type ParseError struct {
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable line %q", e.Line)
}

// Parse converts a single protocol line (without its terminator) into a Message.
func Parse(line string) (*Message, error) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return nil, &ParseError{Line: line}
	}

	msg := &Message{
		Raw:     line,
		Name:    m[2],
		User:    m[3],
		Host:    m[4],
		Command: m[5],
	}
	if m[1] != "" {
		msg.Prefix = strings.TrimSpace(m[1][1:])
	}
	if m[6] != "" {
		msg.Targets = strings.Split(m[6], ",")
	}

	rest := strings.TrimSpace(m[7])
	if strings.HasPrefix(rest, ":") {
		msg.Trailing = rest[1:]
		msg.HasTrailing = true
		return msg, nil
	}

	middle, trailing, found := strings.Cut(rest, " :")
	msg.Params = strings.Fields(middle)
	if found {
		msg.Trailing = trailing
		msg.HasTrailing = true
	}
	return msg, nil
}

// Target returns the first target, or "" when the line has none.
func (m *Message) Target() string {
	if len(m.Targets) == 0 {
		return ""
	}
	return m.Targets[0]
}

// Param returns the i-th middle parameter, or "" when out of range.
func (m *Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Middle returns every middle token: the raw target token followed by Params.
func (m *Message) Middle() []string {
	var out []string
	if len(m.Targets) > 0 {
		out = append(out, strings.Join(m.Targets, ","))
	}
	return append(out, m.Params...)
}

// Source returns the nick or server the message came from.
func (m *Message) Source() string {
	return m.Name
}

// IsNumeric reports whether the command is a three digit reply code.
func (m *Message) IsNumeric() bool {
	if len(m.Command) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if m.Command[i] < '0' || m.Command[i] > '9' {
			return false
		}
	}
	return true
}

func (m *Message) String() string {
	return m.Raw
}
