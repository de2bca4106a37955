package waiter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Iron-Ham/ttytest/internal/util"
)

// Matcher decides whether a chunk satisfies a wait.
type Matcher interface {
	// Match reports whether chunk satisfies the condition.
	Match(chunk string) bool

	// String describes the target in timeout messages.
	String() string
}

// Contains returns a Matcher for a case-sensitive literal substring.
// The empty string matches every chunk.
func Contains(substr string) Matcher {
	return substring(substr)
}

type substring string

func (s substring) Match(chunk string) bool { return strings.Contains(chunk, string(s)) }
func (s substring) String() string          { return strconv.Quote(string(s)) }

// Pattern returns a Matcher for a regular expression. A chunk matches when
// the expression matches anywhere inside it.
func Pattern(re *regexp.Regexp) Matcher {
	return pattern{re: re}
}

type pattern struct {
	re *regexp.Regexp
}

func (p pattern) Match(chunk string) bool { return p.re.MatchString(chunk) }
func (p pattern) String() string          { return "/" + p.re.String() + "/" }

// Any returns a Matcher satisfied by every chunk.
func Any() Matcher {
	return anyChunk{}
}

type anyChunk struct{}

func (anyChunk) Match(string) bool { return true }
func (anyChunk) String() string    { return "any chunk" }

// Plain wraps m so it sees chunks with terminal escape sequences removed.
// Output read from a pseudo-terminal often carries color and cursor codes
// between the characters a wait is looking for.
func Plain(m Matcher) Matcher {
	if _, ok := m.(plain); ok {
		return m
	}
	return plain{m}
}

type plain struct {
	Matcher
}

func (p plain) Match(chunk string) bool { return p.Matcher.Match(util.StripANSI(chunk)) }
