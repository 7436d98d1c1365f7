package format

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule is a single markdown cleanup substitution.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Unicode versions of \s, \d and \w, which only match ASCII in RE2.
const (
	space = `[\s\p{Z}\v\x{85}\x{1c}-\x{1f}]`
	digit = `\p{Nd}`
	word  = `[\p{L}\p{N}_]`
)

// The order matters: later rules see the text left behind by earlier ones, so a
// numbered line inside a fenced block loses its marker before the fence is stripped.
var rules = []Rule{
	{"bold", regexp.MustCompile(`(?ms)\*\*(.*?)\*\*`), "${1}"},
	{"italic", regexp.MustCompile(`(?ms)\*(.*?)\*`), "${1}"},
	{"numbered-list", regexp.MustCompile(`(?ms)^` + digit + `+\.` + space + `+`), ""},
	{"bullet", regexp.MustCompile(`(?ms)^` + space + `*[-•]` + space + `+`), ""},
	{"code-block", regexp.MustCompile("(?ms)```(?:" + word + "+)?\n(.*?)```"), "${1}"},
	{"inline-code", regexp.MustCompile("(?ms)`(.*?)`"), "${1}"},
	{"blank-lines", regexp.MustCompile(`(?ms)\n{3,}`), "\n\n"},
}

// Rules returns the cleanup rules in the order Normalize applies them.
func Rules() []Rule {
	ret := make([]Rule, len(rules))
	copy(ret, rules)
	return ret
}

// Normalize strips common markdown artifacts from model output. Empty input is returned as is.
func Normalize(text string) string {
	if text == "" {
		return text
	}
	for _, rule := range rules {
		text = rule.Pattern.ReplaceAllString(text, rule.Replacement)
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimFunc(line, isSpace)
	}
	return strings.TrimFunc(strings.Join(lines, "\n"), isSpace)
}

// isSpace also treats the ASCII separator controls as whitespace, like the space class above.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
