// Package naming converts human-readable Zenkit names (lists, fields,
// labels, workspaces) into the symbol forms used by generated Go code.
//
// Every function is pure and deterministic. Input must be non-empty and
// must contain at least one letter or digit; otherwise ErrInvalidName is
// returned.
package naming

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/go-openapi/inflect"
)

// ErrInvalidName is returned for names that yield no word at all.
var ErrInvalidName = errors.New("invalid name")

// goInitialisms are upper-cased as a whole when they appear as a word.
var goInitialisms = map[string]bool{
	"acl": true, "api": true, "ascii": true, "cpu": true, "css": true,
	"dns": true, "eof": true, "guid": true, "html": true, "http": true,
	"https": true, "id": true, "ip": true, "json": true, "lhs": true,
	"qps": true, "ram": true, "rhs": true, "rpc": true, "sla": true,
	"smtp": true, "sql": true, "ssh": true, "tcp": true, "tls": true,
	"ttl": true, "udp": true, "ui": true, "uid": true, "uuid": true,
	"uri": true, "url": true, "utf8": true, "vm": true, "xml": true,
	"xmpp": true, "xsrf": true, "xss": true,
}

// Words splits s into words. Any rune that is neither a letter nor a digit
// separates words, and camel humps ("dueDate", "HTTPServer") split too.
func Words(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func split(s string) ([]string, error) {
	words := Words(s)
	if len(words) == 0 {
		return nil, errors.Wrapf(ErrInvalidName, "%q", s)
	}
	return words, nil
}

// IdentifierCase returns the lower_snake form of s ("Due Date" -> "due_date").
func IdentifierCase(s string) (string, error) {
	words, err := split(s)
	if err != nil {
		return "", err
	}
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_"), nil
}

// ConstantCase returns the UPPER_SNAKE form of s ("Due Date" -> "DUE_DATE").
func ConstantCase(s string) (string, error) {
	words, err := split(s)
	if err != nil {
		return "", err
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w)
	}
	return strings.Join(words, "_"), nil
}

// TypeCase returns an exported Go identifier for s ("item url" -> "ItemURL").
// A leading digit gets an "X" prefix so the result is always exported.
func TypeCase(s string) (string, error) {
	words, err := split(s)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteString(capitalize(w))
	}
	out := b.String()
	if first := []rune(out)[0]; unicode.IsDigit(first) {
		out = "X" + out
	}
	return out, nil
}

// LowerCamel returns an unexported Go identifier for s ("Due Date" -> "dueDate").
func LowerCamel(s string) (string, error) {
	words, err := split(s)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(capitalize(w))
	}
	out := b.String()
	if first := []rune(out)[0]; unicode.IsDigit(first) {
		out = "x" + out
	}
	return out, nil
}

// PackageName returns a lowercase alphanumeric Go package name for s.
func PackageName(s string) (string, error) {
	words, err := split(s)
	if err != nil {
		return "", err
	}
	out := strings.ToLower(strings.Join(words, ""))
	if first := []rune(out)[0]; unicode.IsDigit(first) {
		out = "zk" + out
	}
	return out, nil
}

// Pluralize returns an English plural of s, keeping its capitalization.
// Foreign words may come out wrong; callers must tolerate approximate
// output.
func Pluralize(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.Wrapf(ErrInvalidName, "%q", s)
	}
	return inflectCased(s, inflect.Pluralize), nil
}

// Singularize returns an English singular of s, with the same caveats as
// Pluralize.
func Singularize(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.Wrapf(ErrInvalidName, "%q", s)
	}
	return inflectCased(s, inflect.Singularize), nil
}

// inflectCased applies fn to the lower-cased s and carries the caller's
// capitalization over. inflect's irregular rules only match lower case.
func inflectCased(s string, fn func(string) string) string {
	lower := strings.ToLower(s)
	out := fn(lower)
	if out == lower {
		return s
	}
	in, lr, res := []rune(s), []rune(lower), []rune(out)
	if len(in) != len(lr) {
		return fn(s)
	}
	n := 0
	for n < len(lr) && n < len(res) && lr[n] == res[n] {
		n++
	}
	rest := res[n:]
	if n < len(in) && len(rest) > 0 && unicode.IsUpper(in[n]) {
		rest[0] = unicode.ToUpper(rest[0])
	}
	return string(in[:n]) + string(rest)
}

func capitalize(w string) string {
	lower := strings.ToLower(w)
	if goInitialisms[lower] {
		return strings.ToUpper(w)
	}
	runes := []rune(lower)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
