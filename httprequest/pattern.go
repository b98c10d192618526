package httprequest

import (
	"regexp"
	"strconv"
	"strings"
)

// serializedRegex matches a JavaScript-style regex literal: /pattern/flags.
var serializedRegex = regexp.MustCompile(`^/(.*)/([gimsuy]*)$`)

// PatternKey is a handler or config key that is either a literal value
// (e.g. "401", "test_api/code") or a compiled regular expression
// (written as "/4\d{2}/").
//
// The kind is decided once, when the key is registered.
type PatternKey struct {
	raw string
	re  *regexp.Regexp

	// loose is the literal compiled as an unanchored regex, used for
	// log-level lookups. Nil if the literal is not a valid expression.
	loose *regexp.Regexp
}

// Literal creates a key that matches exactly s.
func Literal(s string) PatternKey {
	k := PatternKey{raw: s}
	if re, err := regexp.Compile(s); err == nil {
		k.loose = re
	}
	return k
}

// Regex creates a key that matches via re.
func Regex(re *regexp.Regexp) PatternKey {
	return PatternKey{raw: "/" + re.String() + "/", re: re}
}

// ParseKey turns a string key into a PatternKey. Keys written as /pattern/flags
// become regex keys; everything else is a literal. A malformed regex literal
// is kept as a literal so that registration never fails.
//
// Supported flags are i, m and s. The JavaScript flags g, u and y have no
// meaning for a match test and are ignored.
func ParseKey(key string) PatternKey {
	re, ok := parseSerializedRegex(key)
	if !ok {
		return Literal(key)
	}
	return PatternKey{raw: key, re: re}
}

// StatusKey is shorthand for Literal(strconv.Itoa(status)).
func StatusKey(status int) PatternKey {
	return Literal(strconv.Itoa(status))
}

// String returns the key as it was registered.
func (k PatternKey) String() string {
	return k.raw
}

// IsRegex reports whether k is a regex key.
func (k PatternKey) IsRegex() bool {
	return k.re != nil
}

// matchExact reports whether k is a literal equal to candidate.
func (k PatternKey) matchExact(candidate string) bool {
	return k.re == nil && k.raw == candidate
}

// matchStrict reports whether k is a regex key matching candidate.
// Literal keys never match in strict mode.
func (k PatternKey) matchStrict(candidate string) bool {
	return k.re != nil && k.re.MatchString(candidate)
}

// matchLoose tests regex keys like matchStrict and literal keys as an
// unanchored expression.
func (k PatternKey) matchLoose(candidate string) bool {
	if k.re != nil {
		return k.re.MatchString(candidate)
	}
	return k.loose != nil && k.loose.MatchString(candidate)
}

// Matcher tests a candidate string against a compiled key.
type Matcher func(candidate string) bool

// Compile returns a matcher for key: literal keys test string equality,
// serialized regex keys test the expression.
//
// Example:
//
//	Compile("401")("401")        // true
//	Compile("/4\\d{2}/")("404")  // true
func Compile(key string) Matcher {
	k := ParseKey(key)
	return func(candidate string) bool {
		return k.matchExact(candidate) || k.matchStrict(candidate)
	}
}

// CompileStrict returns a matcher that only matches when key is a serialized
// regex. Any other key yields a matcher that matches nothing.
func CompileStrict(key string) Matcher {
	k := ParseKey(key)
	return k.matchStrict
}

// CompileLoose returns a matcher that treats every key as a regex. Literal
// keys are tested unanchored, so "40" matches "401".
func CompileLoose(key string) Matcher {
	k := ParseKey(key)
	return k.matchLoose
}

func parseSerializedRegex(key string) (*regexp.Regexp, bool) {
	m := serializedRegex.FindStringSubmatch(key)
	if m == nil {
		return nil, false
	}

	pattern, flags := m[1], m[2]

	var goFlags strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(goFlags.String(), f) {
				goFlags.WriteRune(f)
			}
		}
	}
	if goFlags.Len() > 0 {
		pattern = "(?" + goFlags.String() + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false
	}
	return re, true
}
