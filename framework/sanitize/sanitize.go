// Package sanitize redacts sensitive values out of string-keyed maps before
// they reach logs or diagnostic output.
//
//	s := sanitize.New(
//	    sanitize.SanitizeKeys("password", "token"),
//	    sanitize.DropKeys("internal_.*"),
//	)
//	safe := s.Sanitize(map[string]any{"user": "bob", "password": "hunter2"})
//	// {"user": "bob", "password": "**SANITIZED**"}
package sanitize

import "regexp"

// Placeholder is the default replacement for sanitized values.
const Placeholder = "**SANITIZED**"

// Func computes the replacement for a sanitized value.
type Func func(key string, value any) any

// Sanitizer drops or replaces map entries whose key matches a pattern.
// Patterns match anywhere in the key, case-insensitively.
type Sanitizer struct {
	drop     []*regexp.Regexp
	sanitize []*regexp.Regexp
	fn       Func
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// DropKeys removes entries whose key matches any of the patterns.
func DropKeys(patterns ...string) Option {
	return func(s *Sanitizer) { s.drop = append(s.drop, compile(patterns)...) }
}

// SanitizeKeys replaces the values of entries whose key matches any of the
// patterns.
func SanitizeKeys(patterns ...string) Option {
	return func(s *Sanitizer) { s.sanitize = append(s.sanitize, compile(patterns)...) }
}

// DropPatterns is DropKeys for precompiled expressions, used as-is.
func DropPatterns(res ...*regexp.Regexp) Option {
	return func(s *Sanitizer) { s.drop = append(s.drop, res...) }
}

// SanitizePatterns is SanitizeKeys for precompiled expressions, used as-is.
func SanitizePatterns(res ...*regexp.Regexp) Option {
	return func(s *Sanitizer) { s.sanitize = append(s.sanitize, res...) }
}

// WithPlaceholder replaces sanitized values with a fixed string.
func WithPlaceholder(placeholder string) Option {
	return func(s *Sanitizer) {
		s.fn = func(string, any) any { return placeholder }
	}
}

// WithFunc computes replacements with fn.
func WithFunc(fn Func) Option {
	return func(s *Sanitizer) { s.fn = fn }
}

// New builds a Sanitizer. Without a replacement option values become
// Placeholder.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.fn == nil {
		WithPlaceholder(Placeholder)(s)
	}
	return s
}

// Sanitize returns a redacted copy of data; data itself is never modified.
//
// Nested maps are sanitized with the same rules. Inside lists, maps are
// sanitized recursively and any other item is replaced when the list's key
// matches.
func (s *Sanitizer) Sanitize(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		if matches(key, s.drop) {
			continue
		}
		hit := matches(key, s.sanitize)
		switch v := value.(type) {
		case map[string]any:
			out[key] = s.Sanitize(v)
		case []map[string]any:
			items := make([]any, len(v))
			for i, item := range v {
				items[i] = s.Sanitize(item)
			}
			out[key] = items
		case []any:
			items := make([]any, len(v))
			for i, item := range v {
				switch m := item.(type) {
				case map[string]any:
					items[i] = s.Sanitize(m)
				default:
					if hit {
						items[i] = s.fn(key, item)
					} else {
						items[i] = item
					}
				}
			}
			out[key] = items
		default:
			if hit {
				out[key] = s.fn(key, value)
			} else {
				out[key] = value
			}
		}
	}
	return out
}

func compile(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile("(?i)"+p))
	}
	return res
}

func matches(key string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}
