package sanitize_test

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-planteuf/framework/sanitize"
)

func TestSanitize_ReplacesMatchingKeys(t *testing.T) {
	s := sanitize.New(sanitize.SanitizeKeys("password", "token"))
	in := map[string]any{"user": "bob", "Password": "hunter2", "api_token": 42}

	got := s.Sanitize(in)

	assert.Equal(t, map[string]any{
		"user":      "bob",
		"Password":  sanitize.Placeholder,
		"api_token": sanitize.Placeholder,
	}, got)
	assert.Equal(t, "hunter2", in["Password"], "input must not be modified")
}

func TestSanitize_DropsMatchingKeys(t *testing.T) {
	s := sanitize.New(sanitize.DropKeys("^internal_"))
	got := s.Sanitize(map[string]any{"internal_id": 1, "id": 2})
	assert.Equal(t, map[string]any{"id": 2}, got)
}

func TestSanitize_Nested(t *testing.T) {
	s := sanitize.New(sanitize.SanitizeKeys("secret"))
	in := map[string]any{
		"db":      map[string]any{"host": "localhost", "secret": "x"},
		"secrets": []any{"a", "b", map[string]any{"secret": "c", "ok": true}},
		"rows":    []map[string]any{{"secret": "d"}},
		"tags":    []any{"public"},
	}

	got := s.Sanitize(in)

	assert.Equal(t, map[string]any{"host": "localhost", "secret": sanitize.Placeholder}, got["db"])
	assert.Equal(t, []any{
		sanitize.Placeholder,
		sanitize.Placeholder,
		map[string]any{"secret": sanitize.Placeholder, "ok": true},
	}, got["secrets"])
	assert.Equal(t, []any{map[string]any{"secret": sanitize.Placeholder}}, got["rows"])
	assert.Equal(t, []any{"public"}, got["tags"])
	assert.Equal(t, "x", in["db"].(map[string]any)["secret"])
}

func TestSanitize_Replacement(t *testing.T) {
	tests := []struct {
		name string
		opt  sanitize.Option
		want any
	}{
		{"placeholder", sanitize.WithPlaceholder("***"), "***"},
		{"func", sanitize.WithFunc(func(key string, v any) any { return fmt.Sprintf("<%s:%T>", key, v) }), "<pin:int>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sanitize.New(sanitize.SanitizePatterns(regexp.MustCompile(`^pin$`)), tt.opt)
			assert.Equal(t, tt.want, s.Sanitize(map[string]any{"pin": 1234})["pin"])
		})
	}
}

func TestSanitize_PrecompiledPatternsAreCaseSensitive(t *testing.T) {
	s := sanitize.New(sanitize.DropPatterns(regexp.MustCompile(`^Key$`)))
	got := s.Sanitize(map[string]any{"Key": 1, "key": 2})
	assert.Equal(t, map[string]any{"key": 2}, got)
}
