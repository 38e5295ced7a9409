// Package validation checks flat string input against pipe-separated rules.
//
// # Basic Usage
//
//	v := validation.Make(map[string]string{
//	    "author": "ana",
//	    "event":  "test",
//	}, validation.Rules{
//	    "author": "required|alpha_dash|max:64",
//	    "event":  "required|in:test",
//	})
//
//	if v.Fails() {
//	    // JSON: {"errors": {"field": ["message1"]}}
//	}
//
// # Available Rules
//
//   - required       present and non-blank
//   - string         always passes
//   - integer        parseable as int
//   - min:n / max:n  rune length bounds
//   - in:a,b,c       one of the listed values
//   - not_in:a,b,c   none of the listed values
//   - alpha_num      letters and numbers
//   - alpha_dash     letters, numbers, dashes and underscores
//   - regex:pattern  matches the pattern
//   - nullable       an empty value skips the remaining rules
//   - sometimes      an absent field skips the remaining rules
//
// Unknown rule names fail the field, so typos surface immediately.
//
// # Custom Rules
//
//	v.Rule("status", func(field, value, _ string) string {
//	    if _, err := task.ParseStatus(value); err != nil {
//	        return "The selected " + field + " is invalid."
//	    }
//	    return ""
//	})
//
// Fields are validated in name order and stop at their first failing rule.
package validation
