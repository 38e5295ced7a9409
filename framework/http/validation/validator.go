package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds validation errors per field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error implements error, listing the first message of each field.
func (e *Errors) Error() string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = e.First(f)
	}
	return strings.Join(msgs, " ")
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"author": "required|alpha_dash|max:64", "status": "required|in:pending,failed"}
type Rules map[string]string

// RuleFunc checks value against a custom rule. param is the text after the
// colon, if any. A non-empty message reports a failure.
type RuleFunc func(field, value, param string) (message string)

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	custom map[string]RuleFunc
	errors *Errors
	ran    bool
}

// Make creates a new Validator.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		custom: make(map[string]RuleFunc),
		errors: &Errors{},
	}
}

// Rule registers a custom rule usable by name in Rules.
//
//	v.Rule("status", func(field, value, _ string) string {
//	    if _, err := task.ParseStatus(value); err != nil {
//	        return "The selected " + field + " is invalid."
//	    }
//	    return ""
//	})
func (v *Validator) Rule(name string, fn RuleFunc) *Validator {
	v.custom[name] = fn
	return v
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	if !v.ran {
		v.validate()
		v.ran = true
	}
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// ── Core validation loop ─────────────────────────────────────────────────────

func (v *Validator) validate() {
	fields := make([]string, 0, len(v.rules))
	for field := range v.rules {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value, present := v.data[field]
		for _, rule := range strings.Split(v.rules[field], "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(rule, ":")

			if name == "sometimes" {
				if !present {
					break
				}
				continue
			}
			if name == "nullable" {
				if value == "" {
					break
				}
				continue
			}
			if !v.applyRule(field, value, name, param) {
				break // first failure per field
			}
		}
	}
}

var (
	alphaDash = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	alphaNum  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// applyRule returns true if the rule passes.
func (v *Validator) applyRule(field, value, rule, param string) bool {
	if fn, ok := v.custom[rule]; ok {
		if msg := fn(field, value, param); msg != "" {
			v.errors.add(field, msg)
			return false
		}
		return true
	}

	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			v.errors.add(field, fmt.Sprintf("The %s field is required.", field))
			return false
		}

	case "string":
		// Input values are already strings.

	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			v.errors.add(field, fmt.Sprintf("The %s must be an integer.", field))
			return false
		}

	case "min":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) < n {
			v.errors.add(field, fmt.Sprintf("The %s must be at least %d characters.", field, n))
			return false
		}

	case "max":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			v.errors.add(field, fmt.Sprintf("The %s may not be greater than %d characters.", field, n))
			return false
		}

	case "in", "not_in":
		found := false
		for _, a := range strings.Split(param, ",") {
			if strings.TrimSpace(a) == value {
				found = true
				break
			}
		}
		if found != (rule == "in") {
			v.errors.add(field, fmt.Sprintf("The selected %s is invalid.", field))
			return false
		}

	case "alpha_num":
		if !alphaNum.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("The %s may only contain letters and numbers.", field))
			return false
		}

	case "alpha_dash":
		if !alphaDash.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores.", field))
			return false
		}

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("The %s format is invalid.", field))
			return false
		}

	default:
		v.errors.add(field, fmt.Sprintf("Unknown validation rule %q.", rule))
		return false
	}

	return true
}
