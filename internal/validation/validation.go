// Package validation evaluates per-endpoint rule tables against request
// fields and produces the itemized error list returned to clients.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// one validator instance for the process; it caches parsed tags.
var validate = validator.New()

// Check is a single validator tag and the message reported when it fails.
type Check struct {
	Tag string
	Msg string
}

// Rule lists the checks for one body field, evaluated in order.  Only the
// first failing check is reported.
type Rule struct {
	Field     string
	Trim      bool
	Sensitive bool // value is never echoed back
	Checks    []Check
}

// Rules is the rule table of one endpoint.
type Rules []Rule

// FieldError is one item of the error list.
type FieldError struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// Error is returned when at least one rule fails.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Path+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var (
	// RegisterRules validates POST /auth/register.
	RegisterRules = Rules{
		{Field: "email", Trim: true, Checks: []Check{
			{"required", "Email is required!"},
			{"email", "Not a valid email!"},
		}},
		{Field: "firstName", Trim: true, Checks: []Check{
			{"required", "First name is required!"},
		}},
		{Field: "lastName", Trim: true, Checks: []Check{
			{"required", "Last name is required!"},
		}},
		{Field: "password", Sensitive: true, Checks: []Check{
			{"required", "Password is required!"},
			{"min=8", "Password length should be at least of 8 chars!"},
		}},
	}

	// LoginRules validates POST /auth/login.
	LoginRules = Rules{
		{Field: "email", Trim: true, Checks: []Check{
			{"required", "Email is required!"},
			{"email", "Not a valid email!"},
		}},
		{Field: "password", Sensitive: true, Checks: []Check{
			{"required", "Password is required!"},
		}},
	}
)

// Validate runs rules over fields, trimming the values of rules that ask
// for it in place.  It returns nil or an *Error.
func Validate(rules Rules, fields map[string]*string) error {
	var out []FieldError
	for _, r := range rules {
		var v string
		if p := fields[r.Field]; p != nil {
			if r.Trim {
				*p = strings.TrimSpace(*p)
			}
			v = *p
		}
		for _, c := range r.Checks {
			if err := validate.Var(v, c.Tag); err != nil {
				shown := v
				if r.Sensitive {
					shown = ""
				}
				out = append(out, FieldError{
					Type:     "field",
					Value:    shown,
					Msg:      c.Msg,
					Path:     r.Field,
					Location: "body",
				})
				break
			}
		}
	}
	if len(out) > 0 {
		return &Error{Fields: out}
	}
	return nil
}
