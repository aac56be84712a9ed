package email

import (
	"strings"
)

// Placeholder keys understood by the verification templates
const (
	ParamName       = "name"
	ParamEmail      = "email"
	ParamSecretUUID = "secret_uuid"
	ParamSecretURL  = "secret_url"
	ParamSiteURL    = "site_url"
)

// Undefined is substituted for placeholders without a parameter
const Undefined = "undefined"

// Params maps placeholder keys to their values
type Params map[string]string

// Template is a subject/body pair with %{key} placeholders.
// Body lines are joined with newlines when rendered.
type Template struct {
	Subject string
	Body    []string
}

// Message is a rendered template
type Message struct {
	Subject string
	Body    string
}

// DefaultValidityTemplate is used when no verification template is configured
var DefaultValidityTemplate = Template{
	Subject: "Please verify your email address",
	Body: []string{
		"Hello %{name},",
		"",
		"Please confirm that %{email} is your email address by opening the link below:",
		"",
		"%{secret_url}",
		"",
		"If you did not request this, you can ignore this message.",
		"",
		"%{site_url}",
	},
}

// Render substitutes params into both the subject and the body
func (t Template) Render(params Params) Message {
	return Message{
		Subject: Substitute(t.Subject, params),
		Body:    Substitute(strings.Join(t.Body, "\n"), params),
	}
}

// Substitute replaces every %{key} in text with params[key] in a single
// left-to-right pass. Substituted values are not scanned again. Unknown
// keys become Undefined and an unterminated "%{" is copied as-is.
func Substitute(text string, params Params) string {
	var out strings.Builder
	out.Grow(len(text))

	for {
		start := strings.Index(text, "%{")
		if start < 0 {
			out.WriteString(text)
			return out.String()
		}

		end := strings.IndexByte(text[start+2:], '}')
		if end < 0 {
			out.WriteString(text)
			return out.String()
		}

		out.WriteString(text[:start])
		key := text[start+2 : start+2+end]
		if value, ok := params[key]; ok {
			out.WriteString(value)
		} else {
			out.WriteString(Undefined)
		}
		text = text[start+2+end+1:]
	}
}
