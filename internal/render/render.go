package render

import (
	"regexp"
	"strings"
)

// Recognized placeholder tokens. Both expand to the stopover code.
const (
	CodePlaceholder   = "{CODE}"
	LegacyPlaceholder = "{{stopover_code}}"
)

const (
	defaultSubject = "Rapport d’escale - " + LegacyPlaceholder
	defaultBody    = `Bonjour,

Veuillez trouver en pièce jointe le rapport d’escale pour ` + LegacyPlaceholder + `.

Cordialement,`
)

var placeholderPattern = regexp.MustCompile(`\{\{[^{}]*\}\}|\{[^{}]*\}`)

// Template is a subject/body pair with placeholder tokens.
type Template struct {
	Subject string `json:"subject" yaml:"subject"`
	Body    string `json:"body" yaml:"body"`
}

// Default returns the built-in template.
func Default() Template {
	return Template{Subject: defaultSubject, Body: defaultBody}
}

// Effective fills empty fields of t from Default.
func Effective(t Template) Template {
	d := Default()
	if strings.TrimSpace(t.Subject) == "" {
		t.Subject = d.Subject
	}
	if strings.TrimSpace(t.Body) == "" {
		t.Body = d.Body
	}
	return t
}

// Render substitutes the recognized placeholders with code in subject and
// body. Anything else is kept verbatim.
func Render(t Template, code string) (subject, body string) {
	r := strings.NewReplacer(LegacyPlaceholder, code, CodePlaceholder, code)
	return r.Replace(t.Subject), r.Replace(t.Body)
}

// Placeholders lists the brace tokens of s in order of appearance.
func Placeholders(s string) []string {
	return placeholderPattern.FindAllString(s, -1)
}

// Unknown returns the distinct placeholder tokens of t that Render leaves
// untouched.
func Unknown(t Template) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range append(Placeholders(t.Subject), Placeholders(t.Body)...) {
		if p == CodePlaceholder || p == LegacyPlaceholder {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
