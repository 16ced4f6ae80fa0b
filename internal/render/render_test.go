package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name        string
		tpl         Template
		wantSubject string
		wantBody    string
	}{
		{
			name:        "code placeholder",
			tpl:         Template{Subject: "Bilan {CODE}", Body: "Escale {CODE} / {CODE}"},
			wantSubject: "Bilan CDG",
			wantBody:    "Escale CDG / CDG",
		},
		{
			name:        "legacy placeholder",
			tpl:         Template{Subject: "Rapport - {{stopover_code}}", Body: "pour {{stopover_code}}."},
			wantSubject: "Rapport - CDG",
			wantBody:    "pour CDG.",
		},
		{
			name:        "unknown placeholder kept",
			tpl:         Template{Subject: "{FOO} {CODE}", Body: "{{other}}"},
			wantSubject: "{FOO} CDG",
			wantBody:    "{{other}}",
		},
		{
			name:        "unbalanced braces kept",
			tpl:         Template{Subject: "Bilan {CODE", Body: "CODE} {{stopover_code}"},
			wantSubject: "Bilan {CODE",
			wantBody:    "CODE} {{stopover_code}",
		},
		{
			name: "empty template",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := Render(tt.tpl, "CDG")
			assert.Equal(t, tt.wantSubject, s)
			assert.Equal(t, tt.wantBody, b)
		})
	}
}

func TestEffective(t *testing.T) {
	d := Default()
	assert.Equal(t, d, Effective(Template{}))

	custom := Template{Subject: "S {CODE}", Body: "  "}
	got := Effective(custom)
	assert.Equal(t, "S {CODE}", got.Subject)
	assert.Equal(t, d.Body, got.Body)

	s, _ := Render(d, "NCE")
	assert.Equal(t, "Rapport d’escale - NCE", s)
}

func TestPlaceholdersAndUnknown(t *testing.T) {
	assert.Equal(t, []string{"{CODE}", "{{stopover_code}}", "{FOO}"}, Placeholders("{CODE} x {{stopover_code}} {FOO}"))

	tpl := Template{Subject: "{CODE} {DATE}", Body: "{{stopover_code}} {DATE} {{name}}"}
	assert.Equal(t, []string{"{DATE}", "{{name}}"}, Unknown(tpl))
	assert.Empty(t, Unknown(Default()))
}
