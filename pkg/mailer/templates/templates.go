package templates

import (
	"embed"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	"sync"
	texttpl "text/template"
)

//go:embed *.tmpl
var FS embed.FS

// Template names. Each has <name>.subject.tmpl, <name>.text.tmpl and
// <name>.html.tmpl.
const (
	Confirm       = "confirm"
	ResetPassword = "reset_password"
	ChangeEmail   = "change_email"
	NewUser       = "new_user"
)

// Names lists every template set shipped in FS.
var Names = []string{Confirm, ResetPassword, ChangeEmail, NewUser}

type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var (
	loadOnce sync.Once
	sets     map[string]set
	loadErr  error
)

var funcs = map[string]any{
	"upper":   strings.ToUpper,
	"default": orDefault,
}

// orDefault backs {{ .Value | default "fallback" }}.
func orDefault(fallback, value any) any {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return fallback
	}
	if rv := reflect.ValueOf(value); !rv.IsValid() || rv.IsZero() {
		return fallback
	}
	return value
}

func load() {
	sets = make(map[string]set, len(Names))
	for _, name := range Names {
		var s set
		if s.subject, loadErr = texttpl.New(name).Funcs(funcs).ParseFS(FS, name+".subject.tmpl"); loadErr != nil {
			return
		}
		if s.text, loadErr = texttpl.New(name).Funcs(funcs).ParseFS(FS, name+".text.tmpl"); loadErr != nil {
			return
		}
		if s.html, loadErr = htmpl.New(name).Funcs(funcs).ParseFS(FS, name+".html.tmpl"); loadErr != nil {
			return
		}
		sets[name] = s
	}
}

// Render produces the subject line and the text and HTML bodies of name.
func Render(name string, data any) (subject, text, html string, err error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return "", "", "", fmt.Errorf("load mail templates: %w", loadErr)
	}
	s, ok := sets[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown mail template %q", name)
	}

	var sb, tb, hb strings.Builder
	if err := s.subject.ExecuteTemplate(&sb, name+".subject.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := s.text.ExecuteTemplate(&tb, name+".text.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	if err := s.html.ExecuteTemplate(&hb, name+".html.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), tb.String(), hb.String(), nil
}
