package token

import (
	"html/template"
	"net/http"
	"sort"
	"strings"
)

// CSRFSource exposes the platform CSRF field for the current request.
type CSRFSource interface {
	FieldName() string
	Token(r *http.Request) string
}

// Injector composes the hidden fields every outgoing form must carry.
type Injector struct {
	csrf CSRFSource
}

func NewInjector(csrf CSRFSource) *Injector {
	return &Injector{csrf: csrf}
}

// HiddenFields returns the CSRF field plus the double-submit token when one
// was issued during this request. Fields with no value are omitted.
func (i *Injector) HiddenFields(r *http.Request) map[string]string {
	fields := make(map[string]string, 2)
	if i.csrf != nil {
		if v := i.csrf.Token(r); v != "" {
			fields[i.csrf.FieldName()] = v
		}
	}
	if v, ok := FromContext(r.Context()); ok {
		fields[FieldName] = v
	}
	return fields
}

// Fields renders HiddenFields as escaped input elements in name order.
func (i *Injector) Fields(r *http.Request) template.HTML {
	fields := i.HiddenFields(r)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(`<input type="hidden" name="`)
		b.WriteString(template.HTMLEscapeString(name))
		b.WriteString(`" value="`)
		b.WriteString(template.HTMLEscapeString(fields[name]))
		b.WriteString(`">`)
	}
	return template.HTML(b.String())
}
