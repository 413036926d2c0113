package menuboard

import (
	"bytes"
	"html/template"
	"strings"
)

// GenericErrorMessage is shown for any failure before a usable response
// body is obtained. The cause goes to the logger only.
const GenericErrorMessage = "Failed to update menu status"

// Surface is the set of display targets a [Dashboard] writes into,
// addressed by element identifier.
//
// SetHTML receives markup in which all data has already been escaped.
// Implementations must be safe for concurrent use.
type Surface interface {
	SetText(id, text string)
	SetHTML(id, markup string)
}

var (
	alertTemplate = template.Must(template.New("alert").Parse(
		`<div class="alert alert-danger" role="alert"><i class="fas fa-exclamation-circle"></i> {{.}}</div>`))

	linksTemplate = template.Must(template.New("links").Parse(
		`<ul class="menu-links">{{range .}}<li><a href="{{.URL}}" target="_blank" rel="noopener">{{.Name}}</a></li>{{end}}</ul>`))
)

// renderer writes status documents and errors into a surface.
type renderer struct {
	surface Surface
	dates   DateFormatter
	fields  []Field
}

// render writes every bound field. Missing values render as empty text,
// or as InvalidDate for date fields.
func (r renderer) render(data StatusResponse) {
	for _, f := range r.fields {
		v, _ := data.value(strings.Split(f.Path, "."))

		switch f.Format {
		case FormatDate:
			r.surface.SetText(f.Node, r.dates.Format(stringify(v)))
		case FormatLinks:
			refs := menuRefs(v)
			if len(refs) == 0 {
				r.surface.SetHTML(f.Node, "")
				continue
			}
			r.setMarkup(f.Node, linksTemplate, refs, stringify(v))
		default:
			r.surface.SetText(f.Node, stringify(v))
		}
	}
}

// showError replaces the error container with an alert. The message is
// always treated as data.
func (r renderer) showError(message string) {
	r.setMarkup(NodeErrorMessages, alertTemplate, message, message)
}

func (r renderer) clearError() {
	r.surface.SetHTML(NodeErrorMessages, "")
}

// setMarkup falls back to text insertion if the template fails.
func (r renderer) setMarkup(id string, tmpl *template.Template, data any, fallback string) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		r.surface.SetText(id, fallback)
		return
	}
	r.surface.SetHTML(id, buf.String())
}

type surfaceWrite struct {
	id      string
	content string
	markup  bool
}

// stagedSurface records writes so they can be applied to several surfaces
// as a unit.
type stagedSurface []surfaceWrite

func (s *stagedSurface) SetText(id, text string) {
	*s = append(*s, surfaceWrite{id: id, content: text})
}

func (s *stagedSurface) SetHTML(id, markup string) {
	*s = append(*s, surfaceWrite{id: id, content: markup, markup: true})
}

func (s stagedSurface) replay(dst Surface) {
	for _, w := range s {
		if w.markup {
			dst.SetHTML(w.id, w.content)
		} else {
			dst.SetText(w.id, w.content)
		}
	}
}
