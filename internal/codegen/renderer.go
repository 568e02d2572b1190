package codegen

import (
	"bytes"
	"embed"
	"strconv"
	"text/template"

	"github.com/cockroachdb/errors"

	"github.com/matthewbaird/zkgen/internal/naming"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ErrTemplateNotFound is returned for an unknown template name.
var ErrTemplateNotFound = errors.New("template not found")

// Funcs returns the helpers callable from templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"typeCase":     naming.TypeCase,
		"identCase":    naming.IdentifierCase,
		"constantCase": naming.ConstantCase,
		"lowerCamel":   naming.LowerCamel,
		"plural":       naming.Pluralize,
		"singular":     naming.Singularize,

		"workspaceConst": WorkspaceConst,
		"listType":       ListType,
		"listConst":      ListConst,
		"fieldConst":     FieldConst,
		"labelConst":     LabelConst,
		"labelTable":     LabelTableVar,
		"labelLookup":    LabelLookupFunc,

		"quote":   strconv.Quote,
		"comment": Comment,
	}
}

// Renderer executes named templates against a RenderContext and appends the
// output to a buffer. Any key a template references but the context lacks
// fails the render.
type Renderer struct {
	tmpl *template.Template
	out  *OutputBuffer
}

// NewRenderer parses the embedded templates once.
func NewRenderer(out *OutputBuffer) (*Renderer, error) {
	tmpl, err := template.New("zkgen").
		Funcs(Funcs()).
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}
	return &Renderer{tmpl: tmpl, out: out}, nil
}

// Has reports whether a template with the given name exists.
func (r *Renderer) Has(name string) bool {
	return r.tmpl.Lookup(name) != nil
}

// Render executes the named template. Output is appended only when the
// whole template rendered.
func (r *Renderer) Render(name string, ctx *RenderContext) error {
	t := r.tmpl.Lookup(name)
	if t == nil {
		return errors.Wrapf(ErrTemplateNotFound, "%q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx.values); err != nil {
		return errors.Wrapf(err, "rendering %s", name)
	}
	_, _ = r.out.Write(buf.Bytes())
	return nil
}
