package docconf

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

const confTemplate = `# Configuration file for the Sphinx documentation builder.
# Generated by nbharness from the docs section of its configuration.

# -- Project information -----------------------------------------------------

project = {{py .Project}}
copyright = {{py .Copyright}}
author = {{py .Author}}

version = {{py .Version}}
release = {{py .Release}}
today = {{py .Today}}

# -- General configuration ---------------------------------------------------

extensions = {{py .Extensions}}
templates_path = {{py .TemplatesPath}}
source_suffix = {{py .SourceSuffix}}
exclude_patterns = {{py .ExcludePatterns}}
master_doc = {{py .MasterDoc}}
pygments_style = {{py .PygmentsStyle}}

# -- Options for HTML output -------------------------------------------------

html_theme = {{py .HTMLTheme}}
html_static_path = {{py .HTMLStaticPath}}
html_theme_options = {{py .HTMLThemeOptions}}
html_context = {{py .HTMLContext}}


def setup(app):
{{- range .Stylesheets}}
    app.add_css_file({{py .}})
{{- else}}
    pass
{{- end}}
`

var confTpl = template.Must(template.New("conf.py").
	Funcs(template.FuncMap{"py": PythonLiteral}).
	Parse(confTemplate))

// Render writes c as a conf.py module.
func (c Config) Render(w io.Writer) error {
	if err := confTpl.Execute(w, c); err != nil {
		return fmt.Errorf("render conf.py: %w", err)
	}
	return nil
}

// PythonLiteral formats v as a Python literal. Maps are written with sorted
// keys; nil slices become empty lists.
func PythonLiteral(v any) string {
	var b strings.Builder
	writeLiteral(&b, reflect.ValueOf(v))
	return b.String()
}

func writeLiteral(b *strings.Builder, v reflect.Value) {
	if !v.IsValid() {
		b.WriteString("None")
		return
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			b.WriteString("None")
			return
		}
		writeLiteral(b, v.Elem())
	case reflect.Bool:
		if v.Bool() {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case reflect.String:
		b.WriteString(strconv.Quote(v.String()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		switch {
		case math.IsNaN(f):
			b.WriteString("float('nan')")
		case math.IsInf(f, 1):
			b.WriteString("float('inf')")
		case math.IsInf(f, -1):
			b.WriteString("-float('inf')")
		default:
			s := strconv.FormatFloat(f, 'g', -1, 64)
			if !strings.ContainsAny(s, ".eE") {
				s += ".0"
			}
			b.WriteString(s)
		}
	case reflect.Slice, reflect.Array:
		b.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLiteral(b, v.Index(i))
		}
		b.WriteByte(']')
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		values := map[string]reflect.Value{}
		iter := v.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			values[k] = iter.Value()
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			writeLiteral(b, values[k])
		}
		b.WriteByte('}')
	default:
		b.WriteString(strconv.Quote(fmt.Sprint(v.Interface())))
	}
}
