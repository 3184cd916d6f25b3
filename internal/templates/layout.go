// Package templates renders the inspector pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

// Page carries the fields every page layout needs.
type Page struct {
	Title       string
	CurrentPath string
}

var navLinks = []struct{ Path, Label string }{
	{"/", "Summary"},
	{"/agencies", "Agencies"},
	{"/routes", "Routes"},
	{"/realtime", "Realtime"},
}

// html writes markup and remembers the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) { h.raw(templ.EscapeString(s)) }

// rawf formats with every argument escaped.
func (h *html) rawf(format string, args ...string) {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = templ.EscapeString(a)
	}
	h.raw(fmt.Sprintf(format, escaped...))
}

// link writes an anchor to prefix + escaped id.
func (h *html) link(prefix, id, label string) {
	h.rawf(`<a href="%s">%s</a>`, prefix+url.PathEscape(id), label)
}

func (h *html) cell(s string) {
	h.raw("<td>")
	h.text(s)
	h.raw("</td>")
}

func (h *html) header(cols ...string) {
	h.raw("<table><thead><tr>")
	for _, c := range cols {
		h.raw("<th>")
		h.text(c)
		h.raw("</th>")
	}
	h.raw("</tr></thead><tbody>")
}

func (h *html) endTable() { h.raw("</tbody></table>") }

// component adapts a body writer to a templ.Component.
func component(body func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		body(h)
		return h.err
	})
}

// Layout wraps body in the common page chrome.
func Layout(p Page, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.rawf(`<title>%s · transitfeed</title>`, p.Title)
		h.raw(`<style>body{font-family:system-ui,sans-serif;margin:1rem 2rem}table{border-collapse:collapse}td,th{padding:.2rem .6rem;border-bottom:1px solid #ddd;text-align:left}nav a{margin-right:1rem}nav a.active{font-weight:bold}.alert{border-left:4px solid #e63946;padding:.3rem .8rem;margin:.5rem 0}.swatch{display:inline-block;padding:0 .4rem}</style>`)
		h.raw(`</head><body><nav>`)
		for _, l := range navLinks {
			class := ""
			if l.Path == p.CurrentPath {
				class = ` class="active"`
			}
			h.raw(`<a href="` + l.Path + `"` + class + `>` + l.Label + `</a>`)
		}
		h.raw(`</nav><main><h1>`)
		h.text(p.Title)
		h.raw(`</h1>`)
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// LoadingPage is shown while the first feed is being loaded.
func LoadingPage() templ.Component {
	return Layout(Page{Title: "Loading"}, component(func(h *html) {
		h.raw(`<meta http-equiv="refresh" content="5">`)
		h.raw(`<p role="status">Please wait, the feed is being loaded. This page will refresh automatically.</p>`)
	}))
}
