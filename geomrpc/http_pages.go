// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Human-facing pages served next to the Arrow endpoint, so a browser
// hitting the service sees what it is instead of a binary stream.

const notFoundHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>404 &mdash; geom-rpc endpoint</title>
<style>
  body { font-family: system-ui, -apple-system, sans-serif; max-width: 600px;
         margin: 60px auto; padding: 0 20px; color: #333; text-align: center; }
  h1 { color: #555; }
  code { background: #f4f4f4; padding: 2px 6px; border-radius: 3px; font-size: 0.95em; }
  a { color: #0066cc; }
  p { line-height: 1.6; }
</style>
</head>
<body>
<h1>404 &mdash; Not Found</h1>
<p>This is a <code>geom-rpc</code> geometry service endpoint%s.</p>
<p>RPC methods accept <code>POST %s/&lt;method&gt;</code> with Arrow IPC bodies.</p>
<p>See the <a href="%s/describe">API reference</a>.</p>
</body>
</html>`

const landingHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s &mdash; geom-rpc</title>
<style>
  body { font-family: system-ui, -apple-system, sans-serif; max-width: 600px;
         margin: 0 auto; padding: 60px 20px 0; color: #2c2c2c; text-align: center; }
  h1 { color: #1a3a5c; margin-bottom: 8px; }
  code { background: #f0f2f4; padding: 2px 6px; border-radius: 3px; font-size: 0.9em; }
  a { color: #1a3a5c; }
  p { line-height: 1.7; color: #5a5a5a; }
  .links a { display: inline-block; margin-top: 24px; padding: 8px 18px;
              border-radius: 6px; border: 1px solid #1a3a5c; font-weight: 600;
              font-size: 0.9em; text-decoration: none; }
</style>
</head>
<body>
<h1>%s</h1>
<p>Powered by <code>geom-rpc</code> &middot; server <code>%s</code></p>
<p>Geometry formulas over Arrow IPC: circle, rectangle, and triangle areas,
with client-controlled log forwarding.</p>
<div class="links"><a href="%s/describe">View service API</a></div>
</body>
</html>`

const describeHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s API Reference &mdash; geom-rpc</title>
<style>
  body { font-family: system-ui, -apple-system, sans-serif; max-width: 900px;
         margin: 0 auto; padding: 40px 20px 0; color: #2c2c2c; }
  .header { text-align: center; margin-bottom: 40px; }
  .header h1 { margin-bottom: 4px; color: #1a3a5c; }
  code { font-family: ui-monospace, monospace; background: #f0f2f4;
          padding: 2px 6px; border-radius: 3px; font-size: 0.85em; }
  .card { border: 1px solid #e0e4e8; border-radius: 8px; padding: 20px;
           margin-bottom: 16px; }
  .method-name { font-family: ui-monospace, monospace; font-size: 1.1em;
                  font-weight: 600; color: #1a3a5c; }
  .doc { color: #5a5a5a; margin: 8px 0 0; }
  table { width: 100%%; border-collapse: collapse; font-size: 0.9em; }
  th { text-align: left; padding: 8px 10px; background: #f0f2f4;
        border-bottom: 2px solid #e0e4e8; }
  td { padding: 8px 10px; border-bottom: 1px solid #f0f2f4; }
  .section-label { font-size: 0.8em; font-weight: 600; text-transform: uppercase;
                    letter-spacing: 0.05em; color: #5a5a5a; margin: 14px 0 6px; }
</style>
</head>
<body>
<div class="header">
  <h1>%s</h1>
  <p>API Reference &middot; server <code>%s</code></p>
</div>
%s
</body>
</html>`

// arrowTypeLabel renders a field type for the reference page.
func arrowTypeLabel(dt arrow.DataType) string {
	switch t := dt.(type) {
	case *arrow.Float64Type:
		return "float64"
	case *arrow.ListType:
		return "list<" + arrowTypeLabel(t.Elem()) + ">"
	default:
		return dt.String()
	}
}

func buildNotFoundHTML(prefix, protocolName string) []byte {
	var fragment string
	if protocolName != "" {
		fragment = " serving <strong>" + html.EscapeString(protocolName) + "</strong>"
	}
	return []byte(fmt.Sprintf(notFoundHTMLTemplate,
		fragment,
		html.EscapeString(prefix),
		html.EscapeString(prefix),
	))
}

func buildLandingHTML(prefix, protocolName, serverID string) []byte {
	return []byte(fmt.Sprintf(landingHTMLTemplate,
		html.EscapeString(protocolName), // <title>
		html.EscapeString(protocolName), // <h1>
		html.EscapeString(serverID),
		html.EscapeString(prefix),
	))
}

func buildDescribeHTML(s *Server, protocolName string) []byte {
	var cards strings.Builder
	for _, name := range s.availableMethods() {
		buildMethodCard(&cards, s.methods[name])
	}

	return []byte(fmt.Sprintf(describeHTMLTemplate,
		html.EscapeString(protocolName), // <title>
		html.EscapeString(protocolName), // <h1>
		html.EscapeString(s.serverID),
		cards.String(),
	))
}

func buildMethodCard(w *strings.Builder, info *methodInfo) {
	w.WriteString(`<div class="card">`)
	fmt.Fprintf(w, `<span class="method-name">%s</span>`, html.EscapeString(info.Name))
	if info.Doc != "" {
		fmt.Fprintf(w, `<p class="doc">%s</p>`, html.EscapeString(info.Doc))
	}

	w.WriteString(`<div class="section-label">Parameters</div>`)
	w.WriteString(`<table><tr><th>Name</th><th>Type</th></tr>`)
	for i := range info.ParamsSchema.NumFields() {
		f := info.ParamsSchema.Field(i)
		fmt.Fprintf(w, `<tr><td><code>%s</code></td><td><code>%s</code></td></tr>`,
			html.EscapeString(f.Name),
			html.EscapeString(arrowTypeLabel(f.Type)),
		)
	}
	w.WriteString(`</table>`)

	w.WriteString(`<div class="section-label">Returns</div>`)
	w.WriteString(`<table><tr><th>Name</th><th>Type</th></tr>`)
	for i := range info.ResultSchema.NumFields() {
		f := info.ResultSchema.Field(i)
		fmt.Fprintf(w, `<tr><td><code>%s</code></td><td><code>%s</code></td></tr>`,
			html.EscapeString(f.Name),
			html.EscapeString(arrowTypeLabel(f.Type)),
		)
	}
	w.WriteString(`</table>`)

	w.WriteString(`</div>`)
	w.WriteString("\n")
}

func (h *HttpServer) handleLandingPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.landingHTML)
}

func (h *HttpServer) handleDescribePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.describeHTML)
}

func (h *HttpServer) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(h.notFoundHTML)
}
