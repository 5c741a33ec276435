// Package preview assembles the flat files of a generated project into one
// renderable HTML document for sandboxed display. This is a best-effort
// static composition, not a bundler: no import resolution, no dependency
// ordering beyond file enumeration order.
package preview

import (
	"fmt"
	"sort"
	"strings"
)

const placeholderDoc = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Preview</title></head>
<body>
<p style="font-family:monospace;color:#888">No HTML entry document in this project.</p>
</body>
</html>`

// Render selects the entry HTML document, injects every stylesheet into the
// head and every non-test script into the body, and returns the composed
// document. One script's runtime error must not prevent the others from
// executing, so each is wrapped in an exception guard.
func Render(files map[string]string) string {
	doc, ok := entryDocument(files)
	if !ok {
		doc = placeholderDoc
	}

	var styles strings.Builder
	for _, p := range pathsWithSuffix(files, ".css") {
		fmt.Fprintf(&styles, "<style>\n/* source: %s */\n%s\n</style>\n", p, files[p])
	}

	var scripts strings.Builder
	for _, p := range pathsWithSuffix(files, ".js") {
		if isTestFile(p) {
			continue
		}
		fmt.Fprintf(&scripts,
			"<script>\n// source: %s\ntry {\n%s\n} catch (e) { console.error('preview error in %s:', e); }\n</script>\n",
			p, files[p], p)
	}

	doc = injectBefore(doc, "</head>", styles.String())
	doc = injectBefore(doc, "</body>", scripts.String())
	return doc
}

// entryDocument picks index.html, then src/index.html, then the first .html
// path in sorted order.
func entryDocument(files map[string]string) (string, bool) {
	if c, ok := files["index.html"]; ok {
		return c, true
	}
	if c, ok := files["src/index.html"]; ok {
		return c, true
	}
	for _, p := range pathsWithSuffix(files, ".html") {
		return files[p], true
	}
	return "", false
}

func pathsWithSuffix(files map[string]string, suffix string) []string {
	var out []string
	for p := range files {
		if strings.HasSuffix(p, suffix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func isTestFile(path string) bool {
	return strings.HasSuffix(path, ".test.js") ||
		strings.HasSuffix(path, ".spec.js") ||
		strings.Contains(path, "__tests__/")
}

// injectBefore inserts chunk before the last occurrence of marker, or appends
// it when the marker is absent.
func injectBefore(doc, marker, chunk string) string {
	if chunk == "" {
		return doc
	}
	idx := strings.LastIndex(doc, marker)
	if idx < 0 {
		idx = strings.LastIndex(doc, strings.ToUpper(marker))
	}
	if idx < 0 {
		return doc + "\n" + chunk
	}
	return doc[:idx] + chunk + doc[idx:]
}
