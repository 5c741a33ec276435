package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_InjectsStylesAndScripts(t *testing.T) {
	files := map[string]string{
		"index.html":   "<html><head><title>shop</title></head><body><div id=\"root\"></div></body></html>",
		"src/main.css": "body{margin:0}",
		"src/app.js":   "document.title='ready'",
	}

	doc := Render(files)

	assert.Contains(t, doc, "/* source: src/main.css */")
	assert.Contains(t, doc, "body{margin:0}")
	assert.Contains(t, doc, "// source: src/app.js")
	assert.Contains(t, doc, "try {")

	// styles land inside the head, scripts inside the body
	head := doc[:strings.Index(doc, "</head>")]
	assert.Contains(t, head, "main.css")
	body := doc[strings.Index(doc, "<body"):strings.Index(doc, "</body>")]
	assert.Contains(t, body, "app.js")
}

func TestRender_PrefersIndexHTML(t *testing.T) {
	files := map[string]string{
		"about.html":     "<html><body>about</body></html>",
		"index.html":     "<html><body>home</body></html>",
		"src/index.html": "<html><body>src home</body></html>",
	}
	assert.Contains(t, Render(files), "home")

	delete(files, "index.html")
	assert.Contains(t, Render(files), "src home")

	delete(files, "src/index.html")
	assert.Contains(t, Render(files), "about")
}

func TestRender_PlaceholderWithoutHTML(t *testing.T) {
	files := map[string]string{
		"src/app.js": "console.log(1)",
	}
	doc := Render(files)
	assert.Contains(t, doc, "No HTML entry document")
	assert.Contains(t, doc, "console.log(1)")
}

func TestRender_SkipsTestFiles(t *testing.T) {
	files := map[string]string{
		"index.html":               "<html><head></head><body></body></html>",
		"src/app.js":               "app()",
		"src/app.test.js":          "test()",
		"src/util.spec.js":         "spec()",
		"src/__tests__/helpers.js": "helpers()",
	}

	doc := Render(files)
	assert.Contains(t, doc, "app()")
	assert.NotContains(t, doc, "test()")
	assert.NotContains(t, doc, "spec()")
	assert.NotContains(t, doc, "helpers()")
}

func TestRender_AppendsWhenMarkersMissing(t *testing.T) {
	files := map[string]string{
		"index.html": "<h1>bare fragment</h1>",
		"a.css":      ".a{}",
		"a.js":       "a()",
	}

	doc := Render(files)
	assert.Contains(t, doc, ".a{}")
	assert.Contains(t, doc, "a()")
	assert.True(t, strings.HasPrefix(doc, "<h1>bare fragment</h1>"))
}
