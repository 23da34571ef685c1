package server

import (
	"html/template"
	"strings"

	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/errors"
)

// HTMLTemplateData is the input to an HTMLRenderer.
type HTMLTemplateData struct {
	URL string
}

// HTMLRenderer produces the full HTML document served for surfaces
// that render locally (post-purchase). Hosting code may replace the
// default with its own templates.
type HTMLRenderer func(data HTMLTemplateData, templateName string, surface core.Surface) (string, error)

var postPurchaseIndex = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>Post-purchase extension</title>
  </head>
  <body>
    <script src="{{.URL}}/assets/main.js" data-extension-url="{{.URL}}"></script>
  </body>
</html>
`))

// RenderHTML is the default HTMLRenderer.
func RenderHTML(data HTMLTemplateData, templateName string, surface core.Surface) (string, error) {
	if templateName != "index" {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown template: "+templateName)
	}
	var b strings.Builder
	if err := postPurchaseIndex.Execute(&b, data); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "template execution failed")
	}
	return b.String(), nil
}
