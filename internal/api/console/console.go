// Package console serves a single HTML page with one form per API operation
// for poking at the API by hand.
package console

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

//go:embed console.html
var pageSource string

// fieldGroup is the data of the recursive "field" template.
type fieldGroup struct {
	Prefix string
	Fields []Field
}

var page = template.Must(template.New("console").Funcs(template.FuncMap{
	"nested": func(prefix string, fields []Field) fieldGroup {
		return fieldGroup{Prefix: prefix, Fields: fields}
	},
}).Parse(pageSource))

// Render writes the console page for ops.
func Render(ops []Operation) ([]byte, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, ops); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Handler serves the console page. The page is rendered once.
func Handler() (fiber.Handler, error) {
	body, err := Render(Operations)
	if err != nil {
		return nil, err
	}
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Status(fiber.StatusOK).Send(body)
	}, nil
}
