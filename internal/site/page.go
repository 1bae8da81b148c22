package site

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// Page is the body sent with a 410 answer
type Page struct {
	ContentType string
	Body        []byte
}

// DefaultPage is a generic not-found page. It does not reveal that the
// content was removed on purpose.
var DefaultPage = Page{
	ContentType: "text/html; charset=utf-8",
	Body: []byte(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="robots" content="noindex"><title>Not Found</title></head>
<body><h1>Not Found</h1><p>The requested URL was not found on this server.</p></body>
</html>
`),
}

// LoadPage reads a custom page from disk; the content type follows the extension
func LoadPage(path string) (Page, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Page{}, fmt.Errorf("failed to read gone page: %w", err)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "text/html; charset=utf-8"
	}
	return Page{ContentType: ct, Body: body}, nil
}
