// Package web holds the static assets served by the counter backend.
package web

import _ "embed"

//go:embed index.html
var indexPage []byte

// IndexPage returns the landing page document.
func IndexPage() []byte {
	return indexPage
}
