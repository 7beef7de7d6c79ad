package middleware

import (
	"net/http"
	"strings"
)

// RobotsDirectives maps a page path ("/texas/austin/food-truck-permit/") to
// the robots directive its HTML head carries.
type RobotsDirectives map[string]string

// Lookup finds the directive for a request path. The directory form and its
// index.html form are the same page.
func (d RobotsDirectives) Lookup(path string) (string, bool) {
	if p, ok := strings.CutSuffix(path, "/index.html"); ok {
		path = p + "/"
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	v, ok := d[path]
	return v, ok
}

// NewRobotsTagHandler returns a middleware that repeats a permit page's robots
// directive in the X-Robots-Tag response header, so crawlers honouring
// either signal see the same decision. Paths without a directive pass through
// untouched.
func NewRobotsTagHandler(directives RobotsDirectives) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := directives.Lookup(r.URL.Path); ok {
				w.Header().Set("X-Robots-Tag", v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
