package middleware

import "net/http"

type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain wraps f so that the first middleware runs outermost.
func Chain(f http.HandlerFunc, middlewares ...Middleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		f = middlewares[i](f)
	}
	return f
}

// ForMethods applies m only to requests using one of methods.
func ForMethods(m Middleware, methods ...string) Middleware {
	set := make(map[string]struct{}, len(methods))
	for _, method := range methods {
		set[method] = struct{}{}
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		wrapped := m(next)
		return func(w http.ResponseWriter, r *http.Request) {
			if _, ok := set[r.Method]; ok {
				wrapped(w, r)
				return
			}
			next(w, r)
		}
	}
}
