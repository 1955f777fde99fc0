package routing

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
)

type Router struct {
	classifier *Classifier
	routes     map[string]map[string]routeEntry
	patterns   []patternRoutes
	logger     *slog.Logger
}

type routeEntry struct {
	rc      RouteClass
	handler http.Handler
}

type patternRoutes struct {
	pattern PathPattern
	methods map[string]routeEntry
}

type paramsCtxKey struct{}

func NewRouter(classifier *Classifier) *Router {
	return &Router{
		classifier: classifier,
		routes:     make(map[string]map[string]routeEntry),
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithLogger sets the logger used for recovered panics.
func (r *Router) WithLogger(l *slog.Logger) *Router {
	if l != nil {
		r.logger = l
	}
	return r
}

func (r *Router) Handle(rc RouteClass, method string, path string, h http.Handler) {
	entry := routeEntry{rc: rc, handler: r.recovering(rc, h)}

	if p, ok := parsePathPattern(path); ok {
		for i := range r.patterns {
			if r.patterns[i].pattern.raw == path {
				r.patterns[i].methods[method] = entry
				return
			}
		}
		r.patterns = append(r.patterns, patternRoutes{pattern: p, methods: map[string]routeEntry{method: entry}})
		// Most specific first, so "{id}:cancel" wins over "{id}".
		slices.SortStableFunc(r.patterns, func(a, b patternRoutes) int {
			return cmp.Compare(b.pattern.specificity(), a.pattern.specificity())
		})
		return
	}

	if r.routes[path] == nil {
		r.routes[path] = make(map[string]routeEntry)
	}
	r.routes[path][method] = entry
}

func (r *Router) recovering(rc RouteClass, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.ErrorContext(req.Context(), "routing: handler panic",
					"path", req.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				WriteError(w, req, rc, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()
		h.ServeHTTP(w, req)
	})
}

// Template returns the declared path that serves req, or "" when
// nothing matches. Useful as a low-cardinality metrics label.
func (r *Router) Template(req *http.Request) string {
	if _, ok := r.routes[req.URL.Path]; ok {
		return req.URL.Path
	}
	for _, p := range r.patterns {
		if _, ok := p.pattern.Match(req.URL.Path); ok {
			return p.pattern.raw
		}
	}
	return ""
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	methods, params, ok := r.lookup(req.URL.Path)
	if !ok {
		WriteError(w, req, r.classifier.Classify(req.URL.Path), http.StatusNotFound, "not_found", "not found")
		return
	}
	entry, ok := methods[req.Method]
	if !ok {
		WriteError(w, req, entrypointClass(methods, r.classifier.Classify(req.URL.Path)), http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if len(params) > 0 {
		req = req.WithContext(context.WithValue(req.Context(), paramsCtxKey{}, params))
	}
	entry.handler.ServeHTTP(w, req)
}

func (r *Router) lookup(path string) (map[string]routeEntry, map[string]string, bool) {
	if methods, ok := r.routes[path]; ok {
		return methods, nil, true
	}
	for _, p := range r.patterns {
		if params, ok := p.pattern.Match(path); ok {
			return p.methods, params, true
		}
	}
	return nil, nil, false
}

// PathParam returns the named path parameter captured by the Router.
func PathParam(r *http.Request, name string) string {
	params, _ := r.Context().Value(paramsCtxKey{}).(map[string]string)
	return params[name]
}

func entrypointClass(methods map[string]routeEntry, fallback RouteClass) RouteClass {
	for _, e := range methods {
		return e.rc
	}
	return fallback
}
