package http

import "net/http"

// Handler is a plain handler func
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what the ops surface mounts onto
type Router interface {
	// Get serves GET only
	Get(path string, h Handler)
	// Probe serves GET and HEAD, for load balancer and orchestrator checks
	Probe(path string, h Handler)
	// Handle mounts a stock http.Handler for every method
	Handle(path string, h http.Handler)

	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(pattern string, fn func(Router))

	// Mux is the root handler handed to the server
	Mux() http.Handler
}
