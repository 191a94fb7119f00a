// Package httpserver owns the http.Server construction so timeout policy
// lives in one place.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. The write timeout is generous because status
// changes can wait on a row lock under contention.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
