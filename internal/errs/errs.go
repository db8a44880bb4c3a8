// Package errs defines the error types returned to API clients.
//
// Every failure a request can end in (validation, not found, store errors)
// is expressed as an *HTTPError so the global error handler can write one
// consistent JSON shape.
package errs
