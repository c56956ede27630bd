// Package httpapi mounts the tracking store, artifact subsystem, and model
// registry under an HTTP API, plus two HTML pages for browsing.
//
// The handlers are a thin boundary: decode input, call one operation, encode
// the result. Error kinds map to status codes in one place (respond.go) so
// a rejected path is always a 400, a quota violation a 413, and absence a
// 404, never a silent fallback.
package httpapi
