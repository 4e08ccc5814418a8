// Package api handles incoming HTTP requests for the review engine: the
// ranked review queue, review submission, review sessions and the item
// lifecycle. It translates HTTP concerns to review_session.Service calls
// and maps service errors to status codes without leaking internals.
//
// Callers are identified by the X-User-ID header set by the upstream
// gateway; see middleware.UserIdentity.
package api
