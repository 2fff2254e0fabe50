// Package api exposes the quiz engine over HTTP. Handlers translate requests
// into quiz.Service calls and service errors into status codes; they never
// return internal error text to clients.
package api
