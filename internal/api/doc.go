// Package api exposes the task services over HTTP. Handlers decode and
// validate requests, call one service method, and map its errors onto
// status codes; no business rule lives here.
package api
