// Package client is the Go SDK for the OpenFlag HTTP API.
//
// HTTPClient builds one go-kit HTTP client endpoint per call. After Login the
// session token is attached to every request as "Authorization: Bearer".
//
// # Error Handling
//
// Failures match sentinel errors with errors.Is: ErrNotFound,
// ErrAlreadyExists, ErrUnauthorized, ErrInvalidInput and ErrUnavailable (the
// server could not be reached or answered 503). The concrete *APIError keeps
// the status code and the server's detail message.
package client
