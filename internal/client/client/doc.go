// Package client talks to the Remote API.
//
// Client is the transport-agnostic contract the sync engine and the CLI
// depend on; HTTPClient implements it over the Remote API's JSON endpoints.
//
// # Error Handling
//
// Every failed call returns a *common.NetworkError. StatusCode is zero when
// no response arrived (ErrUnavailable is wrapped then). A 404 wraps
// common.ErrorNotFound and a 401 wraps common.ErrorUnauthorized, so callers
// can match them with errors.Is; Retryable tells transient failures apart.
package client
