// Package cache is the request-interception layer. Interceptor is an
// http.Handler placed in front of the application origin; for every GET it
// picks a caching strategy from the kind of resource requested and answers
// from the network, from a named cache, or with a synthetic offline
// response.
package cache
