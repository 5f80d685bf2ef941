// Package auth provides authentication middleware for hostpager-relay.
//
// APIKey(mode, header, key) wraps an http.Handler and compares the named
// request header against the shared secret. Datadog sends the secret as a
// custom header configured on the webhook integration.
//
// When mode != "apikey" or key == "", all requests pass through (useful for
// local development). A missing or wrong secret is answered with 401.
package auth
