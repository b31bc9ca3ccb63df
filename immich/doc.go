// Package immich provides a client for the Immich photo server API.
//
// The client resolves its connection settings from a CredentialStore on
// every call and supports two auth schemes: a static API key and
// email/password login with a cached session token. Password logins are
// single-flight: any number of concurrent callers produce at most one
// network login, and a 401 on a regular call invalidates the token and
// retries the call exactly once with fresh credentials.
//
// Errors are classified into a small taxonomy (see errors.go) so callers
// can tell "not configured yet" apart from network or server failures.
package immich
