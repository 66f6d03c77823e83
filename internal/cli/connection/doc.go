// Package connection provides the HTTP client toptube-cli uses to talk
// to a toptube server.
//
// Failed requests are decoded from the server's error envelope into
// *APIError so callers can branch on the code or reason.
package connection
