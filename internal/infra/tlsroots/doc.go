// Package tlsroots loads TLS trust roots and serving key pairs.
//
// NewPool and ClientTLSConfig build client trust from the system roots
// plus optional PEM bundles. KeyPairReloader serves a certificate that
// is reloaded whenever its files change on disk.
package tlsroots
