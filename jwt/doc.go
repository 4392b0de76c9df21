// Package jwt signs session values into compact tokens and verifies them
// with strict algorithm, issuer, audience and key-id checks. It backs the
// stateless cookie session store.
package jwt
