// Package directory provides account directories for the sessiongate engine.
//
// [Memory] keeps accounts in process and [Redis] keeps them as Redis hashes.
// Both store argon2id password hashes and resolve identifiers given as a
// username string, an [Account], or an account decoded from a session
// (a map with a "username" field).
//
// A disabled account never resolves. Only accounts with APIEnabled set
// resolve for per-request uid/key credentials.
package directory
