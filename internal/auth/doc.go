// Package auth provides accounts and token authentication for the
// telemetry service.
//
// Accounts are stored in the users table with Argon2id password hashes in
// PHC string format. A successful login issues an HS256 JWT whose subject
// is the user ID; that ID is the owner ID for every device the caller
// registers.
//
// Access tokens are not stored. Authenticate checks the signature and
// expiry, then confirms the subject still exists.
package auth
