// Package auth implements authentication for the three account classes:
// admins, librarians, and students.
//
// Passwords are stored as bcrypt hashes and verified with constant-time
// comparison. Successful logins get a server-side session (SQLite-backed
// scs store); repeated failures lock the account for a configurable
// duration. Gin middleware guards the API routes and exposes the
// authenticated account to handlers through the request context.
package auth
