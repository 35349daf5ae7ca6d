// Package exitcode defines exit codes for the CLI.
package exitcode

// Exit codes returned by every command.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown list or task, ambiguous name).
	UserError = 1

	// AuthError indicates the account could not be authorized or the session expired.
	AuthError = 2

	// BackendError indicates a Google Tasks API or network failure.
	BackendError = 3
)
