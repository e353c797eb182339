// Package exitcode defines the process exit codes of chatdo.
package exitcode

// Exit codes returned by every command.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError covers bad arguments, unknown task refs, an invalid
	// config.yaml and a listen address that cannot be bound.
	UserError = 1

	// AuthError means a credential is missing or rejected: the Gemini API
	// key for chat, the Google OAuth client or token for sync.
	AuthError = 2

	// BackendError covers assistant, Google Tasks and storage failures.
	BackendError = 3
)
