package contract

import "errors"

var (
	// ErrConfiguration marks missing or invalid credentials; fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidTransition is returned when a role requests a handoff to a
	// target outside its allowed set. The active role stays unchanged.
	ErrInvalidTransition = errors.New("invalid role transition")
	// ErrSessionTerminated rejects dispatches after the session ended.
	ErrSessionTerminated = errors.New("session is terminated")
	// ErrCollaborator wraps failures of external collaborators (transport,
	// model provider, browser engine).
	ErrCollaborator = errors.New("collaborator failed")

	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
)
