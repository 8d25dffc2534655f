package guest

import "errors"

var (
	// ErrRegistration means the guest could not be signed up. Nothing was
	// saved; the form can be submitted again.
	ErrRegistration = errors.New("guest registration failed")

	// ErrChatStart means the chat could not be opened. When returned from
	// RegisterAndStartChat the guest is registered and remembered.
	ErrChatStart = errors.New("could not start chat")

	// ErrVerification is logged when a remembered guest could not be checked
	// with the server. It is never returned to callers of Load.
	ErrVerification = errors.New("guest verification unavailable")

	ErrInvalidProfile    = errors.New("invalid guest profile")
	ErrInvalidAccessCode = errors.New("invalid access code")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrNoSession         = errors.New("no chat session")
)
