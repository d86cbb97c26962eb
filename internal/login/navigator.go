package login

import "credential-orchestrator/internal/idp"

// Prompt is the action the login form asks the user to take.
type Prompt string

const (
	PromptEnterEmail     Prompt = "enter email"
	PromptChoosePassword Prompt = "choose password"
	PromptEnterPassword  Prompt = "enter password"
	PromptRetryPassword  Prompt = "enter password again"
)

// Form is the state of the login form shown while the session waits for input.
type Form struct {
	Prompt       Prompt
	ShowEmail    bool
	ShowPassword bool
	// ErrorShown is set after a failed attempt.
	ErrorShown bool
	// Email prefills the email field when non-empty.
	Email string
}

// Navigator presents the session to the user. Its methods are called from
// worker goroutines and must not block for long.
type Navigator interface {
	// ShowLoading is called before the session waits on the backend or a store.
	ShowLoading()
	ShowForm(f Form)
	// StartFederatedAuth hands the user to the provider. The caller reports the
	// outcome through Session.HandleFederatedResult.
	StartFederatedAuth(req idp.AuthorizationRequest)
	// AuthComplete signals the session authenticated the user.
	AuthComplete()
	// Fault signals the session was aborted and cannot continue.
	Fault(err error)
}
