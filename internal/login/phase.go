package login

// Phase is the position of a session in the login state machine.
type Phase int32

const (
	PhaseInit Phase = iota
	PhaseRetrievingSavedCredential
	PhaseRequestingHint
	PhaseAuthenticatingSaved
	PhaseAwaitingEmailInput
	PhaseAwaitingPasswordInput
	PhaseAuthenticatingPassword
	PhaseAuthenticatingFederated
	PhaseAuthenticatingIDToken
	PhaseSavingCredential
	PhaseComplete
	PhaseFaulted
)

var phaseNames = [...]string{
	PhaseInit:                      "init",
	PhaseRetrievingSavedCredential: "retrieving_saved_credential",
	PhaseRequestingHint:            "requesting_hint",
	PhaseAuthenticatingSaved:       "authenticating_saved",
	PhaseAwaitingEmailInput:        "awaiting_email_input",
	PhaseAwaitingPasswordInput:     "awaiting_password_input",
	PhaseAuthenticatingPassword:    "authenticating_password",
	PhaseAuthenticatingFederated:   "authenticating_federated",
	PhaseAuthenticatingIDToken:     "authenticating_id_token",
	PhaseSavingCredential:          "saving_credential",
	PhaseComplete:                  "complete",
	PhaseFaulted:                   "faulted",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFaulted
}
