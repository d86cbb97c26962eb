package main

import (
	"credential-orchestrator/internal/idp"
	"credential-orchestrator/internal/login"
)

// uiEvent is one navigator call forwarded to the terminal loop.
type uiEvent struct {
	form      *login.Form
	federated *idp.AuthorizationRequest
	complete  bool
	fault     error
}

// terminalNavigator forwards session callbacks to the terminal loop so that
// worker goroutines never touch stdin.
type terminalNavigator struct {
	events  chan uiEvent
	loading func()
}

func newTerminalNavigator(loading func()) *terminalNavigator {
	return &terminalNavigator{events: make(chan uiEvent, 8), loading: loading}
}

func (n *terminalNavigator) ShowLoading() {
	if n.loading != nil {
		n.loading()
	}
}

func (n *terminalNavigator) ShowForm(f login.Form) { n.events <- uiEvent{form: &f} }

func (n *terminalNavigator) StartFederatedAuth(req idp.AuthorizationRequest) {
	n.events <- uiEvent{federated: &req}
}

func (n *terminalNavigator) AuthComplete() { n.events <- uiEvent{complete: true} }

func (n *terminalNavigator) Fault(err error) { n.events <- uiEvent{fault: err} }
