package login

import (
	"context"
	"log"
	"strings"

	"credential-orchestrator/internal/credential/domain"
	identitydomain "credential-orchestrator/internal/identity/domain"
	"credential-orchestrator/internal/idp"
	teldomain "credential-orchestrator/internal/telemetry/domain"
)

func (s *Session) retrieveRequest() domain.RetrieveRequest {
	return domain.RetrieveRequest{
		SupportedMethods: []identitydomain.AuthenticationMethod{
			identitydomain.AuthMethodEmail,
			identitydomain.AuthMethodGoogle,
		},
		TokenProviders: s.registry.TokenProviders(),
	}
}

func (s *Session) start(ctx context.Context) error {
	if s.users.GetCurrentUser() != nil {
		s.complete(ctx)
		return nil
	}

	s.setPhase(PhaseRetrievingSavedCredential)
	s.nav.ShowLoading()
	cred, err := s.credentials.Retrieve(ctx, s.retrieveRequest())
	if !isStoreMiss(err) {
		log.Printf("login: session %s: retrieve saved credential: %v", s.id, err)
	}
	if err == nil && cred != nil {
		s.setPhase(PhaseAuthenticatingSaved)
		methods, err := s.users.FindExistingAccount(ctx, cred.Identifier)
		if err != nil {
			return err
		}
		if methods.Empty() {
			log.Printf("login: session %s: no account for saved credential", s.id)
		}
		return s.authWithCredential(ctx, *cred)
	}
	return s.requestHint(ctx)
}

func (s *Session) requestHint(ctx context.Context) error {
	s.setPhase(PhaseRequestingHint)
	hint, err := s.credentials.RequestHint(ctx, s.retrieveRequest())
	if !isStoreMiss(err) {
		log.Printf("login: session %s: request hint: %v", s.id, err)
	}
	if err != nil || hint == nil {
		s.askForEmail("", false)
		return nil
	}

	methods, err := s.users.FindExistingAccount(ctx, hint.Identifier)
	if err != nil {
		return err
	}
	if methods.Empty() {
		return s.createFromHint(ctx, *hint)
	}
	return s.authWithCredential(ctx, domain.FromHint(*hint))
}

// createFromHint tries, in order, the hint's ID token, a federated provider
// for its identifier, then its generated password. The first success is saved.
func (s *Session) createFromHint(ctx context.Context, hint domain.Hint) error {
	cred := domain.FromHint(hint)
	s.nav.ShowLoading()

	if hint.IDToken != "" {
		s.setPhase(PhaseAuthenticatingIDToken)
		ok, err := s.users.AuthWithIDToken(ctx, hint.IDToken)
		if err != nil {
			return err
		}
		if ok {
			s.save(ctx, cred, false)
			return nil
		}
		s.authFailed(ctx, hint.Method, "hint ID token rejected")
	}

	p, found := s.registry.ByEmailDomain(hint.Identifier)
	if !found {
		p, found = s.federatedProvider(hint.Method)
	}
	if found {
		s.startFederated(p, hint.Identifier, false)
		return nil
	}

	if hint.Method.IsEmailEquivalent() && hint.GeneratedPassword != "" {
		s.setPhase(PhaseAuthenticatingPassword)
		ok, err := s.users.CreatePasswordAccount(ctx, hint.Identifier, hint.GeneratedPassword)
		if err != nil {
			return err
		}
		if ok {
			cred.Password = hint.GeneratedPassword
			s.save(ctx, cred, false)
			return nil
		}
		s.authFailed(ctx, hint.Method, "generated password account rejected")
	}

	s.askForNewPassword(hint.Identifier, false)
	return nil
}

// authWithCredential signs in with a credential the store or a hint already
// knows about. A rejected credential is not retried by other means.
func (s *Session) authWithCredential(ctx context.Context, cred domain.Credential) error {
	var (
		ok  bool
		err error
	)
	s.nav.ShowLoading()
	switch {
	case cred.IDToken != "":
		s.setPhase(PhaseAuthenticatingIDToken)
		ok, err = s.users.AuthWithIDToken(ctx, cred.IDToken)
	case cred.Method.IsEmailEquivalent() && cred.Password != "":
		s.setPhase(PhaseAuthenticatingPassword)
		ok, err = s.users.AuthWithPassword(ctx, cred.Identifier, cred.Password)
	default:
		if p, found := s.federatedProvider(cred.Method); found {
			s.startFederated(p, cred.Identifier, true)
			return nil
		}
		if cred.Method.IsEmailEquivalent() {
			s.askForExistingPassword(cred.Identifier)
			return nil
		}
		s.authFailed(ctx, cred.Method, "unsupported credential method")
		s.askForEmail(cred.Identifier, true)
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		s.authFailed(ctx, cred.Method, "known credential rejected")
		s.askForEmail(cred.Identifier, true)
		return nil
	}
	s.save(ctx, cred, true)
	return nil
}

func (s *Session) signIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	s.pending = nil
	if email == "" {
		s.askForEmail("", true)
		return nil
	}

	s.nav.ShowLoading()
	methods, err := s.users.FindExistingAccount(ctx, email)
	if err != nil {
		return err
	}

	if methods.Empty() {
		if p, found := s.registry.ByEmailDomain(email); found {
			s.startFederated(p, email, false)
			return nil
		}
		if password == "" {
			s.askForNewPassword(email, false)
			return nil
		}
		s.setPhase(PhaseAuthenticatingPassword)
		ok, err := s.users.CreatePasswordAccount(ctx, email, password)
		if err != nil {
			return err
		}
		if !ok {
			s.authFailed(ctx, identitydomain.AuthMethodEmail, "password account creation rejected")
			s.askForNewPassword(email, true)
			return nil
		}
		s.save(ctx, passwordCredential(email, password), true)
		return nil
	}

	if methods.Contains(identitydomain.AuthMethodGoogle) {
		if p, found := s.registry.ByAuthMethod(identitydomain.AuthMethodGoogle); found {
			s.startFederated(p, email, false)
			return nil
		}
	}

	if methods.Contains(identitydomain.AuthMethodEmail) {
		if password == "" {
			s.askForExistingPassword(email)
			return nil
		}
		s.setPhase(PhaseAuthenticatingPassword)
		ok, err := s.users.AuthWithPassword(ctx, email, password)
		if err != nil {
			return err
		}
		if !ok {
			s.authFailed(ctx, identitydomain.AuthMethodEmail, "password rejected")
			s.askForPasswordRetry(email)
			return nil
		}
		s.save(ctx, passwordCredential(email, password), true)
		return nil
	}

	for _, m := range methods.Sorted() {
		if p, found := s.federatedProvider(m); found {
			s.startFederated(p, email, false)
			return nil
		}
	}

	s.authFailed(ctx, "", "account has no supported sign-in method")
	s.askForEmail(email, true)
	return nil
}

func (s *Session) federatedResult(ctx context.Context, idToken string, resultErr error) error {
	attempt := s.pending
	s.pending = nil
	if attempt == nil || s.Phase() != PhaseAuthenticatingFederated {
		log.Printf("login: session %s: federated result without a pending attempt", s.id)
		return nil
	}
	method := attempt.provider.AuthMethod
	if resultErr != nil || idToken == "" {
		detail := "federated sign-in returned no ID token"
		if resultErr != nil {
			detail = "federated sign-in failed: " + resultErr.Error()
		}
		s.authFailed(ctx, method, detail)
		s.askForEmail(attempt.loginHint, true)
		return nil
	}

	s.setPhase(PhaseAuthenticatingIDToken)
	s.nav.ShowLoading()
	ok, err := s.users.AuthWithIDToken(ctx, idToken)
	if err != nil {
		return err
	}
	if !ok {
		s.authFailed(ctx, method, "federated ID token rejected")
		s.askForEmail(attempt.loginHint, true)
		return nil
	}
	s.save(ctx, domain.Credential{Identifier: attempt.loginHint, Method: method}, attempt.skipDuplicate)
	return nil
}

// federatedProvider returns the registered provider for a non-password method.
func (s *Session) federatedProvider(m identitydomain.AuthenticationMethod) (idp.Provider, bool) {
	if m == "" || m.IsEmailEquivalent() {
		return idp.Provider{}, false
	}
	return s.registry.ByAuthMethod(m)
}

func (s *Session) startFederated(p idp.Provider, loginHint string, skipDuplicate bool) {
	s.setPhase(PhaseAuthenticatingFederated)
	s.pending = &federatedAttempt{provider: p, loginHint: loginHint, skipDuplicate: skipDuplicate}
	s.emit(teldomain.EventFederatedStarted, p.AuthMethod, p.Issuer)
	s.nav.ShowLoading()
	s.nav.StartFederatedAuth(idp.BuildAuthorizationRequest(p, loginHint))
}

// save offers cred to the credential store and completes the session
// whatever the store reports. With skipDuplicate set, nothing is sent to
// DuplicateSavingProvider.
func (s *Session) save(ctx context.Context, cred domain.Credential, skipDuplicate bool) {
	s.setPhase(PhaseSavingCredential)
	provider := s.credentials.ProviderName()
	if skipDuplicate && provider == DuplicateSavingProvider {
		log.Printf("login: session %s: skipping credential save for %s", s.id, provider)
		s.complete(ctx)
		return
	}
	result, err := s.credentials.Save(ctx, cred)
	switch {
	case err == nil:
		log.Printf("login: session %s: credential save: %s", s.id, result)
		s.emit(teldomain.EventCredentialSaved, cred.Method, string(result))
	case isStoreMiss(err):
		log.Printf("login: session %s: no credential store for save", s.id)
	default:
		log.Printf("login: session %s: credential save failed: %v", s.id, err)
	}
	s.complete(ctx)
}

func passwordCredential(email, password string) domain.Credential {
	return domain.Credential{Identifier: email, Method: identitydomain.AuthMethodEmail, Password: password}
}

func (s *Session) showForm(phase Phase, f Form) {
	s.setPhase(phase)
	s.nav.ShowForm(f)
}

func (s *Session) askForEmail(email string, errorShown bool) {
	s.showForm(PhaseAwaitingEmailInput, Form{
		Prompt: PromptEnterEmail, ShowEmail: true, ErrorShown: errorShown, Email: email,
	})
}

func (s *Session) askForNewPassword(email string, errorShown bool) {
	s.showForm(PhaseAwaitingPasswordInput, Form{
		Prompt: PromptChoosePassword, ShowEmail: true, ShowPassword: true, ErrorShown: errorShown, Email: email,
	})
}

func (s *Session) askForExistingPassword(email string) {
	s.showForm(PhaseAwaitingPasswordInput, Form{
		Prompt: PromptEnterPassword, ShowEmail: true, ShowPassword: true, Email: email,
	})
}

func (s *Session) askForPasswordRetry(email string) {
	s.showForm(PhaseAwaitingPasswordInput, Form{
		Prompt: PromptRetryPassword, ShowEmail: true, ShowPassword: true, ErrorShown: true, Email: email,
	})
}
