// login runs one interactive login session in the terminal. Federated
// sign-in prints the provider authorization URL and reads back the
// authorization code from the redirect.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"credential-orchestrator/internal/app"
	"credential-orchestrator/internal/config"
	"credential-orchestrator/internal/idp"
	"credential-orchestrator/internal/login"
	"credential-orchestrator/internal/telemetry"
)

var errCancelled = errors.New("federated sign-in cancelled")

func main() {
	signOut := flag.Bool("signout", false, "Sign out the current user before logging in")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	defer func() {
		if cfg.OTLPEndpoint != "" {
			time.Sleep(telemetry.ShutdownDrainDuration)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(shutdownCtx); err != nil {
			log.Printf("login: shutdown: %v", err)
		}
	}()

	if *signOut {
		a.Users.SignOut()
		fmt.Println("Signed out.")
	}

	if err := run(ctx, a, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("login: %v", err)
		return
	}
}

func run(ctx context.Context, a *app.App, in io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}
	lines := make(chan string)
	go readLines(in, lines)

	nav := newTerminalNavigator(func() { fmt.Fprintln(out, "Working...") })
	session := a.NewSession(nav)
	httpClient := &http.Client{Timeout: 30 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-session.Done():
			return session.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	g.Go(func() error {
		if err := session.Start(); err != nil {
			return err
		}
		for {
			var ev uiEvent
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev = <-nav.events:
			}
			switch {
			case ev.complete:
				if u := a.Users.GetCurrentUser(); u != nil {
					fmt.Fprintf(out, "Signed in as %s.\n", u.Email)
				} else {
					fmt.Fprintln(out, "Signed in.")
				}
				return nil
			case ev.fault != nil:
				return fmt.Errorf("session aborted: %w", ev.fault)
			case ev.form != nil:
				email, password, err := promptForm(ctx, *ev.form, lines, out)
				if err != nil {
					return err
				}
				if err := session.SignIn(email, password); err != nil {
					return err
				}
			case ev.federated != nil:
				req := *ev.federated
				code, err := promptCode(ctx, req, lines, out)
				if err != nil {
					return err
				}
				if err := exchangeAndResume(a, session, req, code, httpClient); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait()
}

// exchangeAndResume redeems the authorization code on a worker and feeds the
// resulting ID token back to the session.
func exchangeAndResume(a *app.App, session *login.Session, req idp.AuthorizationRequest, code string, httpClient *http.Client) error {
	if code == "" {
		return session.HandleFederatedResult("", errCancelled)
	}
	return a.Pool.Submit(func(ctx context.Context) {
		idToken, err := idp.Exchange(ctx, req, code, httpClient)
		if err != nil {
			log.Printf("login: code exchange with %s: %v", req.Issuer, err)
		}
		if err := session.HandleFederatedResult(idToken, err); err != nil {
			log.Printf("login: resume session: %v", err)
		}
	})
}

func promptForm(ctx context.Context, f login.Form, lines <-chan string, out io.Writer) (email, password string, err error) {
	if f.ErrorShown {
		fmt.Fprintln(out, "That didn't work. Please try again.")
	}
	fmt.Fprintf(out, "%s\n", capitalize(string(f.Prompt)))
	email = f.Email
	if f.ShowEmail {
		if email != "" {
			fmt.Fprintf(out, "Email [%s]: ", email)
		} else {
			fmt.Fprint(out, "Email: ")
		}
		line, err := nextLine(ctx, lines)
		if err != nil {
			return "", "", err
		}
		if line != "" {
			email = line
		}
	}
	if f.ShowPassword {
		fmt.Fprint(out, "Password: ")
		if password, err = nextLine(ctx, lines); err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}

func promptCode(ctx context.Context, req idp.AuthorizationRequest, lines <-chan string, out io.Writer) (string, error) {
	fmt.Fprintf(out, "Continue signing in with %s:\n  %s\n", req.Issuer, req.URL())
	fmt.Fprint(out, "Authorization code (empty to cancel): ")
	return nextLine(ctx, lines)
}

func nextLine(ctx context.Context, lines <-chan string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func readLines(in io.Reader, lines chan<- string) {
	defer close(lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		lines <- sc.Text()
	}
}

// lockedWriter serializes writes from the UI loop and worker callbacks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
