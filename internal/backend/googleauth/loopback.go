package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/oauth2"
)

// Loopback runs the installed-app authorization code flow with PKCE,
// receiving the code on a localhost redirect.
type Loopback struct {
	// StartPort is the first port tried; 0 lets the OS choose.
	StartPort int

	// Attempts is how many consecutive ports are tried.
	Attempts int

	// Timeout bounds the wait for the browser callback.
	Timeout time.Duration

	// ExchangeTimeout bounds the code-for-token exchange.
	ExchangeTimeout time.Duration

	// Prompt shows the consent URL to the user.
	Prompt func(authURL string)
}

// DefaultLoopback listens on 8085-8089 and waits five minutes.
func DefaultLoopback(prompt func(string)) Loopback {
	return Loopback{
		StartPort:       8085,
		Attempts:        5,
		Timeout:         5 * time.Minute,
		ExchangeTimeout: 30 * time.Second,
		Prompt:          prompt,
	}
}

// ErrCallbackTimeout is returned when the browser never reaches the redirect.
var ErrCallbackTimeout = errors.New("oauth callback timed out")

func (l Loopback) listen() (net.Listener, int, error) {
	if l.StartPort == 0 {
		ln, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			return nil, 0, err
		}
		return ln, ln.Addr().(*net.TCPAddr).Port, nil
	}
	for port := l.StartPort; port < l.StartPort+max(l.Attempts, 1); port++ {
		if ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port)); err == nil {
			return ln, port, nil
		}
	}
	return nil, 0, fmt.Errorf("could not bind to local port for OAuth callback")
}

// Authorize sends the user to the consent page and exchanges the returned
// code for a token. oc.RedirectURL is overwritten.
func (l Loopback) Authorize(ctx context.Context, oc *oauth2.Config) (*oauth2.Token, error) {
	ln, port, err := l.listen()
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	oc.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)
	state := ulid.Make().String()
	verifier := oauth2.GenerateVerifier()
	authURL := oc.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			sendErr(errCh, errors.New("oauth state mismatch"))
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "authorization denied", http.StatusForbidden)
			sendErr(errCh, fmt.Errorf("authorization denied: %s", e))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "no code in callback", http.StatusBadRequest)
			sendErr(errCh, errors.New("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Signed in to TaskFlow</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if l.Prompt != nil {
		l.Prompt(authURL)
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-time.After(timeout):
		return nil, ErrCallbackTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, max(l.ExchangeTimeout, time.Second))
	defer cancel()
	token, err := oc.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
