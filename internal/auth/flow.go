package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const callbackShutdownTimeout = 5 * time.Second

// LocalServerFlow runs the installed-app consent flow with a loopback
// redirect. Port 0 picks an ephemeral port.
type LocalServerFlow struct {
	Port   int
	Out    io.Writer
	Open   func(authURL string) error
	Logger *slog.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Token prints the consent URL, waits for the browser redirect and exchanges
// the returned code.
func (f LocalServerFlow) Token(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	out := f.Out
	if out == nil {
		out = os.Stderr
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(f.Port)))
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	conf := *cfg
	conf.RedirectURL = "http://" + ln.Addr().String() + "/"
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("oauth callback server stopped", "error", serveErr)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), callbackShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "Open this URL in your browser to authorize mailtidy:\n\n  %s\n\n", authURL)
	if f.Open != nil {
		if openErr := f.Open(authURL); openErr != nil {
			logger.Warn("could not open browser", "error", openErr)
		}
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for authorization: %w", ctx.Err())
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	report := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "Authorization failed: "+e, http.StatusBadRequest)
			report(callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
			return
		}
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			report(callbackResult{err: errors.New("oauth state mismatch")})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			report(callbackResult{err: errors.New("callback without authorization code")})
			return
		}
		_, _ = io.WriteString(w, "Authorization complete. You can close this tab.\n")
		report(callbackResult{code: code})
	})
}
