package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvcrn/moves-go/config"
	"github.com/dvcrn/moves-go/credentials"
	"github.com/dvcrn/moves-go/internal/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// tokenServer is a fake access_token endpoint.
type tokenServer struct {
	*httptest.Server
	hits atomic.Int32

	mu      sync.Mutex
	queries []url.Values
	methods []string

	status int
	body   string
	delay  time.Duration
}

func newTokenServer(t *testing.T, status int, body string) *tokenServer {
	t.Helper()
	ts := &tokenServer{status: status, body: body}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/v1/access_token" {
			http.NotFound(w, r)
			return
		}
		ts.hits.Add(1)
		ts.mu.Lock()
		ts.queries = append(ts.queries, r.URL.Query())
		ts.methods = append(ts.methods, r.Method)
		status, body, delay := ts.status, ts.body, ts.delay
		ts.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) lastQuery() url.Values {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.queries) == 0 {
		return nil
	}
	return ts.queries[len(ts.queries)-1]
}

func (ts *tokenServer) methodsSeen() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.methods...)
}

func (ts *tokenServer) setDelay(d time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.delay = d
}

func testConfig(baseURL string) config.Config {
	cfg := config.Default()
	cfg.ClientID = "client-id"
	cfg.ClientSecret = "client-secret"
	cfg.RedirectURI = "https://example.com/moves/callback"
	cfg.AuthBaseURL = baseURL + "/oauth/v1"
	cfg.HTTPTimeout = 5 * time.Second
	return cfg
}

func testOptions(t *testing.T, srv *httptest.Server) []Option {
	t.Helper()
	doer, err := transport.New(srv.Client(), 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	return []Option{
		WithHTTPClient(doer),
		WithClock(func() time.Time { return testNow }),
	}
}

func storedCredential(t *testing.T, store credentials.Store, expiresIn time.Duration) *credentials.Credential {
	t.Helper()
	cred := credentials.NewCredential("old-access", "old-refresh", "23138311640030064", expiresIn, testNow)
	require.NoError(t, credentials.Save(store, cred))
	return cred
}
