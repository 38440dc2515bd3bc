package moves

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
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

type reply struct {
	status int
	body   string
}

// fakeMoves serves the token endpoint and scripted API replies. Each API
// path pops its next reply; the last one repeats.
type fakeMoves struct {
	*httptest.Server
	tokenHits atomic.Int32
	apiHits   atomic.Int32

	mu          sync.Mutex
	tokenReply  reply
	replies     map[string][]reply
	apiRequests []*url.URL
}

func newFakeMoves(t *testing.T) *fakeMoves {
	t.Helper()
	f := &fakeMoves{
		tokenReply: reply{http.StatusOK, `{"access_token":"fresh-access","refresh_token":"fresh-refresh","user_id":"23138311640030064","expires_in":15552000}`},
		replies:    map[string][]reply{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeMoves) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/oauth/v1/access_token" {
		f.tokenHits.Add(1)
		f.mu.Lock()
		rep := f.tokenReply
		f.mu.Unlock()
		w.WriteHeader(rep.status)
		_, _ = w.Write([]byte(rep.body))
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/1.1")
	f.apiHits.Add(1)
	f.mu.Lock()
	f.apiRequests = append(f.apiRequests, r.URL)
	queue := f.replies[path]
	var rep reply
	switch len(queue) {
	case 0:
		rep = reply{http.StatusNotFound, `{"error":"no such endpoint"}`}
	case 1:
		rep = queue[0]
	default:
		rep = queue[0]
		f.replies[path] = queue[1:]
	}
	f.mu.Unlock()

	w.WriteHeader(rep.status)
	_, _ = w.Write([]byte(rep.body))
}

func (f *fakeMoves) on(path string, replies ...reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[path] = replies
}

func (f *fakeMoves) setTokenReply(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenReply = reply{status, body}
}

func (f *fakeMoves) requests() []*url.URL {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*url.URL(nil), f.apiRequests...)
}

func newTestClient(t *testing.T, f *fakeMoves) (*Client, *credentials.MemoryStore) {
	t.Helper()
	cfg := config.Default()
	cfg.ClientID = "client-id"
	cfg.ClientSecret = "client-secret"
	cfg.RedirectURI = "https://example.com/moves/callback"
	cfg.AuthBaseURL = f.URL + "/oauth/v1"
	cfg.APIBaseURL = f.URL + "/api/1.1"
	cfg.HTTPTimeout = 5 * time.Second

	doer, err := transport.New(f.Client(), cfg.HTTPTimeout, zerolog.Nop())
	require.NoError(t, err)

	store := credentials.NewMemoryStore()
	c, err := New(cfg, store,
		WithHTTPClient(doer),
		WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	return c, store
}

func login(t *testing.T, store credentials.Store, expiresIn time.Duration) *credentials.Credential {
	t.Helper()
	cred := credentials.NewCredential("old-access", "old-refresh", "23138311640030064", expiresIn, testNow)
	require.NoError(t, credentials.Save(store, cred))
	return cred
}
