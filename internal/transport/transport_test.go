package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(0)
	assert.Equal(t, DefaultTimeout, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, uint16(tls.VersionTLS12), tr.TLSClientConfig.MinVersion)

	assert.Equal(t, 5*time.Second, NewHTTPClient(5*time.Second).Timeout)
}

func do(t *testing.T, d Doer, method, target string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, target, nil)
	require.NoError(t, err)
	return d.DoWithContext(context.Background(), req)
}

func TestStatusCodesAreNeverRetried(t *testing.T) {
	statuses := []int{
		http.StatusUnauthorized,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusServiceUnavailable,
	}

	for _, status := range statuses {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			t.Run(fmt.Sprintf("%s %d", method, status), func(t *testing.T) {
				var hits atomic.Int32
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					hits.Add(1)
					w.WriteHeader(status)
				}))
				defer srv.Close()

				client, err := New(srv.Client(), time.Second, zerolog.Nop())
				require.NoError(t, err)

				resp, err := do(t, client, method, srv.URL)
				require.NoError(t, err)
				defer resp.Body.Close()

				assert.Equal(t, status, resp.StatusCode)
				assert.Equal(t, int32(1), hits.Load())
			})
		}
	}
}

// flakyServer drops the connection on the first request and answers 200
// afterwards.
func flakyServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
				}
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetRetriesDroppedConnection(t *testing.T) {
	var hits atomic.Int32
	srv := flakyServer(t, &hits)

	client, err := New(srv.Client(), time.Second, zerolog.Nop())
	require.NoError(t, err)

	resp, err := do(t, client, http.MethodGet, srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

func TestPostIsSentOnce(t *testing.T) {
	var hits atomic.Int32
	srv := flakyServer(t, &hits)

	client, err := New(srv.Client(), time.Second, zerolog.Nop())
	require.NoError(t, err)

	resp, err := do(t, client, http.MethodPost, srv.URL+"/access_token?refresh_token=r1")
	if resp != nil {
		resp.Body.Close()
	}
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRetryLogsOmitQuery(t *testing.T) {
	var hits atomic.Int32
	srv := flakyServer(t, &hits)

	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	client, err := New(srv.Client(), time.Second, log)
	require.NoError(t, err)

	resp, err := do(t, client, http.MethodGet, srv.URL+"/user/profile?access_token=secret-access-token")
	require.NoError(t, err)
	resp.Body.Close()

	out := buf.String()
	assert.Contains(t, out, "will retry")
	assert.Contains(t, out, "/user/profile")
	assert.NotContains(t, out, "secret-access-token")
	assert.NotContains(t, out, "access_token=")
}

func TestRedact(t *testing.T) {
	cause := context.DeadlineExceeded
	err := fmt.Errorf(`Post "https://api.example/oauth/v1/access_token?client_secret=s3cret&code=c0de": %w`, cause)

	red := Redact(err)
	assert.Equal(t, `Post "https://api.example/oauth/v1/access_token": context deadline exceeded`, red.Error())
	assert.True(t, errors.Is(red, context.DeadlineExceeded))
	assert.Nil(t, Redact(nil))
}
