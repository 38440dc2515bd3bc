package moves

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dvcrn/moves-go/apierror"
	"github.com/dvcrn/moves-go/internal/logger"
	"github.com/dvcrn/moves-go/internal/transport"
)

// get performs an authenticated GET and returns the body of a 200 reply. A
// 401 triggers one forced refresh and exactly one retry.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	op := "GET " + path

	cred, err := c.refresher.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}

	body, status, err := c.send(ctx, op, path, query, cred.AccessToken)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK {
		return body, nil
	}
	if status != http.StatusUnauthorized {
		return nil, apierror.Classify(op, status, body)
	}

	c.logger.Warn().Str("endpoint", path).Msg("received 401 Unauthorized, attempting token refresh")

	cred, err = c.refresher.ForceRefresh(ctx, cred.AccessToken)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", path).Msg("failed to refresh credential after 401")
		return nil, err
	}

	body, status, err = c.send(ctx, op, path, query, cred.AccessToken)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK {
		c.logger.Info().Str("endpoint", path).Msg("request succeeded after token refresh")
		return body, nil
	}
	if status == http.StatusUnauthorized {
		c.logger.Error().Str("endpoint", path).Msg("still received 401 after token refresh, giving up")
	}
	return nil, apierror.Classify(op, status, body)
}

func (c *Client) send(ctx context.Context, op, path string, query url.Values, accessToken string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HTTPTimeout)
	defer cancel()

	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	q.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, apierror.New(apierror.UnexpectedError, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", path).
		Str("access_token", logger.Mask(accessToken)).
		Msg("calling Moves API")

	resp, err := c.doer.DoWithContext(ctx, req)
	if err != nil {
		return nil, 0, apierror.New(apierror.UnexpectedError, op, fmt.Errorf("request failed: %w", transport.Redact(err)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, apierror.New(apierror.UnexpectedError, op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Str("endpoint", path).
			Int("status_code", resp.StatusCode).
			Str("response_body_preview", preview(body)).
			Msg("Moves API returned an error")
	}
	return body, resp.StatusCode, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 300 {
		return s[:300] + "…(truncated)"
	}
	return s
}
