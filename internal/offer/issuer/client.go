// Package issuer is the thin asynchronous client for the external token
// issuance authority. It translates nothing: authority errors surface
// verbatim, and only the response shape is re-validated.
package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/troyjfarrell/offergate/internal/offer/domain"
)

// ErrBadTokenShape reports an authority response that did not match the
// expected token shape. Treated as a failure, never silently coerced.
var ErrBadTokenShape = errors.New("issuer: malformed token response")

// IssuanceError carries the authority's own error string verbatim.
type IssuanceError struct {
	Status  int
	Message string
}

func (e *IssuanceError) Error() string { return e.Message }

type Client struct {
	// BaseURL of the issuance authority, without trailing slash.
	BaseURL string

	// Credential authenticates offergate to the authority. Optional.
	Credential string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

type issueRequest struct {
	Provider        domain.Provider `json:"provider"`
	SubjectID       string          `json:"subjectId"`
	Petname         string          `json:"petname"`
	RoleAssignment  json.RawMessage `json:"roleAssignment,omitempty"`
	Owner           ownerPayload    `json:"owner"`
	Unauthenticated json.RawMessage `json:"unauthenticated,omitempty"`
}

type ownerPayload struct {
	ForSharing        bool  `json:"forSharing"`
	ExpiresIfUnusedMS int64 `json:"expiresIfUnusedMs"`
}

// Issue requests a token for the parameter tuple and returns it, or the
// authority's failure.
func (c *Client) Issue(ctx context.Context, p domain.IssuanceParams) (string, error) {
	body, err := json.Marshal(issueRequest{
		Provider:       p.Provider,
		SubjectID:      p.SubjectID,
		Petname:        p.Petname,
		RoleAssignment: p.RoleAssignment,
		Owner: ownerPayload{
			ForSharing:        p.Owner.ForSharing,
			ExpiresIfUnusedMS: p.Owner.ExpiresIfUnused.Milliseconds(),
		},
		Unauthenticated: p.Unauthenticated,
	})
	if err != nil {
		return "", fmt.Errorf("issuer: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/tokens", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("issuer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.Credential)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("issuer: call authority: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("issuer: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &IssuanceError{Status: resp.StatusCode, Message: authorityError(raw, resp.StatusCode)}
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Token == "" {
		return "", ErrBadTokenShape
	}

	return out.Token, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// authorityError extracts the authority's error string from its response
// body, falling back to the raw body text or the status code.
func authorityError(raw []byte, status int) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return fmt.Sprintf("issuance authority returned status %d", status)
}
