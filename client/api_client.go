package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aniverse/walletbridge/core"
)

// NetworkError is a transport failure reaching the backend. Retryable.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RejectedError is an explicit backend refusal. Not retryable without
// correcting the input.
type RejectedError struct {
	Status  int
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected by backend (%d): %s", e.Status, e.Message)
}

// Exchanger is the backend seam the negotiator drives.
type Exchanger interface {
	// Exchange swaps a wallet address for a session. Failures are either
	// *NetworkError or *RejectedError.
	Exchange(ctx context.Context, address, username string) (*core.Principal, string, error)

	// Me resolves the principal behind an existing token.
	Me(ctx context.Context, token string) (*core.Principal, error)
}

// DefaultExchangeTimeout bounds the outbound exchange call. Timeout is a
// NetworkError.
const DefaultExchangeTimeout = 10 * time.Second

// APIClient talks to the wallet bridge backend. The session token is
// injected per request through a lookup function rather than mutated into
// shared default headers, so a session change mid-flight cannot leak a
// stale credential into later requests.
type APIClient struct {
	baseURL string
	http    *http.Client

	token    func() string
	onReject func(core.RejectKind)
}

// NewAPIClient creates a client for the given base URL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultExchangeTimeout},
	}
}

var _ Exchanger = (*APIClient)(nil)

// BindSession wires the client to the current-session lookup and the
// forced-logout callback. Both may be nil.
func (c *APIClient) BindSession(token func() string, onReject func(core.RejectKind)) {
	c.token = token
	c.onReject = onReject
}

type exchangeRequest struct {
	FlowWalletAddress string `json:"flowWalletAddress"`
	Username          string `json:"username,omitempty"`
}

type userEnvelope struct {
	User  *core.Principal `json:"user"`
	Token string          `json:"token"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Exchange implements the exchange half of the session bridge.
func (c *APIClient) Exchange(ctx context.Context, address, username string) (*core.Principal, string, error) {
	body, err := json.Marshal(exchangeRequest{FlowWalletAddress: address, Username: username})
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/flow-connect", bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, "", rejectedFrom(resp)
	}

	var envelope userEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, "", &NetworkError{Err: err}
	}
	if envelope.User == nil || envelope.Token == "" {
		return nil, "", &NetworkError{Err: fmt.Errorf("malformed exchange response")}
	}

	return envelope.User, envelope.Token, nil
}

// Me resolves the principal behind a token.
func (c *APIClient) Me(ctx context.Context, token string) (*core.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, rejectedFrom(resp)
	}

	var envelope userEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &NetworkError{Err: err}
	}
	if envelope.User == nil {
		return nil, &NetworkError{Err: fmt.Errorf("malformed me response")}
	}

	return envelope.User, nil
}

// Do performs an authenticated request against the backend, injecting the
// current session token and decoding the response into out (when non-nil).
// A 401 is reported to the bound forced-logout callback before returning.
func (c *APIClient) Do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		rejected := rejectedFrom(resp)
		if resp.StatusCode == http.StatusUnauthorized && c.onReject != nil {
			c.onReject(rejectKindFromCode(rejected.Code))
		}
		return rejected
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &NetworkError{Err: err}
		}
	}
	return nil
}

func rejectedFrom(resp *http.Response) *RejectedError {
	var envelope errorEnvelope
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	message := envelope.Message
	if message == "" {
		message = envelope.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &RejectedError{Status: resp.StatusCode, Code: envelope.Code, Message: message}
}

func rejectKindFromCode(code string) core.RejectKind {
	switch code {
	case "TOKEN_EXPIRED":
		return core.RejectExpired
	case "TOKEN_MISSING":
		return core.RejectMissing
	default:
		return core.RejectInvalid
	}
}
