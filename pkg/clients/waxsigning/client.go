package waxsigning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/waxio/cloudwallet-go/pkg/types"
)

// Endpoint names, appended to the auto-signing base URL.
const (
	loginEndpoint   = "login"
	signingEndpoint = "signing"
)

const defaultRequestTimeout = 30 * time.Second

// EndpointError reports a failed call to the wallet backend: a non-OK HTTP
// status, or a response body carrying a processed.except field.
type EndpointError struct {
	Operation  string
	StatusCode int
	Except     string
}

func (e *EndpointError) Error() string {
	if e.Except != "" {
		return fmt.Sprintf("wallet %s endpoint rejected the request: %s", e.Operation, e.Except)
	}
	return fmt.Sprintf("wallet %s endpoint returned status %d", e.Operation, e.StatusCode)
}

// endpointEnvelope detects the backend's failure shape in otherwise
// successful responses.
type endpointEnvelope struct {
	Processed *struct {
		Except json.RawMessage `json:"except"`
	} `json:"processed"`
}

// ClientConfig holds the configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the auto-signing service URL; endpoint names are
	// appended directly, so it must end with "/".
	BaseURL string
	Logger  *zap.Logger

	// RequestTimeout bounds each HTTP round-trip. Zero means the default.
	RequestTimeout time.Duration

	// SignRateLimit/SignRateBurst throttle signing calls so a transact
	// loop cannot hammer the endpoint. Zero values disable throttling.
	SignRateLimit rate.Limit
	SignRateBurst int
}

// Client talks to the wallet backend's silent endpoints. Requests carry
// credentials through a shared cookie jar, mirroring the browser's
// credentialed fetches.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a backend client with dependency injection.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	var limiter *rate.Limiter
	if cfg.SignRateLimit > 0 {
		burst := cfg.SignRateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(cfg.SignRateLimit, burst)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		limiter: limiter,
		logger:  cfg.Logger,
	}, nil
}

// SetHttpClient allows setting a custom HTTP client.
func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

// Login performs the credentialed auto-login request.
func (c *Client) Login(ctx context.Context) (*types.LoginResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+loginEndpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build login request")
	}

	body, err := c.do(req, loginEndpoint)
	if err != nil {
		return nil, err
	}

	var response types.LoginResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse login response")
	}

	c.logger.Sugar().Debugw("Auto-login endpoint responded",
		"account", response.UserAccount,
		"verified", response.Verified,
		"whitelist_entries", len(response.WhitelistedContracts),
	)
	return &response, nil
}

// signRequestBody is the signing endpoint's wire format: the serialized
// transaction travels as an array of byte values.
type signRequestBody struct {
	Transaction      types.ByteSequence `json:"transaction"`
	WaxPaysBandwidth bool               `json:"waxPaysBW"`
}

// Sign submits a serialized transaction for unattended signing.
func (c *Client) Sign(ctx context.Context, serializedTransaction []byte, waxPaysBandwidth bool) (*types.SigningResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "signing rate limit wait aborted")
		}
	}

	payload, err := json.Marshal(signRequestBody{
		Transaction:      serializedTransaction,
		WaxPaysBandwidth: waxPaysBandwidth,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal signing request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+signingEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build signing request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, signingEndpoint)
	if err != nil {
		return nil, err
	}

	var response types.SigningResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse signing response")
	}

	c.logger.Sugar().Debugw("Auto-signing endpoint responded",
		"verified", response.Verified,
		"signatures", len(response.Signatures),
	)
	return &response, nil
}

// do executes a request and applies the shared failure detection: non-OK
// statuses and processed.except bodies both fail the call.
func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "wallet %s endpoint unreachable", operation)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s response", operation)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Sugar().Warnw("Wallet endpoint returned error",
			"operation", operation,
			"status_code", resp.StatusCode,
			"body", string(body),
		)
		return nil, &EndpointError{Operation: operation, StatusCode: resp.StatusCode}
	}

	var envelope endpointEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil &&
		envelope.Processed != nil && envelope.Processed.Except != nil {
		c.logger.Sugar().Warnw("Wallet endpoint rejected the request",
			"operation", operation,
			"except", string(envelope.Processed.Except),
		)
		return nil, &EndpointError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Except:     string(envelope.Processed.Except),
		}
	}

	return body, nil
}
