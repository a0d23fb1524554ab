// Package authapi authenticates against the remote authentication service.
// The service is authoritative for both identity and role.
package authapi

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

	"github.com/golang-jwt/jwt/v5"
	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
)

const (
	DefaultTimeout        = 10 * time.Second
	DefaultIdentifierPath = "principal.identifier || user.email"
	DefaultRolePath       = "principal.role || user.role"
	DefaultTokenPath      = "token || access_token"

	maxResponseBytes = 1 << 20
)

// Config controls the remote authentication client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// JMESPath expressions evaluated against the login response body.
	IdentifierPath string
	RolePath       string
	TokenPath      string
	// TokenSecret enables HS256 verification of the returned token when set.
	TokenSecret string
	HTTPClient  *http.Client
}

// Client implements ports.Authenticator and ports.Pinger over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	idPath     string
	rolePath   string
	tokenPath  string
	secret     []byte
}

var (
	_ ports.Authenticator = (*Client)(nil)
	_ ports.Pinger        = (*Client)(nil)
)

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("auth api: base URL is required")
	}
	c := &Client{
		baseURL:   base,
		idPath:    orDefault(cfg.IdentifierPath, DefaultIdentifierPath),
		rolePath:  orDefault(cfg.RolePath, DefaultRolePath),
		tokenPath: orDefault(cfg.TokenPath, DefaultTokenPath),
		secret:    []byte(cfg.TokenSecret),
	}
	for _, expr := range []string{c.idPath, c.rolePath, c.tokenPath} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("auth api: invalid expression %q: %w", expr, err)
		}
	}

	c.httpClient = cfg.HTTPClient
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Credential string `json:"credential"`
	// Older deployments of the service read these names.
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticate posts the credentials and maps the response to a Principal.
// The role selected on the form is ignored.
func (c *Client) Authenticate(ctx context.Context, creds ports.Credentials) (domainauth.Principal, error) {
	body, err := json.Marshal(loginRequest{
		Identifier: creds.Identifier,
		Credential: creds.Secret,
		Email:      creds.Identifier,
		Password:   creds.Secret,
	})
	if err != nil {
		return domainauth.Principal{}, fail(domainauth.FailureInvalidInput, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return domainauth.Principal{}, fail(domainauth.FailureUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainauth.Principal{}, fail(domainauth.FailureUnavailable, err)
	}
	defer resp.Body.Close()

	if reason, bad := classifyStatus(resp.StatusCode); bad {
		return domainauth.Principal{}, fail(reason, fmt.Errorf("auth api returned %s", resp.Status))
	}

	var doc any
	if decErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&doc); decErr != nil {
		return domainauth.Principal{}, fail(domainauth.FailureInvalidResponse, fmt.Errorf("decode body: %w", decErr))
	}
	return c.principalFrom(doc)
}

func classifyStatus(code int) (domainauth.AuthenticationFailure, bool) {
	switch {
	case code >= 200 && code < 300:
		return "", false
	case code == http.StatusUnauthorized, code == http.StatusForbidden,
		code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return domainauth.FailureInvalidCredentials, true
	case code >= 500, code == http.StatusTooManyRequests:
		return domainauth.FailureUnavailable, true
	default:
		return domainauth.FailureInvalidResponse, true
	}
}

func (c *Client) principalFrom(doc any) (domainauth.Principal, error) {
	identifier, err := searchString(c.idPath, doc)
	if err != nil || identifier == "" {
		return domainauth.Principal{}, fail(domainauth.FailureInvalidResponse,
			fmt.Errorf("no identifier at %q: %w", c.idPath, errOrMissing(err)))
	}

	rawRole, err := searchString(c.rolePath, doc)
	if err != nil {
		return domainauth.Principal{}, fail(domainauth.FailureInvalidResponse, err)
	}
	if rawRole == "" {
		return domainauth.Principal{}, fail(domainauth.FailureNoRole, fmt.Errorf("no role at %q", c.rolePath))
	}
	role, ok := domainauth.ParseRole(rawRole)
	if !ok {
		return domainauth.Principal{}, fail(domainauth.FailureInvalidRole, &domainauth.InvalidRoleError{Value: rawRole})
	}

	if len(c.secret) > 0 {
		token, tokErr := searchString(c.tokenPath, doc)
		if tokErr != nil || token == "" {
			return domainauth.Principal{}, fail(domainauth.FailureInvalidResponse,
				fmt.Errorf("no token at %q: %w", c.tokenPath, errOrMissing(tokErr)))
		}
		if verr := c.verifyToken(token, identifier); verr != nil {
			return domainauth.Principal{}, fail(domainauth.FailureInvalidResponse, verr)
		}
	}

	return domainauth.Principal{Identifier: identifier, Role: role}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// verifyToken checks the HS256 signature and that the token names identifier.
func (c *Client) verifyToken(raw, identifier string) error {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	if !strings.EqualFold(claims.Subject, identifier) && !strings.EqualFold(claims.Email, identifier) {
		return errors.New("token subject does not match identifier")
	}
	return nil
}

func searchString(expr string, doc any) (string, error) {
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		return "", fmt.Errorf("evaluate %q: %w", expr, err)
	}
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(s), nil
	default:
		return "", fmt.Errorf("%q is %T, not a string", expr, v)
	}
}

func errOrMissing(err error) error {
	if err != nil {
		return err
	}
	return errors.New("missing")
}

func fail(reason domainauth.AuthenticationFailure, cause error) error {
	return domainauth.NewAuthenticationError(reason, cause)
}

// Ping calls GET /health on the service.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth api health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("auth api health: %s", resp.Status)
	}
	return nil
}
