// Package api is the REST client for the presensi server. Domain methods
// are thin request/response wrappers; all transport policy (bearer
// attachment, refresh-on-401, notification) lives in the pipeline the
// client is constructed over.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"presensictl/internal/authz"
	"presensictl/internal/session"
	"presensictl/internal/transport"
)

// Paths of the auth endpoints. The pipeline needs the same values to
// recognize which 401s must not enter refresh coordination.
const (
	LoginPath   = "/auth/admin/login"
	RefreshPath = "/auth/refresh-token"
	LogoutPath  = "/auth/logout"
	ProfilePath = "/auth/profile"
)

const defaultTimeout = 10 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL is the root of the remote API, e.g. https://api.example.go.id
	BaseURL string

	// HTTPClient performs the requests; it should wrap a
	// transport.Pipeline. Defaults to a plain client with the default
	// timeout (useful only in tests).
	HTTPClient *http.Client

	// CachingHTTPClient, when set, serves reference-data reads that
	// tolerate cached responses. Defaults to HTTPClient.
	CachingHTTPClient *http.Client
}

// Client calls the remote API.
type Client struct {
	baseURL string
	http    *http.Client
	caching *http.Client
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	caching := cfg.CachingHTTPClient
	if caching == nil {
		caching = httpClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    httpClient,
		caching: caching,
	}
}

var _ session.AuthAPI = (*Client)(nil)

// loginResponse is the wire shape of the login endpoint.
type loginResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         wireAccount    `json:"user"`
	AdminOPD     *wireUnitScope `json:"admin_opd"`
	AdminUPT     *wireUnitScope `json:"admin_upt"`
}

type wireAccount struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Level     json.Number `json:"level"`
	Status    string      `json:"status"`
	OrgUnitID string      `json:"org_unit_id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type wireUnitScope struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Login authenticates with username and password. A server rejection
// surfaces as session.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (*session.LoginResult, error) {
	body := map[string]string{"username": username, "password": password}

	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, LoginPath, body, &resp); err != nil {
		if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %v", session.ErrInvalidCredentials, err)
		}
		return nil, err
	}

	return &session.LoginResult{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Account: session.Account{
			ID:        resp.User.ID,
			Username:  resp.User.Username,
			Name:      resp.User.Name,
			Email:     resp.User.Email,
			Level:     resp.User.Level.String(),
			Status:    resp.User.Status,
			OrgUnitID: resp.User.OrgUnitID,
			CreatedAt: resp.User.CreatedAt,
			UpdatedAt: resp.User.UpdatedAt,
		},
		AdminOPD: unitScope(resp.AdminOPD),
		AdminUPT: unitScope(resp.AdminUPT),
	}, nil
}

// RefreshTokens exchanges the refresh token for a new pair. The server's
// explicit invalid-token signal maps to session.ErrInvalidRefreshToken;
// transient failures keep their own error.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*session.TokenPair, error) {
	body := map[string]string{"refreshToken": refreshToken}

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.doJSON(ctx, http.MethodPost, RefreshPath, body, &resp); err != nil {
		if apiErr, ok := AsError(err); ok {
			if apiErr.Status == http.StatusUnauthorized || apiErr.Code == "INVALID_REFRESH_TOKEN" {
				return nil, fmt.Errorf("%w: %v", session.ErrInvalidRefreshToken, err)
			}
		}
		return nil, err
	}

	return &session.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Logout asks the server to invalidate the session. Callers treat this as
// best-effort.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, LogoutPath, nil, nil)
}

// Profile fetches the full server-side profile, including the scope
// records the degraded token-claims recovery cannot see.
func (c *Client) Profile(ctx context.Context) (*session.User, error) {
	var resp struct {
		wireAccount
		AdminOPD *wireUnitScope `json:"admin_opd"`
		AdminUPT *wireUnitScope `json:"admin_upt"`
	}
	if err := c.doJSON(ctx, http.MethodGet, ProfilePath, nil, &resp); err != nil {
		return nil, err
	}

	return accountToUser(session.Account{
		ID:        resp.ID,
		Username:  resp.Username,
		Name:      resp.Name,
		Email:     resp.Email,
		Level:     resp.Level.String(),
		Status:    resp.Status,
		OrgUnitID: resp.OrgUnitID,
		CreatedAt: resp.CreatedAt,
		UpdatedAt: resp.UpdatedAt,
	}, unitScope(resp.AdminOPD), unitScope(resp.AdminUPT))
}

// doJSON performs a JSON request and decodes the response into out
// (which may be nil). Non-2xx responses come back as *Error.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	return c.doJSONWith(c.http, ctx, method, path, body, out)
}

// getCached performs a GET through the caching client, for reference data
// that tolerates a cached response.
func (c *Client) getCached(ctx context.Context, path string, out any) error {
	return c.doJSONWith(c.caching, ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSONWith(httpClient *http.Client, ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doMultipart uploads a file with optional extra fields. The whole body
// is buffered so the pipeline can replay it after a refresh.
func (c *Client) doMultipart(ctx context.Context, path, field, filename string, file io.Reader, fields map[string]string, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to buffer upload: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// download streams a GET response body to w.
func (c *Client) download(ctx context.Context, path string, query url.Values, w io.Writer) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to stream download: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{
		Status:    resp.StatusCode,
		Category:  transport.CategorizeStatus(resp.StatusCode),
		Message:   http.StatusText(resp.StatusCode),
		RequestID: resp.Header.Get("X-Request-Id"),
	}

	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		if body.Message != "" {
			apiErr.Message = body.Message
		}
		if body.Code != "" {
			apiErr.Code = body.Code
		} else if body.Error != "" {
			apiErr.Code = body.Error
		}
	}

	return apiErr
}

func unitScope(w *wireUnitScope) *session.UnitScope {
	if w == nil {
		return nil
	}
	return &session.UnitScope{ID: w.ID, Code: w.Code, Name: w.Name}
}

func accountToUser(acct session.Account, opd, upt *session.UnitScope) (*session.User, error) {
	role, err := authz.RoleFromLevel(acct.Level, opd != nil, upt != nil)
	if err != nil {
		return nil, fmt.Errorf("%w: profile reported level %q", session.ErrInvalidRole, acct.Level)
	}

	return &session.User{
		ID:        acct.ID,
		Username:  acct.Username,
		Name:      acct.Name,
		Email:     acct.Email,
		Role:      role,
		OrgUnitID: acct.OrgUnitID,
		Status:    acct.Status,
		CreatedAt: acct.CreatedAt,
		UpdatedAt: acct.UpdatedAt,
		AdminOPD:  opd,
		AdminUPT:  upt,
	}, nil
}
