// Package identity adapts the Google Identity Toolkit REST API (the
// service behind Firebase Authentication) to domain.IdentityProvider.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

const (
	defaultToolkitURL     = "https://identitytoolkit.googleapis.com/v1"
	defaultSecureTokenURL = "https://securetoken.googleapis.com/v1"
)

// AuthError is a provider failure translated to a message fit for the
// end user. Code keeps the raw server code for callers that branch.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ToolkitClient implements domain.IdentityProvider against the Identity
// Toolkit endpoints. It holds the signed-in credentials for the process
// and notifies the single state-change listener, mirroring the behavior
// of the Firebase client SDK.
type ToolkitClient struct {
	apiKey         string
	toolkitURL     string
	secureTokenURL string
	http           *http.Client

	mu           sync.Mutex
	current      *domain.Identity
	idToken      string
	refreshToken string
	expiresAt    time.Time

	listener domain.AuthListener
}

type ToolkitOption func(*ToolkitClient)

// WithEndpoints overrides the API endpoints (emulator or tests).
func WithEndpoints(toolkitURL, secureTokenURL string) ToolkitOption {
	return func(c *ToolkitClient) {
		c.toolkitURL = toolkitURL
		c.secureTokenURL = secureTokenURL
	}
}

func WithToolkitHTTPClient(h *http.Client) ToolkitOption {
	return func(c *ToolkitClient) { c.http = h }
}

func NewToolkitClient(apiKey string, opts ...ToolkitOption) (*ToolkitClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("identity: API key is required")
	}

	c := &ToolkitClient{
		apiKey:         apiKey,
		toolkitURL:     defaultToolkitURL,
		secureTokenURL: defaultSecureTokenURL,
		http:           &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *ToolkitClient) Subscribe(l domain.AuthListener) func() {
	c.mu.Lock()
	c.listener = l
	ident := c.current
	c.mu.Unlock()

	// Replay the current state so a late subscriber still bootstraps.
	if l != nil && ident != nil {
		l(context.Background(), ident)
	}

	return func() {
		c.mu.Lock()
		c.listener = nil
		c.mu.Unlock()
	}
}

// ─────────────────────────────────────────────
// Wire types
// ─────────────────────────────────────────────

type signResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoUrl"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	EmailVerified bool   `json:"emailVerified"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type serverError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ─────────────────────────────────────────────
// IdentityProvider implementation
// ─────────────────────────────────────────────

func (c *ToolkitClient) SignUpWithEmail(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	var resp signResponse
	err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp, signUpMessages)
	if err != nil {
		return nil, err
	}

	// Set the display name on the new account.
	if displayName != "" {
		var upd signResponse
		if err := c.post(ctx, "accounts:update", map[string]any{
			"idToken":           resp.IDToken,
			"displayName":       displayName,
			"returnSecureToken": false,
		}, &upd, nil); err != nil {
			return nil, err
		}
		resp.DisplayName = displayName
	}

	// Verification mail is a side effect of sign-up; failure to send it
	// does not fail the account creation.
	if err := c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     resp.IDToken,
	}, &struct{}{}, nil); err != nil {
		observability.Component("identity").Warn("failed to send verification email", "error", err)
	}

	ident := &domain.Identity{
		UID:         domain.UserID(resp.LocalID),
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		Provider:    domain.AuthProviderEmail,
	}
	c.setSignedIn(ctx, ident, &resp)
	return ident, nil
}

func (c *ToolkitClient) SignInWithEmail(ctx context.Context, email, password string) (*domain.Identity, error) {
	var resp signResponse
	err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp, signInMessages)
	if err != nil {
		return nil, err
	}

	ident := &domain.Identity{
		UID:           domain.UserID(resp.LocalID),
		Email:         resp.Email,
		DisplayName:   resp.DisplayName,
		PhotoURL:      resp.PhotoURL,
		EmailVerified: resp.EmailVerified,
		Provider:      domain.AuthProviderEmail,
	}
	c.setSignedIn(ctx, ident, &resp)
	return ident, nil
}

func (c *ToolkitClient) SignInWithGoogle(ctx context.Context, oauthIDToken string) (*domain.Identity, error) {
	var resp signResponse
	err := c.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":          "id_token=" + url.QueryEscape(oauthIDToken) + "&providerId=google.com",
		"requestUri":        "http://localhost",
		"returnSecureToken": true,
	}, &resp, googleMessages)
	if err != nil {
		return nil, err
	}

	ident := &domain.Identity{
		UID:           domain.UserID(resp.LocalID),
		Email:         resp.Email,
		DisplayName:   resp.DisplayName,
		PhotoURL:      resp.PhotoURL,
		EmailVerified: true, // Google accounts arrive verified
		Provider:      domain.AuthProviderGoogle,
	}
	c.setSignedIn(ctx, ident, &resp)
	return ident, nil
}

func (c *ToolkitClient) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, &struct{}{}, resetMessages)
}

func (c *ToolkitClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.idToken = ""
	c.refreshToken = ""
	c.expiresAt = time.Time{}
	l := c.listener
	c.mu.Unlock()

	if l != nil {
		l(ctx, nil)
	}
	return nil
}

func (c *ToolkitClient) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.Lock()
	token := c.idToken
	refresh := c.refreshToken
	expired := !c.expiresAt.IsZero() && time.Now().After(c.expiresAt)
	c.mu.Unlock()

	if token == "" {
		return "", &AuthError{Code: "NO_CURRENT_USER", Message: "No user is currently signed in"}
	}
	if !forceRefresh && !expired {
		return token, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refresh},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.secureTokenURL+"/token?key="+url.QueryEscape(c.apiKey),
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("identity: building refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity: token refresh: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", decodeServerError(res.Body, nil)
	}

	var resp refreshResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("identity: decoding refresh response: %w", err)
	}

	c.mu.Lock()
	c.idToken = resp.IDToken
	if resp.RefreshToken != "" {
		c.refreshToken = resp.RefreshToken
	}
	c.expiresAt = expiry(resp.ExpiresIn)
	c.mu.Unlock()

	return resp.IDToken, nil
}

// ─────────────────────────────────────────────
// Internals
// ─────────────────────────────────────────────

func (c *ToolkitClient) setSignedIn(ctx context.Context, ident *domain.Identity, resp *signResponse) {
	c.mu.Lock()
	c.current = ident
	c.idToken = resp.IDToken
	c.refreshToken = resp.RefreshToken
	c.expiresAt = expiry(resp.ExpiresIn)
	l := c.listener
	c.mu.Unlock()

	if l != nil {
		l(ctx, ident)
	}
}

func expiry(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	// Refresh a minute early.
	return time.Now().Add(time.Duration(secs)*time.Second - time.Minute)
}

func (c *ToolkitClient) post(ctx context.Context, action string, body map[string]any, out any, messages map[string]string) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("identity: encoding %s request: %w", action, err)
	}

	u := c.toolkitURL + "/" + action + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("identity: building %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity: %s: %w", action, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return decodeServerError(res.Body, messages)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("identity: decoding %s response: %w", action, err)
	}
	return nil
}

// decodeServerError maps known server codes to human-readable messages;
// unknown codes propagate unchanged.
func decodeServerError(r io.Reader, messages map[string]string) error {
	var payload serverError
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return fmt.Errorf("identity: unreadable error response")
	}

	code := payload.Error.Message
	if msg, ok := messages[code]; ok {
		return &AuthError{Code: code, Message: msg}
	}
	return fmt.Errorf("identity: %s", code)
}

// Message tables mirror the user-facing strings of the product's auth
// flows, keyed by Identity Toolkit server codes.
var signUpMessages = map[string]string{
	"EMAIL_EXISTS":  "This email is already registered. Please sign in instead.",
	"WEAK_PASSWORD": "Password is too weak. Please use at least 6 characters.",
	"INVALID_EMAIL": "Invalid email address.",
}

var signInMessages = map[string]string{
	"EMAIL_NOT_FOUND":           "No account found with this email. Please sign up first.",
	"INVALID_PASSWORD":          "Incorrect password. Please try again.",
	"INVALID_LOGIN_CREDENTIALS": "Incorrect password. Please try again.",
	"INVALID_EMAIL":             "Invalid email address.",
	"USER_DISABLED":             "This account has been disabled. Please contact support.",
}

var googleMessages = map[string]string{
	"USER_DISABLED":        "This account has been disabled. Please contact support.",
	"INVALID_IDP_RESPONSE": "Sign-in was cancelled. Please try again.",
}

var resetMessages = map[string]string{
	"EMAIL_NOT_FOUND": "No account found with this email.",
	"INVALID_EMAIL":   "Invalid email address.",
}
