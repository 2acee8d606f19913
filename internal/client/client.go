// Package client is a Go consumer of the profile portal REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"profile_portal_backend/platform/phone"

	"golang.org/x/net/publicsuffix"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultCSRFCookie = "csrftoken"
	defaultCSRFHeader = "X-CSRFToken"

	apiPrefix = "/api/v1"
)

// Client talks to the API on behalf of one user. Cookies (including the
// CSRF cookie) live in the client's jar; the access token is sent as a
// bearer header.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	token      string
	lang       string
	csrfCookie string
	csrfHeader string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its jar is replaced
// when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLanguage sets Accept-Language, which picks the language of
// server-side validation messages.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

// WithCSRFNames overrides the CSRF cookie and header names.
func WithCSRFNames(cookie, header string) Option {
	return func(c *Client) {
		c.csrfCookie = cookie
		c.csrfHeader = header
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		http:       &http.Client{Timeout: defaultTimeout},
		csrfCookie: defaultCSRFCookie,
		csrfHeader: defaultCSRFHeader,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Token returns the current access token.
func (c *Client) Token() string { return c.token }

// SignIn exchanges credentials for an access token and keeps it on the client.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/sign-in", body, &out); err != nil {
		return "", err
	}
	c.token = out.AccessToken
	return out.AccessToken, nil
}

func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	err := c.doJSON(ctx, http.MethodGet, "/account/profile/", nil, &p)
	return p, err
}

// UpdateProfile submits the profile form as multipart/form-data and returns
// the profile as re-read from the server.
//
// The phone is converted to international form when it is a valid national
// number and sent as typed otherwise; the server has the final say. A
// portrait file replaces the current one; RemovePortrait without a file
// clears it.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (Profile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct {
		name  string
		value *string
	}{
		{"real_name", upd.RealName},
		{"nickname", upd.Nickname},
		{"address", upd.Address},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := mw.WriteField(f.name, *f.value); err != nil {
			return Profile{}, err
		}
	}
	if upd.Phone != nil {
		submitted, _ := phone.ForSubmission(*upd.Phone)
		if err := mw.WriteField("phone", submitted); err != nil {
			return Profile{}, err
		}
	}

	if upd.Portrait != nil {
		if err := writePortrait(mw, upd.Portrait); err != nil {
			return Profile{}, err
		}
	} else if upd.RemovePortrait {
		if err := mw.WriteField("remove_portrait", strconv.FormatBool(true)); err != nil {
			return Profile{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return Profile{}, err
	}

	if err := c.do(ctx, http.MethodPut, "/account/profile/", mw.FormDataContentType(), &buf, nil); err != nil {
		return Profile{}, err
	}
	return c.GetProfile(ctx)
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.doJSON(ctx, http.MethodPut, "/account/password/change/", body, nil)
}

// VerifyPhone asks the server to send a code to a national number. Input
// that fails local validation is rejected before any request is made.
func (c *Client) VerifyPhone(ctx context.Context, raw string) (CodeSent, error) {
	return c.sendCode(ctx, "/account/phone/verify", raw)
}

func (c *Client) ResendPhone(ctx context.Context, raw string) (CodeSent, error) {
	return c.sendCode(ctx, "/account/phone/resend", raw)
}

// ConfirmPhone submits the received code and returns the verified number in
// international form.
func (c *Client) ConfirmPhone(ctx context.Context, raw, code string) (string, error) {
	var out struct {
		Detail string `json:"detail"`
		Phone  string `json:"phone"`
	}
	body := map[string]string{"phone": raw, "code": strings.TrimSpace(code)}
	if err := c.doJSON(ctx, http.MethodPost, "/account/phone/confirm", body, &out); err != nil {
		return "", err
	}
	return out.Phone, nil
}

func (c *Client) sendCode(ctx context.Context, path, raw string) (CodeSent, error) {
	if res := phone.ValidateNational(phone.Sanitize(raw)); !res.OK() {
		return CodeSent{}, res.Err()
	}
	var out struct {
		Detail     string `json:"detail"`
		RetryAfter int    `json:"retry_after"`
	}
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"phone": raw}, &out); err != nil {
		return CodeSent{}, err
	}
	return CodeSent{Detail: out.Detail, RetryAfter: time.Duration(out.RetryAfter) * time.Second}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if method != http.MethodGet && method != http.MethodHead {
		if err := c.ensureCSRF(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(apiPrefix+path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}
	if token := c.csrfToken(); token != "" {
		req.Header.Set(c.csrfHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ensureCSRF fetches the CSRF cookie when the jar does not hold one yet.
// Any response from the API sets it.
func (c *Client) ensureCSRF(ctx context.Context) error {
	if c.csrfToken() != "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/health"), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch csrf cookie: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

func (c *Client) csrfToken() string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == c.csrfCookie {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func writePortrait(mw *multipart.Writer, p *PortraitFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="portrait"; filename=%q`, p.FileName))
	contentType := p.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, p.Reader)
	return err
}
