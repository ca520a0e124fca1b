package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const akismetBaseURL = "https://rest.akismet.com/1.1"

var ErrSpamServiceDisabled = errors.New("spam service disabled")

// SpamCandidate is what the spam service is told about a comment.
type SpamCandidate struct {
	UserIP    string
	UserAgent string
	Referrer  string
	Permalink string
	Author    string
	Content   string
}

// AkismetClient talks to the Akismet REST API. Key, domain and the enabled
// flag come from the akismet settings on every call.
type AkismetClient struct {
	logger     zerolog.Logger
	settings   AkismetSettings
	httpClient *http.Client
	baseURL    string
	siteURL    string
}

func NewAkismetClient(settings AkismetSettings, siteURL string) *AkismetClient {
	return &AkismetClient{
		logger:     log.With().Str("service", "akismet").Logger(),
		settings:   settings,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    akismetBaseURL,
		siteURL:    siteURL,
	}
}

func (c *AkismetClient) Enabled() bool {
	return c.settings.Enabled() && c.settings.APIKey() != ""
}

func (c *AkismetClient) blog() string {
	if domain := c.settings.DomainName(); domain != "" {
		if !strings.Contains(domain, "://") {
			return "https://" + domain
		}
		return domain
	}
	return c.siteURL
}

// KeyVerifier checks a stored API key with its service.
type KeyVerifier interface {
	VerifyKey(ctx context.Context) (bool, error)
}

// VerifyKey checks the configured key against the service.
func (c *AkismetClient) VerifyKey(ctx context.Context) (bool, error) {
	key := c.settings.APIKey()
	if key == "" {
		return false, ErrSpamServiceDisabled
	}

	body, err := c.call(ctx, "verify-key", url.Values{"key": {key}, "blog": {c.blog()}})
	if err != nil {
		return false, err
	}
	return body == "valid", nil
}

// CheckComment reports whether Akismet classifies the comment as spam.
func (c *AkismetClient) CheckComment(ctx context.Context, candidate SpamCandidate) (bool, error) {
	if !c.Enabled() {
		return false, ErrSpamServiceDisabled
	}

	body, err := c.call(ctx, "comment-check", c.form(candidate))
	if err != nil {
		return false, err
	}

	switch body {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("akismet comment-check: unexpected response %q", body)
}

// SubmitSpam reports a missed spam comment.
func (c *AkismetClient) SubmitSpam(ctx context.Context, candidate SpamCandidate) error {
	return c.submit(ctx, "submit-spam", candidate)
}

// SubmitHam reports a comment wrongly flagged as spam.
func (c *AkismetClient) SubmitHam(ctx context.Context, candidate SpamCandidate) error {
	return c.submit(ctx, "submit-ham", candidate)
}

func (c *AkismetClient) submit(ctx context.Context, method string, candidate SpamCandidate) error {
	if !c.Enabled() {
		return ErrSpamServiceDisabled
	}
	_, err := c.call(ctx, method, c.form(candidate))
	return err
}

func (c *AkismetClient) form(candidate SpamCandidate) url.Values {
	return url.Values{
		"api_key":         {c.settings.APIKey()},
		"blog":            {c.blog()},
		"user_ip":         {candidate.UserIP},
		"user_agent":      {candidate.UserAgent},
		"referrer":        {candidate.Referrer},
		"permalink":       {candidate.Permalink},
		"comment_type":    {"comment"},
		"comment_author":  {candidate.Author},
		"comment_content": {candidate.Content},
	}
}

func (c *AkismetClient) call(ctx context.Context, method string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create akismet %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("akismet %s: %w", method, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("read akismet %s response: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("akismet %s: status %d: %s", method, resp.StatusCode, resp.Header.Get("X-akismet-debug-help"))
	}

	body := strings.TrimSpace(string(bodyBytes))
	c.logger.Debug().Str("method", method).Str("response", body).Msg("akismet call")
	return body, nil
}
