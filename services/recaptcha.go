package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type recaptchaResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// RecaptchaVerifier validates reCAPTCHA response tokens.
type RecaptchaVerifier struct {
	logger     zerolog.Logger
	settings   RecaptchaSettings
	httpClient *http.Client
	verifyURL  string
}

func NewRecaptchaVerifier(settings RecaptchaSettings) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		logger:     log.With().Str("service", "recaptcha").Logger(),
		settings:   settings,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		verifyURL:  recaptchaVerifyURL,
	}
}

func (v *RecaptchaVerifier) Enabled() bool {
	return v.settings.Enabled()
}

func (v *RecaptchaVerifier) SiteKey() string {
	return v.settings.SiteKey()
}

// Validate asks Google whether token is valid. Any failure yields false; the
// error says why.
func (v *RecaptchaVerifier) Validate(ctx context.Context, token, remoteIP string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("missing recaptcha response")
	}

	form := url.Values{"secret": {v.settings.SecretKey()}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("create siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("siteverify: status %d", resp.StatusCode)
	}

	var result recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode siteverify response: %w", err)
	}

	if !result.Success {
		v.logger.Info().Strs("errorCodes", result.ErrorCodes).Msg("recaptcha rejected")
	}
	return result.Success, nil
}
