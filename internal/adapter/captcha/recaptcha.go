package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const siteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Verifier confirms that a registration was completed by a human.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// RecaptchaVerifier calls the Google reCAPTCHA siteverify endpoint.
type RecaptchaVerifier struct {
	secret     string
	httpClient *http.Client
}

// NewRecaptchaVerifier constructs the default Verifier.
func NewRecaptchaVerifier(secret string, client *http.Client) *RecaptchaVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RecaptchaVerifier{secret: secret, httpClient: client}
}

// Verify reports whether the challenge token was confirmed by the provider.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) (bool, error) {
	data := url.Values{}
	data.Set("secret", v.secret)
	data.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, siteVerifyURL, strings.NewReader(data.Encode()))
	if err != nil {
		return false, fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("read siteverify response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("siteverify failed: status=%d", resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("decode siteverify response: %w", err)
	}
	return result.Success, nil
}

// Disabled accepts every challenge. Used when no provider secret is
// configured, e.g. in local development.
type Disabled struct{}

func (Disabled) Verify(context.Context, string) (bool, error) {
	return true, nil
}
