package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

// Purpose tags a token with the single flow it may be used for. Endpoints
// validate the purpose so a verification token cannot be replayed against
// the password-reset flow or vice versa.
type Purpose string

const (
	PurposeSession       Purpose = "session"
	PurposeVerifyEmail   Purpose = "verify"
	PurposePasswordReset Purpose = "reset"
)

// DefaultShortLivedTTL bounds email-verification and password-reset tokens.
const DefaultShortLivedTTL = time.Hour

// Verification failures.
var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// Claims is the decoded payload of a verified token.
type Claims struct {
	AccountID int64
	IsAdmin   bool
	Email     string
	Purpose   Purpose
}

type customClaims struct {
	IsAdmin bool   `json:"is_admin,omitempty"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
}

// Service signs and verifies bearer tokens with a process-wide HS256 secret.
type Service struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService constructs a token service. A sessionTTL of zero issues session
// tokens without an expiry claim, valid for as long as the signature holds.
func NewService(secret []byte, issuer string, sessionTTL time.Duration) *Service {
	return &Service{
		secret:     secret,
		issuer:     issuer,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// IssueSession produces a signed session token carrying the account id and
// admin flag.
func (s *Service) IssueSession(accountID int64, isAdmin bool) (string, error) {
	now := s.now().UTC()
	std := gojwt.Claims{
		Subject:  strconv.FormatInt(accountID, 10),
		Issuer:   s.issuer,
		IssuedAt: gojwt.NewNumericDate(now),
	}
	if s.sessionTTL > 0 {
		std.Expiry = gojwt.NewNumericDate(now.Add(s.sessionTTL))
	}
	return s.sign(std, customClaims{IsAdmin: isAdmin, Purpose: string(PurposeSession)})
}

// IssueShortLived produces a signed single-purpose token carrying only the
// email claim, expiring after ttl (DefaultShortLivedTTL when zero).
func (s *Service) IssueShortLived(email string, purpose Purpose, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultShortLivedTTL
	}
	now := s.now().UTC()
	std := gojwt.Claims{
		Issuer:   s.issuer,
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(ttl)),
	}
	return s.sign(std, customClaims{Email: email, Purpose: string(purpose)})
}

// Verify parses raw and returns its claims. Failures are ErrExpired for a
// token past its expiry claim and ErrInvalid for everything else, including
// a purpose other than want.
func (s *Service) Verify(raw string, want Purpose) (Claims, error) {
	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var std gojwt.Claims
	var custom customClaims
	if err := parsed.Claims(s.secret, &std, &custom); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	expected := gojwt.Expected{Issuer: s.issuer, Time: s.now()}
	if err := std.Validate(expected); err != nil {
		if errors.Is(err, gojwt.ErrExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if custom.Purpose != string(want) {
		return Claims{}, fmt.Errorf("%w: unexpected purpose", ErrInvalid)
	}

	claims := Claims{
		IsAdmin: custom.IsAdmin,
		Email:   custom.Email,
		Purpose: Purpose(custom.Purpose),
	}
	if std.Subject != "" {
		id, err := strconv.ParseInt(std.Subject, 10, 64)
		if err != nil {
			return Claims{}, fmt.Errorf("%w: malformed subject", ErrInvalid)
		}
		claims.AccountID = id
	}
	return claims, nil
}

func (s *Service) sign(std gojwt.Claims, custom customClaims) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: s.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}
	token, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return token, nil
}
