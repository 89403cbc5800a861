package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// SheetsScope must be granted to a token for it to be useful here.
const SheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// ErrInvalidToken is returned for tokens the identity provider rejects.
var ErrInvalidToken = errors.New("invalid access token")

type Verifier interface {
	Verify(ctx context.Context, token string) (*Session, error)
}

// PresenceVerifier accepts any non-empty token without contacting the
// identity provider. Bad tokens then fail at the spreadsheet API instead.
type PresenceVerifier struct{}

func (PresenceVerifier) Verify(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	return &Session{AccessToken: token}, nil
}

// GoogleVerifier checks tokens against Google's tokeninfo endpoint.
type GoogleVerifier struct {
	svc *oauth2api.Service
	now func() time.Time
}

type VerifierOption func(*verifierConfig)

type verifierConfig struct {
	httpClient *http.Client
	endpoint   string
}

func WithVerifierHTTPClient(c *http.Client) VerifierOption {
	return func(vc *verifierConfig) { vc.httpClient = c }
}

func WithVerifierEndpoint(endpoint string) VerifierOption {
	return func(vc *verifierConfig) { vc.endpoint = endpoint }
}

func NewGoogleVerifier(ctx context.Context, opts ...VerifierOption) (*GoogleVerifier, error) {
	vc := verifierConfig{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&vc)
	}
	clientOpts := []option.ClientOption{option.WithHTTPClient(vc.httpClient)}
	if vc.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(vc.endpoint))
	}
	svc, err := oauth2api.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo client: %w", err)
	}
	return &GoogleVerifier{svc: svc, now: time.Now}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	info, err := v.svc.Tokeninfo().AccessToken(token).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidToken, apiErr.Message)
		}
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if info.ExpiresIn <= 0 {
		return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if !hasScope(info.Scope, SheetsScope) {
		return nil, fmt.Errorf("%w: spreadsheets scope not granted", ErrInvalidToken)
	}
	return &Session{
		AccessToken: token,
		Email:       info.Email,
		ExpiresAt:   v.now().Add(time.Duration(info.ExpiresIn) * time.Second),
	}, nil
}

func hasScope(scopes, want string) bool {
	for _, s := range strings.Fields(scopes) {
		if s == want {
			return true
		}
	}
	return false
}

// Recorder is told whether each verification was served from cache.
type Recorder interface {
	ObserveAuth(outcome string)
}

// CachingVerifier remembers successful verifications until the token
// expires or ttl passes, whichever is sooner. Rejections are not cached.
type CachingVerifier struct {
	next     Verifier
	ttl      time.Duration
	cache    *cache.Cache
	recorder Recorder
	now      func() time.Time
}

func NewCachingVerifier(next Verifier, ttl time.Duration, recorder Recorder) *CachingVerifier {
	return &CachingVerifier{
		next:     next,
		ttl:      ttl,
		cache:    cache.New(ttl, 2*ttl),
		recorder: recorder,
		now:      time.Now,
	}
}

func (c *CachingVerifier) Verify(ctx context.Context, token string) (*Session, error) {
	key := tokenKey(token)
	if v, ok := c.cache.Get(key); ok {
		c.observe("hit")
		return v.(*Session), nil
	}

	s, err := c.next.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			c.observe("rejected")
		} else {
			c.observe("error")
		}
		return nil, err
	}
	c.observe("miss")

	ttl := c.ttl
	if !s.ExpiresAt.IsZero() {
		if remaining := s.ExpiresAt.Sub(c.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		c.cache.Set(key, s, ttl)
	}
	return s, nil
}

func (c *CachingVerifier) observe(outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveAuth(outcome)
	}
}

// tokenKey keeps raw tokens out of the cache's key space.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
