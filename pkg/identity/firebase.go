package identity

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	issuerPrefix = "https://securetoken.google.com/"

	// minRefreshInterval bounds how often an unknown key id may trigger a
	// fetch while the cached certificates are still fresh.
	minRefreshInterval = time.Minute
)

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// FirebaseVerifier checks RS256 ID tokens against the authority's published
// signing certificates. Certificates are cached until their max-age lapses
// and refetched early when a token names an unknown key id, at most once per
// minRefreshInterval.
type FirebaseVerifier struct {
	projectID  string
	certsURL   string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	refreshMu sync.Mutex

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
	fetched time.Time
}

func NewFirebaseVerifier(projectID, certsURL string, timeout time.Duration, logger *zap.Logger) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID:  projectID,
		certsURL:   certsURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	claims := &idTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, fmt.Errorf("token has no kid header")
			}
			return v.key(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(issuerPrefix+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	if claims.Email == "" {
		return nil, ErrNoEmail
	}

	return &Principal{UID: claims.Subject, Email: strings.ToLower(claims.Email), Name: claims.Name}, nil
}

func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	k, ok := v.keys[kid]
	fresh := v.now().Before(v.expires)
	v.mu.RUnlock()
	if ok && fresh {
		return k, nil
	}

	if err := v.maybeRefresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if k, ok := v.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("unknown signing key %q", kid)
}

// maybeRefresh fetches certificates unless the cache is fresh and was fetched
// recently. Concurrent callers share one fetch.
func (v *FirebaseVerifier) maybeRefresh(ctx context.Context) error {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	v.mu.RLock()
	now := v.now()
	skip := now.Before(v.expires) && now.Sub(v.fetched) < minRefreshInterval
	v.mu.RUnlock()
	if skip {
		return nil
	}
	return v.refresh(ctx)
}

func (v *FirebaseVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build certs request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch signing certs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch signing certs: status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("failed to decode signing certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			v.logger.Warn("Skipping unparsable signing cert", zap.String("kid", kid), zap.Error(err))
			continue
		}
		keys[kid] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.fetched = v.now()
	v.expires = v.fetched.Add(maxAge(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()

	v.logger.Debug("Refreshed signing certs", zap.Int("keys", len(keys)))
	return nil
}

// maxAge extracts max-age from a Cache-Control header, defaulting to one hour.
func maxAge(header string) time.Duration {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return time.Hour
}
