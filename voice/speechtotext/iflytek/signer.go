package iflytek

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultHost = "iat-api.xfyun.cn"
	iatPath     = "/v2/iat"
)

// ErrMissingCredentials means the application id, key or secret is absent.
// This is a deployment problem, not a runtime one, and callers are expected
// to fail fast on it.
var ErrMissingCredentials = errors.New("iflytek credentials are not configured")

// Credentials hold the application identity and the shared secret used to
// sign connection URLs. The secret never travels over the wire; it must only
// be present in a trusted process.
type Credentials struct {
	AppID     string
	APIKey    string
	APISecret string
}

func (c Credentials) validate() error {
	if c.AppID == "" || c.APIKey == "" || c.APISecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// SignedEndpoint is a connection URL authenticated for a narrow time window.
// It is single use: resolve a fresh one per session, never cache it.
type SignedEndpoint struct {
	URL   string `json:"url"`
	AppID string `json:"appId"`
}

// Resolver produces a signed endpoint for one recognition session.
type Resolver interface {
	ResolveEndpoint(ctx context.Context) (SignedEndpoint, error)
}

// SignEndpoint builds the wss URL for the recognition service, signed with
// HMAC-SHA256 over the canonical "host date request-line" string at the given
// instant. The embedded date is what bounds the URL's validity.
func SignEndpoint(creds Credentials, at time.Time) (SignedEndpoint, error) {
	if err := creds.validate(); err != nil {
		return SignedEndpoint{}, err
	}

	date := at.UTC().Format(http.TimeFormat)

	canonical := fmt.Sprintf("host: %s\ndate: %s\nGET %s HTTP/1.1", defaultHost, date, iatPath)
	mac := hmac.New(sha256.New, []byte(creds.APISecret))
	mac.Write([]byte(canonical))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authOrigin := fmt.Sprintf(
		`api_key="%s", algorithm="hmac-sha256", headers="host date request-line", signature="%s"`,
		creds.APIKey, signature,
	)
	authorization := base64.StdEncoding.EncodeToString([]byte(authOrigin))

	query := url.Values{}
	query.Set("authorization", authorization)
	query.Set("date", date)
	query.Set("host", defaultHost)

	return SignedEndpoint{
		URL:   fmt.Sprintf("wss://%s%s?%s", defaultHost, iatPath, query.Encode()),
		AppID: creds.AppID,
	}, nil
}

// LocalSigner resolves endpoints directly from credentials held in-process.
type LocalSigner struct {
	Credentials Credentials
}

func (s LocalSigner) ResolveEndpoint(context.Context) (SignedEndpoint, error) {
	return SignEndpoint(s.Credentials, time.Now())
}
