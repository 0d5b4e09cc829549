// Package avatar derives a default profile picture for new users. The
// lookup is best-effort enrichment: any failure maps to "no avatar" and
// must never fail the operation that requested it.
package avatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider looks up an avatar URL for an email address. Implementations
// return an error only to mean "no avatar could be derived"; callers treat
// that as an empty result.
type Provider interface {
	Lookup(ctx context.Context, email string) (string, error)
}

// ErrNoAvatar is returned when the provider has no image for the address.
var ErrNoAvatar = errors.New("no avatar for this email")

// Gravatar resolves avatars through gravatar.com. The d=404 parameter makes
// Gravatar answer 404 instead of a generated placeholder, so existence can
// be probed with a single HEAD request.
type Gravatar struct {
	client *http.Client
	base   string
}

// NewGravatar returns a Gravatar provider with a short request timeout.
func NewGravatar() *Gravatar {
	return &Gravatar{
		client: &http.Client{Timeout: 5 * time.Second},
		base:   "https://www.gravatar.com/avatar",
	}
}

// Lookup returns the Gravatar URL for email if one is registered.
func (g *Gravatar) Lookup(ctx context.Context, email string) (string, error) {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	url := fmt.Sprintf("%s/%s?s=250&d=404", g.base, hex.EncodeToString(sum[:]))

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", ErrNoAvatar
	}
	return url, nil
}
