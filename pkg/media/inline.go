// Package media converts between durable media URLs and inline data-URL
// payloads. Several generation providers require inline bytes rather than a
// fetchable URL, so references are normalized through here before submission.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrFetchFailed indicates the byte content behind a URL could not be
// retrieved. Callers treat this as non-fatal for optional references and
// abort only when the reference was mandatory.
var ErrFetchFailed = errors.New("failed to fetch media")

// ErrInvalidDataURL indicates a malformed inline payload.
var ErrInvalidDataURL = errors.New("invalid data url")

const defaultFetchTimeout = 60 * time.Second

// InlinePayload is a self-contained, mime-tagged media payload.
type InlinePayload struct {
	MIME string
	Data []byte
}

// DataURL renders the payload as a data URL.
func (p InlinePayload) DataURL() string {
	return "data:" + p.MIME + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// IsDataURL reports whether the string is an inline data URL rather than a
// fetchable location.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// ParseDataURL decodes a base64 data URL back into an InlinePayload.
func ParseDataURL(s string) (InlinePayload, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return InlinePayload{}, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURL)
	}

	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return InlinePayload{}, fmt.Errorf("%w: missing payload separator", ErrInvalidDataURL)
	}

	mime, _ := strings.CutSuffix(meta, ";base64")

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return InlinePayload{}, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}

	return InlinePayload{MIME: mime, Data: data}, nil
}

// Normalizer fetches media bytes behind URLs and re-encodes them inline.
type Normalizer struct {
	client *http.Client
}

// NewNormalizer creates a normalizer. A nil client gets a default with a
// fetch timeout suitable for large media payloads.
func NewNormalizer(client *http.Client) *Normalizer {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}

	return &Normalizer{client: client}
}

// ToInline fetches the byte content behind a URL and returns it as a
// mime-tagged inline payload. URLs that are already inline are decoded
// without a network round trip.
func (n *Normalizer) ToInline(ctx context.Context, url string) (InlinePayload, error) {
	if IsDataURL(url) {
		return ParseDataURL(url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return InlinePayload{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return InlinePayload{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return InlinePayload{}, fmt.Errorf("%w: %s returned status %d", ErrFetchFailed, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return InlinePayload{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}

	return InlinePayload{MIME: mime, Data: data}, nil
}
