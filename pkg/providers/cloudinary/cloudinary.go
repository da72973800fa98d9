// Package cloudinary implements the media host: durable storage for
// generated assets and URL-based video/audio compositing.
package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/protocol"
)

// ErrNotHostedURL indicates a URL that does not point at an asset on the
// media host, so no transformation can be derived from it.
var ErrNotHostedURL = errors.New("url is not a hosted media asset")

const (
	defaultAPIBaseURL      = "https://api.cloudinary.com"
	defaultDeliveryBaseURL = "https://res.cloudinary.com"
	defaultTimeout         = 120 * time.Second

	videoFolder = "uplix-flow-videos"
	audioFolder = "uplix-audio"
)

// publicIDPattern extracts the bare asset name from a delivery URL.
var publicIDPattern = regexp.MustCompile(`(?i)/([^/]+)\.(mp4|mp3|jpg|png|webm|mov)$`)

// Config holds the client configuration. CloudName, APIKey and APISecret are
// required; the rest default sensibly.
type Config struct {
	CloudName       string
	APIKey          string
	APISecret       string
	APIBaseURL      string
	DeliveryBaseURL string
	HTTPClient      *http.Client
	Clock           clockwork.Clock
	Logger          *slog.Logger
}

// Client calls the Cloudinary upload API and builds delivery URLs. It
// implements protocol.MediaHost.
type Client struct {
	cloudName       string
	apiKey          string
	apiSecret       string
	apiBaseURL      string
	deliveryBaseURL string
	httpClient      *http.Client
	clock           clockwork.Clock
	logger          *slog.Logger
}

// NewClient creates a Cloudinary client.
func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}

	if cfg.DeliveryBaseURL == "" {
		cfg.DeliveryBaseURL = defaultDeliveryBaseURL
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		cloudName:       cfg.CloudName,
		apiKey:          cfg.APIKey,
		apiSecret:       cfg.APISecret,
		apiBaseURL:      cfg.APIBaseURL,
		deliveryBaseURL: cfg.DeliveryBaseURL,
		httpClient:      cfg.HTTPClient,
		clock:           cfg.Clock,
		logger:          cfg.Logger.With("module", "cloudinary"),
	}
}

type uploadResponse struct {
	SecureURL string  `json:"secure_url"`
	PublicID  string  `json:"public_id"`
	Duration  float64 `json:"duration"`
}

// Upload stores raw media bytes under the given folder and returns the
// durable delivery URL. Audio uploads are transcoded to mp3; Cloudinary
// files audio under the video resource type.
func (c *Client) Upload(ctx context.Context, data []byte, mime, folder string) (protocol.UploadResult, error) {
	signed := url.Values{}
	signed.Set("folder", folder)
	signed.Set("timestamp", strconv.FormatInt(c.clock.Now().Unix(), 10))

	if strings.HasPrefix(mime, "audio/") {
		signed.Set("format", "mp3")
	}

	form := url.Values{}
	for key := range signed {
		form.Set(key, signed.Get(key))
	}

	form.Set("file", "data:"+mime+";base64,"+base64.StdEncoding.EncodeToString(data))
	form.Set("api_key", c.apiKey)
	form.Set("signature", c.sign(signed))

	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/upload", c.apiBaseURL, c.cloudName, resourceTypeFor(mime))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return protocol.UploadResult{}, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return protocol.UploadResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.UploadResult{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return protocol.UploadResult{}, fmt.Errorf("cloudinary upload returned status %d: %s", resp.StatusCode, string(body))
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return protocol.UploadResult{}, err
	}

	c.logger.DebugContext(ctx, "Uploaded media", "folder", folder, "public_id", uploaded.PublicID)

	return protocol.UploadResult{URL: uploaded.SecureURL, DurationSeconds: uploaded.Duration}, nil
}

// BuildOverlayURL derives a delivery URL that plays the audio track over the
// video. Both assets must already live on this host under their standard
// folders. The transition is accepted for callers that thread it through but
// the overlay transformation does not use it.
func (c *Client) BuildOverlayURL(videoURL, audioURL string, _ models.TransitionKind) (string, error) {
	videoID, err := extractPublicID(videoURL)
	if err != nil {
		return "", err
	}

	audioID, err := extractPublicID(audioURL)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/video/upload/l_video:%s:%s,fl_layer_apply/%s/%s.mp4",
		c.deliveryBaseURL, c.cloudName, audioFolder, audioID, videoFolder, videoID), nil
}

// sign computes the request signature: the alphabetically sorted signed
// parameters joined with ampersands, with the API secret appended, hashed
// with SHA-1.
func (c *Client) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params.Get(key))
	}

	digest := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))

	return hex.EncodeToString(digest[:])
}

func resourceTypeFor(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "video/"), strings.HasPrefix(mime, "audio/"):
		return "video"
	default:
		return "auto"
	}
}

func extractPublicID(mediaURL string) (string, error) {
	match := publicIDPattern.FindStringSubmatch(mediaURL)
	if match == nil {
		return "", fmt.Errorf("%w: %s", ErrNotHostedURL, mediaURL)
	}

	return match[1], nil
}
