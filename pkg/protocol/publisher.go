package protocol

import "context"

// Credentials authorize publishing on behalf of a social account. They are
// passed explicitly on every call; nothing here is ambient state.
type Credentials struct {
	AccessToken string
	AccountID   string
}

// Publisher pushes a generated media URL to a social platform. The media URL
// must be durable and publicly fetchable by the platform.
type Publisher interface {
	PublishPost(ctx context.Context, creds Credentials, mediaURL, caption string) (string, error)
	PublishReel(ctx context.Context, creds Credentials, videoURL, caption string) (string, error)
}
