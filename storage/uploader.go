package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var ErrUnsupportedContentType = errors.New("unsupported logo content type")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// LogoKey builds the object key of a tournament logo, e.g.
// "tournaments/3f2a.../spring-cup-9c1e....png".
func LogoKey(tournamentID, tournamentName, contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := logoExtensions[ct]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	name := slug.Make(tournamentName)
	if name == "" {
		name = "logo"
	}
	return fmt.Sprintf("tournaments/%s/%s-%s%s", tournamentID, name, uuid.NewString(), ext), nil
}

// KeyFromURL recovers the object key from a public URL produced by
// GetPublicURL. It returns "" when location does not start with base.
func KeyFromURL(base, location string) string {
	if base == "" || !strings.HasPrefix(location, base) {
		return ""
	}
	return strings.TrimPrefix(strings.TrimPrefix(location, base), "/")
}

// ObjectKey recovers the key of an object from the public URL u produced
// for it.
func ObjectKey(u FileUploader, location string) string {
	const marker = "key"
	base := strings.TrimSuffix(u.GetPublicURL(marker), marker)
	return KeyFromURL(base, location)
}
