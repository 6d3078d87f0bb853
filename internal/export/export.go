// Package export produces downloadable files from sticker records.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"stickerlab/backend/internal/lottie"
	"stickerlab/backend/internal/models"

	"golang.org/x/sync/singleflight"
)

// Format is a download format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
	FormatGIF  Format = "gif"
)

var (
	ErrUnsupportedFormat = errors.New("export: format not supported for this content type")
	ErrInvalidContent    = errors.New("export: content is not a valid animation")
)

// DefaultTimeout bounds GIF encoding when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// File is an exported download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Cache stores encoded exports. Records are immutable, so entries never go
// stale; they are only evicted when a record is deleted.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Exporter converts records into files. Concurrent GIF exports of the same
// record share a single encode.
type Exporter struct {
	cache   Cache
	timeout time.Duration
	group   singleflight.Group
}

// NewExporter creates an Exporter. cache may be nil.
func NewExporter(cache Cache, timeout time.Duration) *Exporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exporter{cache: cache, timeout: timeout}
}

// DefaultFormat is the format used when a request does not name one.
func DefaultFormat(ct models.ContentType) Format {
	if ct == models.ContentTypeLottie {
		return FormatJSON
	}
	return FormatSVG
}

// Export renders game in the requested format.
func (e *Exporter) Export(ctx context.Context, game *models.Game, format Format) (*File, error) {
	if format == "" {
		format = DefaultFormat(game.ContentType)
	}
	name := Filename(game.Title)

	switch {
	case game.ContentType != models.ContentTypeLottie && format == FormatSVG:
		return &File{Name: name + ".svg", ContentType: "image/svg+xml", Data: []byte(game.Content)}, nil
	case game.ContentType == models.ContentTypeLottie && format == FormatJSON:
		return &File{Name: name + ".json", ContentType: "application/json", Data: []byte(game.Content)}, nil
	case game.ContentType == models.ContentTypeLottie && format == FormatGIF:
		data, err := e.gif(ctx, game)
		if err != nil {
			return nil, err
		}
		return &File{Name: name + ".gif", ContentType: "image/gif", Data: data}, nil
	}
	return nil, fmt.Errorf("%w: %s as %s", ErrUnsupportedFormat, game.ContentType, format)
}

func (e *Exporter) gif(ctx context.Context, game *models.Game) ([]byte, error) {
	key := cacheKey(game.ID, FormatGIF)
	if e.cache != nil {
		data, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			log.Printf("export: cache get %s: %v", key, err)
		} else if ok {
			return data, nil
		}
	}

	// The shared encode must not be cut short by one caller going away.
	shared := context.WithoutCancel(ctx)
	v, err, _ := e.group.Do(key, func() (any, error) {
		anim, err := lottie.Parse(game.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		data, err := lottie.EncodeGIF(shared, anim, lottie.Options{Timeout: e.timeout})
		if err != nil {
			return nil, err
		}
		if e.cache != nil {
			if err := e.cache.Set(shared, key, data); err != nil {
				log.Printf("export: cache set %s: %v", key, err)
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Evict drops cached exports of a record.
func (e *Exporter) Evict(ctx context.Context, id string) error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Delete(ctx, cacheKey(id, FormatGIF))
}

func cacheKey(id string, format Format) string {
	return "export:" + id + ":" + string(format)
}

var (
	whitespace   = regexp.MustCompile(`\s+`)
	unsafeInName = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// Filename derives a download file name, without extension, from a title.
func Filename(title string) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(title), "_")
	name = unsafeInName.ReplaceAllString(name, "")
	if name == "" {
		return "sticker"
	}
	return name
}
