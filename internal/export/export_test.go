package export

import (
	"bytes"
	"context"
	"errors"
	"image/gif"
	"sync"
	"testing"

	"stickerlab/backend/internal/lottie"
	"stickerlab/backend/internal/models"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	m.sets++
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

const bounce = `{"v":"5.7.0","nm":"Bounce","fr":10,"ip":0,"op":10,"w":64,"h":64,"layers":[
 {"ty":4,"ks":{"p":{"a":1,"k":[{"t":0,"s":[32,16]},{"t":10,"s":[32,48]}]}},
  "shapes":[{"ty":"el","p":{"k":[0,0]},"s":{"k":[20,20]}},{"ty":"fl","c":{"k":[0,0,1,1]}}]}]}`

func TestExportSVG(t *testing.T) {
	e := NewExporter(nil, 0)
	game := &models.Game{ID: "g1", Title: "Happy cat!", Content: "<svg/>", ContentType: models.ContentTypeSVGAnimated}

	f, err := e.Export(context.Background(), game, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if f.Name != "Happy_cat.svg" || f.ContentType != "image/svg+xml" || string(f.Data) != "<svg/>" {
		t.Fatalf("unexpected file %+v", f)
	}
}

func TestExportLottieJSON(t *testing.T) {
	e := NewExporter(nil, 0)
	game := &models.Game{ID: "g1", Title: "", Content: bounce, ContentType: models.ContentTypeLottie}

	f, err := e.Export(context.Background(), game, FormatJSON)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if f.Name != "sticker.json" || f.ContentType != "application/json" || string(f.Data) != bounce {
		t.Fatalf("unexpected file %+v", f)
	}
}

func TestExportUnsupportedFormats(t *testing.T) {
	e := NewExporter(nil, 0)
	cases := []struct {
		ct     models.ContentType
		format Format
	}{
		{models.ContentTypeSVG, FormatGIF},
		{models.ContentTypeSVG, FormatJSON},
		{models.ContentTypeLottie, FormatSVG},
		{models.ContentTypeLottie, Format("png")},
	}
	for _, tc := range cases {
		game := &models.Game{ID: "g", Content: "x", ContentType: tc.ct}
		if _, err := e.Export(context.Background(), game, tc.format); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s as %s: expected ErrUnsupportedFormat, got %v", tc.ct, tc.format, err)
		}
	}
}

func TestExportGIFIsCached(t *testing.T) {
	cache := newMemCache()
	e := NewExporter(cache, 0)
	game := &models.Game{ID: "g1", Title: "Bounce", Content: bounce, ContentType: models.ContentTypeLottie}

	f, err := e.Export(context.Background(), game, FormatGIF)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if f.Name != "Bounce.gif" || f.ContentType != "image/gif" {
		t.Fatalf("unexpected file %+v", f)
	}
	out, err := gif.DecodeAll(bytes.NewReader(f.Data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Image) != 10 {
		t.Fatalf("expected 10 frames, got %d", len(out.Image))
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}

	if _, err := e.Export(context.Background(), game, FormatGIF); err != nil {
		t.Fatalf("second export: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected the second export to hit the cache, got %d writes", cache.sets)
	}

	if err := e.Evict(context.Background(), "g1"); err != nil {
		t.Fatalf("evict: %v", err)
	}
	if _, ok, _ := cache.Get(context.Background(), cacheKey("g1", FormatGIF)); ok {
		t.Fatal("expected the cached export to be evicted")
	}
}

func TestExportGIFServedFromCache(t *testing.T) {
	cache := newMemCache()
	cache.data[cacheKey("g1", FormatGIF)] = []byte("cached")
	e := NewExporter(cache, 0)

	// Content is never parsed when the export is cached.
	game := &models.Game{ID: "g1", Content: "not json", ContentType: models.ContentTypeLottie}
	f, err := e.Export(context.Background(), game, FormatGIF)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(f.Data) != "cached" {
		t.Fatalf("unexpected data %q", f.Data)
	}
}

func TestExportGIFInvalidContent(t *testing.T) {
	e := NewExporter(newMemCache(), 0)
	game := &models.Game{ID: "g1", Content: "not json", ContentType: models.ContentTypeLottie}
	if _, err := e.Export(context.Background(), game, FormatGIF); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}

func TestExportGIFConcurrent(t *testing.T) {
	e := NewExporter(newMemCache(), 0)
	game := &models.Game{ID: "g1", Content: bounce, ContentType: models.ContentTypeLottie}

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := e.Export(context.Background(), game, FormatGIF)
			errs[i] = err
			if f != nil {
				results[i] = f.Data
			}
		}()
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("export %d: %v", i, errs[i])
		}
		if !bytes.Equal(results[i], results[0]) {
			t.Fatalf("export %d differs from the first", i)
		}
	}
	if got := lottie.ActiveSurfaces(); got != 0 {
		t.Fatalf("expected all surfaces released, %d active", got)
	}
}

func TestFilename(t *testing.T) {
	cases := map[string]string{
		"Happy cat":        "Happy_cat",
		"  spaced   out  ": "spaced_out",
		"Sticker #1: cat?": "Sticker_1_cat",
		"a-b_c":            "a-b_c",
		"!!!":              "sticker",
		"":                 "sticker",
	}
	for in, want := range cases {
		if got := Filename(in); got != want {
			t.Errorf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}
