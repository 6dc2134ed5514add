package tiles

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"iaas_console/console-go/internal/geo"
)

var ErrTileNotFound = errors.New("tile not found")

const tileCacheTTL = 10 * time.Minute

// Store reads pre-rendered tiles laid out as {dir}/{z}/{x}/{y}.png.
type Store struct {
	dir     string
	minZoom int
	maxZoom int
	cache   *ristretto.Cache
}

func NewStore(dir string, minZoom, maxZoom int) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("offline tile directory is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("offline tile directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("offline tile directory: %s is not a directory", dir)
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("tile cache: %w", err)
	}
	return &Store{dir: dir, minZoom: minZoom, maxZoom: maxZoom, cache: cache}, nil
}

func (s *Store) Close() {
	if s == nil || s.cache == nil {
		return
	}
	s.cache.Close()
}

func (s *Store) path(t geo.Tile) string {
	return filepath.Join(s.dir, strconv.Itoa(t.Zoom), strconv.Itoa(t.X), strconv.Itoa(t.Y)+".png")
}

// Get returns the tile bytes or ErrTileNotFound for addresses outside the
// configured zoom range or absent from disk.
func (s *Store) Get(t geo.Tile) ([]byte, error) {
	if s == nil || !geo.ValidTile(t, s.minZoom, s.maxZoom) {
		return nil, ErrTileNotFound
	}
	key := s.path(t)
	if cached, ok := s.cache.Get(key); ok {
		if b, ok := cached.([]byte); ok {
			return b, nil
		}
	}

	b, err := os.ReadFile(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrTileNotFound
		}
		return nil, err
	}
	s.cache.SetWithTTL(key, b, int64(len(b)), tileCacheTTL)
	s.cache.Wait()
	return b, nil
}

func (s *Store) Has(t geo.Tile) bool {
	if s == nil || !geo.ValidTile(t, s.minZoom, s.maxZoom) {
		return false
	}
	info, err := os.Stat(s.path(t))
	return err == nil && info.Mode().IsRegular()
}

// Placeholder is a fully transparent 1x1 PNG drawn in place of missing tiles.
var Placeholder = encodePlaceholder()

// PlaceholderDataURI is Placeholder inlined for Leaflet's errorTileUrl.
var PlaceholderDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString(Placeholder)

func encodePlaceholder() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
