package markers

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/dgraph-io/ristretto"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const markerSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="32" height="42" viewBox="0 0 32 42">
<path d="M16 1C7.7 1 1 7.7 1 16c0 11.2 15 25 15 25s15-13.8 15-25C31 7.7 24.3 1 16 1z" fill="%s" stroke="#1f2937" stroke-width="1.5"/>
<circle cx="16" cy="16" r="7.5" fill="%s" stroke="#ffffff" stroke-width="2"/>
</svg>`

// Renderer draws marker icons and keeps the rasterised PNGs in memory.
type Renderer struct {
	cache *ristretto.Cache
	scale int
}

// NewRenderer creates a renderer; scale multiplies the 32x42 view box.
func NewRenderer(scale int) (*Renderer, error) {
	if scale <= 0 {
		scale = 1
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     4 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("icon cache: %w", err)
	}
	return &Renderer{cache: cache, scale: scale}, nil
}

func (r *Renderer) Close() {
	if r == nil || r.cache == nil {
		return
	}
	r.cache.Close()
}

// SVG returns the vector source of the icon.
func (r *Renderer) SVG(icon Icon) []byte {
	return []byte(fmt.Sprintf(markerSVG, icon.BaseColor, icon.StatusColor))
}

// PNG rasterises the icon, serving repeats from the cache.
func (r *Renderer) PNG(icon Icon) ([]byte, error) {
	key := fmt.Sprintf("%s/%s@%d", icon.Kind, icon.Status, r.scale)
	if cached, ok := r.cache.Get(key); ok {
		if b, ok := cached.([]byte); ok {
			return b, nil
		}
	}

	svg, err := oksvg.ReadIconStream(bytes.NewReader(r.SVG(icon)))
	if err != nil {
		return nil, fmt.Errorf("parse marker svg: %w", err)
	}
	w := int(svg.ViewBox.W) * r.scale
	h := int(svg.ViewBox.H) * r.scale
	svg.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	svg.Draw(dasher, 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode marker png: %w", err)
	}
	out := buf.Bytes()
	r.cache.Set(key, out, int64(len(out)))
	r.cache.Wait()
	return out, nil
}
