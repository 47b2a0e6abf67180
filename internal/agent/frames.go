package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register decoder
	"strings"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxDimension  = 1024
	DefaultFrameInterval = time.Second
	jpegQuality          = 80
)

var ErrEmptyFrame = errors.New("empty frame")

// FramePipeline decodes, downscales and re-encodes screen-share frames, forwarding at
// most one frame per interval.
type FramePipeline struct {
	maxDim  int
	limiter *rate.Limiter

	mu  sync.Mutex
	now func() time.Time
}

// NewFramePipeline creates a pipeline. Zero values select the defaults.
func NewFramePipeline(maxDim int, interval time.Duration) *FramePipeline {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FramePipeline{
		maxDim:  maxDim,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		now:     time.Now,
	}
}

// Process returns the JPEG to attach, or ok=false when the frame is dropped by the rate limit.
// data may be raw JPEG/PNG bytes, base64, or a data URL. Frames that fail to decode do not
// use up the interval.
func (p *FramePipeline) Process(data []byte) (out []byte, ok bool, err error) {
	img, err := decodeNonEmpty(data)
	if err != nil {
		return nil, false, err
	}

	p.mu.Lock()
	allowed := p.limiter.AllowN(p.now(), 1)
	p.mu.Unlock()
	if !allowed {
		return nil, false, nil
	}
	out, err = p.encode(img)
	return out, err == nil, err
}

// ProcessWait is Process for frames that must not be dropped: it blocks until the rate
// limit admits the frame or ctx is done.
func (p *FramePipeline) ProcessWait(ctx context.Context, data []byte) ([]byte, error) {
	img, err := decodeNonEmpty(data)
	if err != nil {
		return nil, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.encode(img)
}

func (p *FramePipeline) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Downscale(img, p.maxDim), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeNonEmpty(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}
	return DecodeFrame(data)
}

// DecodeFrame decodes a JPEG or PNG given as raw bytes, base64 or a data URL.
func DecodeFrame(data []byte) (image.Image, error) {
	raw := data
	if !isImage(data) {
		text := strings.TrimSpace(string(data))
		if i := strings.Index(text, ";base64,"); strings.HasPrefix(text, "data:") && i >= 0 {
			text = text[i+len(";base64,"):]
		}
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("frame is neither an image nor base64: %w", err)
		}
		raw = decoded
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func isImage(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}) ||
		bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
}

// Downscale bounds the longer side to maxDim, keeping the aspect ratio. Smaller images
// are returned unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = max(1, h*maxDim/w)
	} else {
		nh = maxDim
		nw = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
