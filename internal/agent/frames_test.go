package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 8 {
		for x := 0; x < w; x += 8 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func TestDownscale(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"wide", 2048, 1024, 1024, 512},
		{"tall", 600, 3000, 204, 1024},
		{"exact bound", 1024, 768, 1024, 768},
		{"small is not upscaled", 500, 300, 500, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Downscale(testImage(tt.w, tt.h), 1024)
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

func TestDecodeFrameFormats(t *testing.T) {
	raw := pngBytes(t, 40, 20)
	encoded := base64.StdEncoding.EncodeToString(raw)

	for name, data := range map[string][]byte{
		"raw png":  raw,
		"base64":   []byte(encoded),
		"data url": []byte("data:image/png;base64," + encoded),
	} {
		t.Run(name, func(t *testing.T) {
			img, err := DecodeFrame(data)
			require.NoError(t, err)
			assert.Equal(t, 40, img.Bounds().Dx())
		})
	}

	_, err := DecodeFrame([]byte("not an image"))
	assert.Error(t, err)
}

func TestProcessReencodesAsJPEG(t *testing.T) {
	p := NewFramePipeline(256, time.Second)

	out, ok, err := p.Process(pngBytes(t, 1024, 512))
	require.NoError(t, err)
	require.True(t, ok)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())
}

func TestProcessRateLimit(t *testing.T) {
	p := NewFramePipeline(0, time.Second)
	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	now := start
	p.now = func() time.Time { return now }
	frame := pngBytes(t, 16, 16)

	_, ok, err := p.Process(frame)
	require.NoError(t, err)
	assert.True(t, ok, "first frame is forwarded")

	now = start.Add(500 * time.Millisecond)
	_, ok, err = p.Process(frame)
	require.NoError(t, err)
	assert.False(t, ok, "second frame within the interval is dropped")

	now = start.Add(time.Second)
	_, ok, err = p.Process(frame)
	require.NoError(t, err)
	assert.True(t, ok, "frame after the interval is forwarded")
}

func TestProcessMalformedFrameKeepsInterval(t *testing.T) {
	p := NewFramePipeline(0, time.Second)
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	_, ok, err := p.Process([]byte("not an image"))
	require.Error(t, err)
	assert.False(t, ok)

	_, ok, err = p.Process(pngBytes(t, 16, 16))
	require.NoError(t, err)
	assert.True(t, ok, "a bad frame must not use up the interval")
}

func TestProcessWait(t *testing.T) {
	interval := 50 * time.Millisecond
	p := NewFramePipeline(0, interval)
	frame := pngBytes(t, 16, 16)

	start := time.Now()
	for range 2 {
		out, err := p.ProcessWait(context.Background(), frame)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte{0xff, 0xd8}))
	}
	assert.GreaterOrEqual(t, time.Since(start), interval/2, "second frame waits for the limiter")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.ProcessWait(ctx, frame)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = p.ProcessWait(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestProcessEmptyFrame(t *testing.T) {
	_, _, err := NewFramePipeline(0, 0).Process(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}
