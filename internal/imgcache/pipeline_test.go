package imgcache

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestPipeline() *Pipeline {
	return New(log.New(io.Discard))
}

func TestRequestCoalescesConcurrentCallers(t *testing.T) {
	p := newTestPipeline()
	fetches := 0
	data := pngBytes(t, 16, 16)
	p.fetchFn = func(context.Context, string) ([]byte, error) {
		fetches++
		return data, nil
	}

	const url = "https://cdn.example/img.png"
	first, task := p.Request(url, 10, 5)
	require.NotNil(t, task)
	assert.Equal(t, StatePending, first.State)

	second, dup := p.Request(url, 10, 5)
	assert.Nil(t, dup, "second request must attach to the pending entry")
	assert.Equal(t, StatePending, second.State)

	result := task()
	require.NoError(t, result.Err)
	assert.Equal(t, 1, fetches)

	entry, ok := p.Lookup(url)
	require.True(t, ok)
	assert.Equal(t, StateReady, entry.State)
	assert.NotEmpty(t, entry.Payload)

	// a later request returns the ready entry, no new task
	third, none := p.Request(url, 10, 5)
	assert.Nil(t, none)
	assert.Equal(t, entry.Payload, third.Payload)
	assert.Equal(t, 1, fetches)
}

func TestFetchFailureMarksFailed(t *testing.T) {
	p := newTestPipeline()
	p.fetchFn = func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}

	const url = "https://cdn.example/broken.png"
	_, task := p.Request(url, 10, 5)
	require.NotNil(t, task)
	result := task()
	require.Error(t, result.Err)

	entry, ok := p.Lookup(url)
	require.True(t, ok)
	assert.Equal(t, StateFailed, entry.State)
	assert.Error(t, entry.Err)
}

func TestDecodeFailureMarksFailed(t *testing.T) {
	p := newTestPipeline()
	p.fetchFn = func(context.Context, string) ([]byte, error) {
		return []byte("not an image"), nil
	}

	_, task := p.Request("https://cdn.example/garbage", 10, 5)
	require.NotNil(t, task)
	result := task()
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "decode image")
}

func TestExplicitReRequestReplacesFailedEntry(t *testing.T) {
	p := newTestPipeline()
	attempts := 0
	data := pngBytes(t, 8, 8)
	p.fetchFn = func(context.Context, string) ([]byte, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient")
		}
		return data, nil
	}

	const url = "https://cdn.example/retry.png"
	_, task := p.Request(url, 10, 5)
	require.Error(t, task().Err)

	_, retry := p.Request(url, 10, 5)
	require.NotNil(t, retry, "failed entry must allow a fresh task")
	require.NoError(t, retry().Err)

	entry, _ := p.Lookup(url)
	assert.Equal(t, StateReady, entry.State)
	assert.Equal(t, 2, attempts)
}

func TestRefetchReplacesReadyEntry(t *testing.T) {
	p := newTestPipeline()
	data := pngBytes(t, 8, 8)
	p.fetchFn = func(context.Context, string) ([]byte, error) { return data, nil }

	const url = "https://cdn.example/refetch.png"
	_, task := p.Request(url, 10, 5)
	require.NoError(t, task().Err)

	fresh, again := p.Refetch(url, 10, 5)
	require.NotNil(t, again)
	assert.Equal(t, StatePending, fresh.State)
	require.NoError(t, again().Err)
}

func TestDownsampleFitsCellBoxPreservingAspect(t *testing.T) {
	p := newTestPipeline() // 8x16 px cells

	src := image.NewRGBA(image.Rect(0, 0, 64, 64))
	scaled, cols, rows := p.downsample(src, 4, 4)

	// box is 32x64 px, limiting scale is width: 64x64 -> 32x32
	assert.Equal(t, 32, scaled.Bounds().Dx())
	assert.Equal(t, 32, scaled.Bounds().Dy())
	assert.Equal(t, 4, cols)
	assert.Equal(t, 2, rows)
}

func TestDownsampleKeepsSmallImagesNative(t *testing.T) {
	p := newTestPipeline()

	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	scaled, cols, rows := p.downsample(src, 10, 10)

	assert.Equal(t, 10, scaled.Bounds().Dx())
	assert.Equal(t, 10, scaled.Bounds().Dy())
	assert.Equal(t, 2, cols)
	assert.Equal(t, 1, rows)
}

func TestEncodeKittyChunking(t *testing.T) {
	t.Setenv("TMUX", "")

	img := image.NewRGBA(image.Rect(0, 0, 64, 64)) // 16 KiB of pixels, several chunks
	payload := EncodeKitty(img, 8, 4)

	assert.True(t, strings.HasPrefix(payload, "\x1b_Ga=T,f=32,s=64,v=64,c=8,r=4,m=1;"))
	assert.True(t, strings.HasSuffix(payload, "\x1b\\"))
	assert.Contains(t, payload, "\x1b_Gm=0;")

	small := image.NewRGBA(image.Rect(0, 0, 2, 2))
	single := EncodeKitty(small, 1, 1)
	assert.True(t, strings.HasPrefix(single, "\x1b_Ga=T,f=32,s=2,v=2,c=1,r=1,m=0;"))
	assert.NotContains(t, single, "_Gm=")
}

func TestEncodeKittyTmuxPassthrough(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1234,0")

	small := image.NewRGBA(image.Rect(0, 0, 2, 2))
	payload := EncodeKitty(small, 1, 1)
	assert.True(t, strings.HasPrefix(payload, "\x1bPtmux;"))
	assert.Contains(t, payload, "\x1b\x1b_G")
}
