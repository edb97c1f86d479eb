// Package imgcache turns remote image URLs into inline terminal graphics.
// Fetch, decode and encode happen on background tasks; the cache coalesces
// concurrent requests for one URL onto a single task and keeps the encoded
// payload for the rest of the session.
package imgcache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxImageBytes = 5 * 1024 * 1024
	fetchTimeout  = 8 * time.Second

	// assumed pixel geometry of one cell when the terminal does not report it
	defaultCellWidth  = 8
	defaultCellHeight = 16
)

type EntryState int

const (
	StatePending EntryState = iota
	StateReady
	StateFailed
)

// Entry is the cached result for one URL. Payload is a self-contained
// escape sequence; Cols/Rows is the cell footprint it occupies.
type Entry struct {
	URL     string
	State   EntryState
	Payload string
	Cols    int
	Rows    int
	Err     error
}

// Result is what a finished pipeline task reports back to the event loop.
type Result struct {
	URL string
	Err error
}

type Pipeline struct {
	logger  *log.Logger
	httpc   *http.Client
	fetchFn func(ctx context.Context, url string) ([]byte, error)

	cellW, cellH int

	mu      sync.Mutex
	entries map[string]*Entry
}

func New(logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	p := &Pipeline{
		logger:  logger,
		httpc:   &http.Client{Timeout: fetchTimeout},
		cellW:   defaultCellWidth,
		cellH:   defaultCellHeight,
		entries: make(map[string]*Entry),
	}
	p.fetchFn = p.fetch
	return p
}

// SetCellSize overrides the assumed cell pixel geometry, typically from the
// terminal's reported window size.
func (p *Pipeline) SetCellSize(width, height int) {
	if width > 0 && height > 0 {
		p.cellW, p.cellH = width, height
	}
}

// Request is idempotent per URL: if an entry exists in Pending or Ready
// state the caller attaches to it and task is nil. Otherwise a Pending entry
// is created and task must be run (on a background goroutine) to complete
// it. Failed entries stay failed until Refetch.
func (p *Pipeline) Request(url string, maxCols, maxRows int) (Entry, func() Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.entries[url]; ok && entry.State != StateFailed {
		return *entry, nil
	}
	return p.startLocked(url, maxCols, maxRows)
}

// Refetch discards any existing entry and starts a fresh task.
func (p *Pipeline) Refetch(url string, maxCols, maxRows int) (Entry, func() Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, url)
	return p.startLocked(url, maxCols, maxRows)
}

func (p *Pipeline) Lookup(url string) (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[url]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

func (p *Pipeline) startLocked(url string, maxCols, maxRows int) (Entry, func() Result) {
	entry := &Entry{URL: url, State: StatePending}
	p.entries[url] = entry

	task := func() Result {
		payload, cols, rows, err := p.produce(url, maxCols, maxRows)
		p.mu.Lock()
		if current, ok := p.entries[url]; ok && current.State == StatePending {
			if err != nil {
				current.State = StateFailed
				current.Err = err
			} else {
				current.State = StateReady
				current.Payload = payload
				current.Cols = cols
				current.Rows = rows
			}
		}
		p.mu.Unlock()
		if err != nil {
			p.logger.Warn("image pipeline failed", "url", url, "err", err)
		}
		return Result{URL: url, Err: err}
	}
	return *entry, task
}

// produce runs the whole fetch+decode+downsample+encode chain. It never
// touches the cache; the task wrapper owns that.
func (p *Pipeline) produce(url string, maxCols, maxRows int) (payload string, cols, rows int, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	data, err := p.fetchFn(ctx, url)
	if err != nil {
		return "", 0, 0, fmt.Errorf("fetch image: %w", err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("decode image: %w", err)
	}

	scaled, cols, rows := p.downsample(src, maxCols, maxRows)
	return EncodeKitty(scaled, cols, rows), cols, rows, nil
}

func (p *Pipeline) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// downsample fits src into a maxCols x maxRows cell box preserving aspect
// ratio, snapping the pixel size to whole cells. Images already inside the
// box are re-encoded at native size.
func (p *Pipeline) downsample(src image.Image, maxCols, maxRows int) (*image.RGBA, int, int) {
	if maxCols < 1 {
		maxCols = 1
	}
	if maxRows < 1 {
		maxRows = 1
	}
	boxW := maxCols * p.cellW
	boxH := maxRows * p.cellH

	srcW := src.Bounds().Dx()
	srcH := src.Bounds().Dy()
	dstW, dstH := srcW, srcH
	if srcW > boxW || srcH > boxH {
		scaleW := float64(boxW) / float64(srcW)
		scaleH := float64(boxH) / float64(srcH)
		scale := scaleW
		if scaleH < scale {
			scale = scaleH
		}
		dstW = int(float64(srcW) * scale)
		dstH = int(float64(srcH) * scale)
	}

	cols := (dstW + p.cellW - 1) / p.cellW
	rows := (dstH + p.cellH - 1) / p.cellH
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst, cols, rows
}
