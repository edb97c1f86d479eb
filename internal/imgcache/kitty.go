package imgcache

import (
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"strings"
)

const kittyChunkSize = 4096

// EncodeKitty serializes an RGBA bitmap as a kitty graphics direct
// transmission sized to a cols x rows cell placement. The sequence is
// self-contained: it transmits and places in one go, so emitting it cannot
// interleave with other output or corrupt neighboring cells.
func EncodeKitty(img *image.RGBA, cols, rows int) string {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	encoded := base64.StdEncoding.EncodeToString(img.Pix)

	var b strings.Builder
	first := true
	for len(encoded) > 0 {
		chunk := encoded
		if len(chunk) > kittyChunkSize {
			chunk = chunk[:kittyChunkSize]
		}
		encoded = encoded[len(chunk):]

		more := 1
		if len(encoded) == 0 {
			more = 0
		}
		if first {
			b.WriteString(fmt.Sprintf("\x1b_Ga=T,f=32,s=%d,v=%d,c=%d,r=%d,m=%d;%s\x1b\\", width, height, cols, rows, more, chunk))
			first = false
		} else {
			b.WriteString(fmt.Sprintf("\x1b_Gm=%d;%s\x1b\\", more, chunk))
		}
	}
	return wrapForTmux(b.String())
}

// ClearGraphicsSequence deletes all visible kitty images, used when leaving
// a view whose placements would otherwise linger over the next frame.
func ClearGraphicsSequence() string {
	return wrapForTmux("\x1b_Ga=d,d=A\x1b\\")
}

// wrapForTmux escapes a kitty sequence for tmux passthrough when running
// inside tmux.
func wrapForTmux(seq string) string {
	if os.Getenv("TMUX") == "" {
		return seq
	}
	escaped := strings.ReplaceAll(seq, "\x1b", "\x1b\x1b")
	return "\x1bPtmux;" + escaped + "\x1b\\"
}

// SupportsKittyGraphics reports whether the surrounding terminal is known to
// implement the kitty graphics protocol.
func SupportsKittyGraphics() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	termProgram := strings.ToLower(strings.TrimSpace(os.Getenv("TERM_PROGRAM")))
	if strings.Contains(termProgram, "ghostty") || strings.Contains(termProgram, "kitty") {
		return true
	}
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return strings.Contains(term, "xterm-kitty") || strings.Contains(term, "ghostty")
}
