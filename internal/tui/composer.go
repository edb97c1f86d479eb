package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/glabrego/skyline-cli/internal/bsky"
)

const maxPostRunes = 300

type composerState int

const (
	composerEditing composerState = iota
	composerSubmitting
)

// composerView is a modal editor for a new post, reply, or quote. It stays on
// the stack while submitting so a failure can drop back into editing with the
// draft intact.
type composerView struct {
	gen     int
	state   composerState
	input   textarea.Model
	replyTo *bsky.ReplyRef
	quote   *bsky.StrongRef
	// context posts shown above the editor
	target  *bsky.Post
	errNote string
}

func newComposerView(gen int, target *bsky.Post, replyTo *bsky.ReplyRef, quote *bsky.StrongRef) *composerView {
	ta := textarea.New()
	ta.Placeholder = "What's up?"
	ta.CharLimit = maxPostRunes
	ta.SetHeight(6)
	ta.ShowLineNumbers = false
	ta.Focus()
	return &composerView{
		gen:     gen,
		input:   ta,
		replyTo: replyTo,
		quote:   quote,
		target:  target,
	}
}

func (v *composerView) kind() viewKind  { return kindComposer }
func (v *composerView) generation() int { return v.gen }
func (v *composerView) sealed()         {}

func (v *composerView) text() string {
	return strings.TrimSpace(v.input.Value())
}

// canSubmit requires non-empty text within the record limit. CharLimit
// already blocks over-long input, but pasted text can land past it.
func (v *composerView) canSubmit() bool {
	text := v.text()
	if text == "" {
		return false
	}
	return len([]rune(text)) <= maxPostRunes
}

func (v *composerView) beginSubmit() {
	v.state = composerSubmitting
	v.errNote = ""
	v.input.Blur()
}

func (v *composerView) failSubmit(note string) {
	v.state = composerEditing
	v.errNote = note
	v.input.Focus()
}

func (v *composerView) remaining() int {
	return maxPostRunes - len([]rune(v.input.Value()))
}
