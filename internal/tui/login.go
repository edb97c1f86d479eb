package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
)

type loginField int

const (
	fieldIdentifier loginField = iota
	fieldPassword
)

// loginView collects handle and app password. It is the stack root whenever
// no session is authenticated, so it cannot be popped away from.
type loginView struct {
	gen        int
	identifier textinput.Model
	password   textinput.Model
	focus      loginField
	busy       bool
	errNote    string
}

func newLoginView(gen int, prefill string) *loginView {
	id := textinput.New()
	id.Placeholder = "handle.bsky.social"
	id.CharLimit = 253
	id.SetValue(prefill)
	id.Focus()

	pw := textinput.New()
	pw.Placeholder = "app password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 64

	v := &loginView{gen: gen, identifier: id, password: pw}
	if prefill != "" {
		v.focusField(fieldPassword)
	}
	return v
}

func (v *loginView) kind() viewKind  { return kindLogin }
func (v *loginView) generation() int { return v.gen }
func (v *loginView) sealed()         {}

func (v *loginView) focusField(f loginField) {
	v.focus = f
	if f == fieldIdentifier {
		v.identifier.Focus()
		v.password.Blur()
	} else {
		v.identifier.Blur()
		v.password.Focus()
	}
}

func (v *loginView) cycleFocus() {
	if v.focus == fieldIdentifier {
		v.focusField(fieldPassword)
	} else {
		v.focusField(fieldIdentifier)
	}
}

func (v *loginView) canSubmit() bool {
	return !v.busy &&
		strings.TrimSpace(v.identifier.Value()) != "" &&
		v.password.Value() != ""
}

func (v *loginView) beginSubmit() {
	v.busy = true
	v.errNote = ""
}

func (v *loginView) failSubmit(note string) {
	v.busy = false
	v.errNote = note
	v.password.SetValue("")
	v.focusField(fieldPassword)
}
