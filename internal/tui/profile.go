package tui

import (
	"github.com/glabrego/skyline-cli/internal/bsky"
)

// profileView is an actor header plus that actor's feed, paginated like the
// timeline. The follow flag and follower count mutate optimistically.
type profileView struct {
	gen    int
	actor  string // handle or did as requested
	loaded bool
	info   bsky.Profile
	postList
}

func newProfileView(gen int, actor string) *profileView {
	v := &profileView{gen: gen, actor: actor}
	v.loading = true
	return v
}

func (v *profileView) kind() viewKind  { return kindProfile }
func (v *profileView) generation() int { return v.gen }
func (v *profileView) sealed()         {}

func (v *profileView) setProfile(info bsky.Profile, feed bsky.TimelinePage) {
	v.info = info
	v.loaded = true
	v.merge(feed, true)
}
