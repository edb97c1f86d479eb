package tui

import (
	"github.com/glabrego/skyline-cli/internal/bsky"
)

type timelineView struct {
	gen int
	postList
}

// newTimelineView seeds the view with cached posts, if any; the first
// network page replaces them.
func newTimelineView(gen int, seed []bsky.Post) *timelineView {
	return &timelineView{
		gen:      gen,
		postList: postList{posts: seed},
	}
}

func (v *timelineView) kind() viewKind  { return kindTimeline }
func (v *timelineView) generation() int { return v.gen }
func (v *timelineView) sealed()         {}
