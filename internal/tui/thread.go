package tui

import (
	"github.com/glabrego/skyline-cli/internal/bsky"
)

// threadView holds a flattened reply tree. Parent/child structure is
// recovered from ParentURI by id lookup, never from pointers, so partial
// threads and removed posts cannot dangle.
type threadView struct {
	gen       int
	anchorURI string
	posts     []bsky.Post
	depths    []int
	cursor    int
	loading   bool
}

func newThreadView(gen int, anchorURI string) *threadView {
	return &threadView{gen: gen, anchorURI: anchorURI, loading: true}
}

func (v *threadView) kind() viewKind  { return kindThread }
func (v *threadView) generation() int { return v.gen }
func (v *threadView) sealed()         {}

func (v *threadView) selected() *bsky.Post {
	if len(v.posts) == 0 {
		return nil
	}
	v.cursor = clampCursor(v.cursor, len(v.posts))
	return &v.posts[v.cursor]
}

// setPosts installs the flattened thread and computes reply depths. A post
// whose parent lies above the fetch window renders at depth zero.
func (v *threadView) setPosts(posts []bsky.Post) {
	v.loading = false
	v.posts = posts
	v.depths = make([]int, len(posts))
	depthByURI := make(map[string]int, len(posts))
	for i, post := range posts {
		depth := 0
		if parentDepth, ok := depthByURI[post.ParentURI]; ok {
			depth = parentDepth + 1
		}
		v.depths[i] = depth
		depthByURI[post.URI] = depth
	}

	// land the selection on the anchor post, not the topmost ancestor
	for i, post := range posts {
		if post.URI == v.anchorURI {
			v.cursor = i
			break
		}
	}
}

func (v *threadView) moveCursor(delta int) {
	v.cursor = clampCursor(v.cursor+delta, len(v.posts))
}

func (v *threadView) reconcile(posts []bsky.Post) {
	for _, fresh := range posts {
		for i := range v.posts {
			if v.posts[i].URI == fresh.URI {
				parent := v.posts[i].ParentURI
				v.posts[i] = fresh
				v.posts[i].ParentURI = parent
				break
			}
		}
	}
}

func (v *threadView) byURI(uri string) *bsky.Post {
	for i := range v.posts {
		if v.posts[i].URI == uri {
			return &v.posts[i]
		}
	}
	return nil
}

func (v *threadView) remove(uri string) {
	for i := range v.posts {
		if v.posts[i].URI == uri {
			v.posts = append(v.posts[:i], v.posts[i+1:]...)
			v.depths = append(v.depths[:i], v.depths[i+1:]...)
			v.cursor = clampCursor(v.cursor, len(v.posts))
			return
		}
	}
}
