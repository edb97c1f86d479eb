package tui

import (
	"github.com/glabrego/skyline-cli/internal/bsky"
)

// nearBottomThreshold: moving the selection into the last N items triggers
// the next page fetch.
const nearBottomThreshold = 5

// postList is the scroll/selection/pagination state shared by the timeline
// and author-feed views.
type postList struct {
	posts      []bsky.Post
	cursor     int
	pageCursor string
	loading    bool
	exhausted  bool
}

func (l *postList) selected() *bsky.Post {
	if len(l.posts) == 0 {
		return nil
	}
	l.cursor = clampCursor(l.cursor, len(l.posts))
	return &l.posts[l.cursor]
}

func (l *postList) moveCursor(delta int) {
	l.cursor = clampCursor(l.cursor+delta, len(l.posts))
}

// wantsNextPage reports whether a pagination fetch should be issued for the
// current selection position. The loading flag serializes fetches; an empty
// cursor after at least one page means the feed is exhausted.
func (l *postList) wantsNextPage() bool {
	if l.loading || l.exhausted || l.pageCursor == "" || len(l.posts) == 0 {
		return false
	}
	return l.cursor >= len(l.posts)-nearBottomThreshold
}

// merge applies a fetched page. replace resets the list (initial load or
// :refresh); append keeps order and drops items already present, so a
// duplicated completion for the same cursor cannot double posts.
func (l *postList) merge(page bsky.TimelinePage, replace bool) {
	l.loading = false
	if replace {
		l.posts = page.Posts
		l.cursor = clampCursor(l.cursor, len(l.posts))
		l.pageCursor = page.Cursor
		l.exhausted = page.Cursor == "" && len(page.Posts) == 0
		return
	}

	seen := make(map[string]struct{}, len(l.posts))
	for _, post := range l.posts {
		seen[post.URI] = struct{}{}
	}
	appended := 0
	for _, post := range page.Posts {
		if _, ok := seen[post.URI]; ok {
			continue
		}
		seen[post.URI] = struct{}{}
		l.posts = append(l.posts, post)
		appended++
	}
	l.pageCursor = page.Cursor
	if page.Cursor == "" || (appended == 0 && len(page.Posts) == 0) {
		l.exhausted = true
	}
}

// reconcile overwrites counts and viewer state with fresh server copies,
// matching by uri.
func (l *postList) reconcile(posts []bsky.Post) {
	for _, fresh := range posts {
		for i := range l.posts {
			if l.posts[i].URI == fresh.URI {
				repostedBy := l.posts[i].RepostedBy
				l.posts[i] = fresh
				l.posts[i].RepostedBy = repostedBy
				break
			}
		}
	}
}

func (l *postList) remove(uri string) {
	for i := range l.posts {
		if l.posts[i].URI == uri {
			l.posts = append(l.posts[:i], l.posts[i+1:]...)
			l.cursor = clampCursor(l.cursor, len(l.posts))
			return
		}
	}
}

func (l *postList) byURI(uri string) *bsky.Post {
	for i := range l.posts {
		if l.posts[i].URI == uri {
			return &l.posts[i]
		}
	}
	return nil
}
