package tui

import (
	"fmt"
	"strings"

	"github.com/glabrego/skyline-cli/internal/bsky"
	"github.com/glabrego/skyline-cli/internal/imgcache"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "starting…"
	}
	top := m.stack.top()

	header := m.renderHeader(top)
	bottom := m.renderBottom(top)
	bodyHeight := m.height - 2
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := m.renderBody(top, bodyHeight)

	frame := header + "\n" + body + "\n" + bottom
	if m.kittyOK {
		frame += m.imageOverlay(top)
	}
	return frame
}

func (m Model) renderHeader(top view) string {
	th := m.theme
	left := th.Title.Render("skyline") + " " + th.ModePill.Render(top.kind().String())
	right := ""
	if handle := m.service.Handle(); handle != "" {
		right = th.Handle.Render("@" + handle)
	}
	gap := m.width - visibleLen(left) - visibleLen(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderBottom(top view) string {
	th := m.theme
	if m.promptOpen {
		return th.Prompt.Render(m.prompt.View())
	}
	if m.status != "" {
		if m.statusWarn {
			return th.StatusWarn.Render(truncate(m.status, m.width))
		}
		return th.StatusOK.Render(truncate(m.status, m.width))
	}
	if viewLoading(top) {
		return th.StatusLoad.Render("loading…")
	}
	return th.Counts.Render(truncate(toolbarFor(top.kind()), m.width))
}

func (m Model) renderBody(top view, height int) string {
	switch v := top.(type) {
	case *loginView:
		return m.renderLogin(v, height)
	case *composerView:
		return m.renderComposer(v, height)
	case *timelineView:
		lines, active := m.buildPostLines(v.posts, nil, v.cursor)
		return windowLines(lines, active, height)
	case *profileView:
		var lines []string
		if v.loaded {
			lines = renderProfileHeader(v.info, v.info.FollowURI != "", m.width, m.theme)
		}
		postLines, active := m.buildPostLines(v.posts, nil, v.cursor)
		active += len(lines)
		lines = append(lines, postLines...)
		return windowLines(lines, active, height)
	case *threadView:
		lines, active := m.buildPostLines(v.posts, v.depths, v.cursor)
		return windowLines(lines, active, height)
	case *notificationsView:
		lines := make([]string, 0, len(v.items))
		for i, item := range v.items {
			lines = append(lines, renderNotificationLine(item, m.nowFn(), m.width, i == v.cursor, m.theme))
		}
		return windowLines(lines, v.cursor, height)
	}
	return ""
}

// buildPostLines flattens posts into styled lines with a blank separator
// between cards and reports the first line of the selected card.
func (m Model) buildPostLines(posts []bsky.Post, depths []int, cursor int) ([]string, int) {
	var lines []string
	active := 0
	now := m.nowFn()
	for i, post := range posts {
		depth := 0
		if depths != nil && i < len(depths) {
			depth = depths[i]
		}
		if i == cursor {
			active = len(lines)
		}
		lines = append(lines, renderPostCard(post, now, m.width, depth, i == cursor, m.theme)...)
		lines = append(lines, "")
	}
	return lines, active
}

func (m Model) renderLogin(v *loginView, height int) string {
	th := m.theme
	lines := []string{
		"",
		th.Title.Render("sign in to bluesky"),
		"",
		th.Counts.Render("handle"),
		v.identifier.View(),
		"",
		th.Counts.Render("app password"),
		v.password.View(),
		"",
	}
	if v.busy {
		lines = append(lines, th.StatusLoad.Render("signing in…"))
	}
	if v.errNote != "" {
		lines = append(lines, th.Annotation.Render(truncate(v.errNote, m.width)))
	}
	return windowLines(lines, 0, height)
}

func (m Model) renderComposer(v *composerView, height int) string {
	th := m.theme
	label := "new post"
	switch {
	case v.replyTo != nil:
		label = "reply"
	case v.quote != nil:
		label = "quote"
	}
	lines := []string{th.Title.Render(label), ""}

	if v.target != nil {
		lines = append(lines, renderPostCard(*v.target, m.nowFn(), m.width, 0, false, th)...)
		lines = append(lines, "")
	}

	lines = append(lines, strings.Split(v.input.View(), "\n")...)
	lines = append(lines, "", th.Counts.Render(fmt.Sprintf("%d left", v.remaining())))
	if v.state == composerSubmitting {
		lines = append(lines, th.StatusLoad.Render("posting…"))
	}
	if v.errNote != "" {
		lines = append(lines, th.Annotation.Render(truncate(v.errNote, m.width)))
	}
	return windowLines(lines, 0, height)
}

// imageOverlay emits the kitty payload for the selected post's image once the
// pipeline has it Ready. The clear sequence always precedes it so a previous
// placement never lingers over the new frame.
func (m Model) imageOverlay(top view) string {
	post := selectedPost(top)
	if post == nil || len(post.Images) == 0 || m.pipeline == nil {
		return imgcache.ClearGraphicsSequence()
	}
	url := post.Images[0].Thumb
	if url == "" {
		url = post.Images[0].Fullsize
	}
	entry, ok := m.pipeline.Lookup(url)
	if !ok || entry.State != imgcache.StateReady {
		return imgcache.ClearGraphicsSequence()
	}
	return imgcache.ClearGraphicsSequence() + entry.Payload
}

func viewLoading(v view) bool {
	switch v := v.(type) {
	case *timelineView:
		return v.loading
	case *profileView:
		return v.loading
	case *threadView:
		return v.loading
	case *notificationsView:
		return v.loading
	}
	return false
}

// windowLines slices the rendered lines to the viewport, keeping the active
// line near the center, and pads short bodies to a stable height.
func windowLines(lines []string, active, height int) string {
	start, end := centeredWindow(len(lines), active, height)
	visible := lines[start:end]
	out := make([]string, height)
	copy(out, visible)
	return strings.Join(out, "\n")
}
