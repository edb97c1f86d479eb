package tui

import (
	"github.com/glabrego/skyline-cli/internal/bsky"
)

type notificationsView struct {
	gen        int
	items      []bsky.Notification
	cursor     int
	pageCursor string
	loading    bool
	exhausted  bool
}

func newNotificationsView(gen int) *notificationsView {
	return &notificationsView{gen: gen, loading: true}
}

func (v *notificationsView) kind() viewKind  { return kindNotifications }
func (v *notificationsView) generation() int { return v.gen }
func (v *notificationsView) sealed()         {}

func (v *notificationsView) selected() *bsky.Notification {
	if len(v.items) == 0 {
		return nil
	}
	v.cursor = clampCursor(v.cursor, len(v.items))
	return &v.items[v.cursor]
}

func (v *notificationsView) moveCursor(delta int) {
	v.cursor = clampCursor(v.cursor+delta, len(v.items))
}

func (v *notificationsView) wantsNextPage() bool {
	if v.loading || v.exhausted || v.pageCursor == "" || len(v.items) == 0 {
		return false
	}
	return v.cursor >= len(v.items)-nearBottomThreshold
}

func (v *notificationsView) merge(page bsky.NotificationPage, replace bool) {
	v.loading = false
	if replace {
		v.items = page.Items
		v.cursor = clampCursor(v.cursor, len(v.items))
		v.pageCursor = page.Cursor
		v.exhausted = page.Cursor == "" && len(page.Items) == 0
		return
	}

	seen := make(map[string]struct{}, len(v.items))
	for _, item := range v.items {
		seen[item.URI] = struct{}{}
	}
	for _, item := range page.Items {
		if _, ok := seen[item.URI]; ok {
			continue
		}
		seen[item.URI] = struct{}{}
		v.items = append(v.items, item)
	}
	v.pageCursor = page.Cursor
	if page.Cursor == "" {
		v.exhausted = true
	}
}
