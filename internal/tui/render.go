package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glabrego/skyline-cli/internal/bsky"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visibleLen(s string) int {
	return utf8.RuneCountInString(reANSICodes.ReplaceAllString(s, ""))
}

func relativeTimeLabel(now, then time.Time) string {
	if then.IsZero() {
		return "unknown"
	}
	if then.After(now) {
		return "now"
	}
	d := now.Sub(then)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	default:
		return then.UTC().Format(time.DateOnly)
	}
}

// renderPostCard renders one post as a block of lines: optional annotation
// (repost attribution), author header, wrapped body, quote and image markers,
// and an interaction count row. The whole block highlights when active.
func renderPostCard(p bsky.Post, now time.Time, width, depth int, active bool, th Theme) []string {
	indent := strings.Repeat("  ", depth)
	inner := width - len(indent)
	if inner < 20 {
		inner = 20
	}

	var lines []string
	if p.RepostedBy != "" {
		lines = append(lines, indent+th.Counts.Render("↻ reposted by "+p.RepostedBy))
	}

	timeLabel := relativeTimeLabel(now, p.CreatedAt)
	header := th.Display.Render(p.Author.Name()) + " " +
		th.Handle.Render("@"+p.Author.Handle) + " " +
		th.Timestamp.Render("· "+timeLabel)
	lines = append(lines, indent+header)

	for _, line := range wrapText(p.Text, inner) {
		lines = append(lines, indent+th.Body.Render(line))
	}

	if p.QuotedURI != "" {
		label := "❝ quoting"
		if p.QuotedBy != "" {
			label += " " + p.QuotedBy
		}
		lines = append(lines, indent+th.Counts.Render(label))
	}
	for _, img := range p.Images {
		alt := strings.TrimSpace(img.Alt)
		if alt == "" {
			alt = "image"
		}
		lines = append(lines, indent+th.Counts.Render(truncate("▣ "+alt, inner)))
	}

	likeLabel := fmt.Sprintf("♡ %d", p.LikeCount)
	if p.Viewer.LikeURI != "" {
		likeLabel = th.Liked.Render(fmt.Sprintf("♥ %d", p.LikeCount))
	}
	repostLabel := fmt.Sprintf("↻ %d", p.RepostCount)
	if p.Viewer.RepostURI != "" {
		repostLabel = th.Reposted.Render(fmt.Sprintf("↻ %d", p.RepostCount))
	}
	counts := th.Counts.Render(fmt.Sprintf("↩ %d", p.ReplyCount)) + "  " + repostLabel + "  " + likeLabel
	lines = append(lines, indent+counts)

	if active {
		for i := range lines {
			lines[i] = th.RenderActiveLine(true, lines[i])
		}
	}
	return lines
}

func renderNotificationLine(n bsky.Notification, now time.Time, width int, active bool, th Theme) string {
	var verb string
	switch n.Reason {
	case bsky.ReasonLike:
		verb = "liked your post"
	case bsky.ReasonRepost:
		verb = "reposted your post"
	case bsky.ReasonFollow:
		verb = "followed you"
	case bsky.ReasonReply:
		verb = "replied to you"
	case bsky.ReasonMention:
		verb = "mentioned you"
	case bsky.ReasonQuote:
		verb = "quoted your post"
	default:
		verb = n.Reason
	}

	marker := "  "
	if !n.IsRead {
		marker = th.Unread.Render("● ")
	}
	left := marker + th.Display.Render(n.Author.Name()) + " " + th.Body.Render(verb)
	right := th.Timestamp.Render(relativeTimeLabel(now, n.IndexedAt))
	gap := width - visibleLen(left) - visibleLen(right)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(active, left+strings.Repeat(" ", gap)+right)
}

func renderProfileHeader(info bsky.Profile, followed bool, width int, th Theme) []string {
	lines := []string{
		th.Display.Render(info.Name()) + " " + th.Handle.Render("@"+info.Handle),
	}
	for _, line := range wrapText(info.Description, width) {
		lines = append(lines, th.Body.Render(line))
	}
	stats := fmt.Sprintf("%d followers · %d following · %d posts", info.FollowersCount, info.FollowsCount, info.PostsCount)
	if followed {
		stats += " · " + th.Reposted.Render("following")
	}
	lines = append(lines, th.Counts.Render(stats), "")
	return lines
}

func toolbarFor(kind viewKind) string {
	switch kind {
	case kindLogin:
		return "tab switch field | enter submit | ctrl+c quit"
	case kindComposer:
		return "ctrl+d post | esc cancel"
	case kindNotifications:
		return "j/k move | v open post | a profile | esc back | : command | q quit"
	case kindProfile:
		return "j/k move | v thread | f follow | l like | r repost | esc back | : command | q quit"
	case kindThread:
		return "j/k move | l like | r repost | a profile | esc back | : command | q quit"
	default:
		return "j/k move | v thread | V quoted | n notifs | a/A profile | l like | r repost | : command | q quit"
	}
}
