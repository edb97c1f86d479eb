package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/skyline-cli/internal/bsky"
	"github.com/glabrego/skyline-cli/internal/gateway"
	"github.com/glabrego/skyline-cli/internal/imgcache"
)

const (
	fetchTimeout     = 10 * time.Second
	writeTimeout     = 12 * time.Second
	pageSize         = 50
	reconcileDelay   = 300 * time.Millisecond
	statusClearAfter = 4 * time.Second
)

// Service is the remote capability set the views drive. Satisfied by
// *gateway.Gateway; faked in tests.
type Service interface {
	Login(ctx context.Context, identifier, password string) error
	Logout()
	State() gateway.SessionState
	Handle() string
	DID() string
	Timeline(ctx context.Context, cursor string, limit int) (bsky.TimelinePage, error)
	AuthorFeed(ctx context.Context, actor, cursor string, limit int) (bsky.TimelinePage, error)
	Thread(ctx context.Context, uri string) ([]bsky.Post, error)
	Posts(ctx context.Context, uris []string) ([]bsky.Post, error)
	Profile(ctx context.Context, actor string) (bsky.Profile, error)
	Notifications(ctx context.Context, cursor string, limit int) (bsky.NotificationPage, error)
	CreatePost(ctx context.Context, text string, reply *bsky.ReplyRef, quote *bsky.StrongRef) (bsky.StrongRef, error)
	DeletePost(ctx context.Context, uri string) error
	SetLike(ctx context.Context, subject bsky.StrongRef, likeURI string, liked bool) (string, error)
	SetRepost(ctx context.Context, subject bsky.StrongRef, repostURI string, reposted bool) (string, error)
	SetFollow(ctx context.Context, subjectDID, followURI string, following bool) (string, error)
}

// PostSaver is the warm-start cache sink. Satisfied by *storage.Repository.
type PostSaver interface {
	SavePosts(ctx context.Context, posts []bsky.Post) error
}

func loginCmd(service Service, identifier, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		if err := service.Login(ctx, identifier, password); err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{handle: service.Handle()}
	}
}

func fetchTimelineCmd(service Service, gen int, cursor string, replace bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		page, err := service.Timeline(ctx, cursor, pageSize)
		if err != nil {
			return timelineErrorMsg{gen: gen, err: err}
		}
		return timelineFetchedMsg{gen: gen, replace: replace, page: page}
	}
}

func fetchThreadCmd(service Service, gen int, uri string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		posts, err := service.Thread(ctx, uri)
		if err != nil {
			return threadErrorMsg{gen: gen, err: err}
		}
		return threadFetchedMsg{gen: gen, posts: posts}
	}
}

func fetchProfileCmd(service Service, gen int, actor string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		profile, err := service.Profile(ctx, actor)
		if err != nil {
			return profileErrorMsg{gen: gen, err: err}
		}
		feed, err := service.AuthorFeed(ctx, actor, "", pageSize)
		if err != nil {
			return profileErrorMsg{gen: gen, err: err}
		}
		return profileFetchedMsg{gen: gen, profile: profile, feed: feed}
	}
}

func fetchAuthorFeedCmd(service Service, gen int, actor, cursor string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		page, err := service.AuthorFeed(ctx, actor, cursor, pageSize)
		if err != nil {
			return profileErrorMsg{gen: gen, err: err}
		}
		return profileFeedMsg{gen: gen, page: page}
	}
}

func fetchNotificationsCmd(service Service, gen int, cursor string, replace bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		page, err := service.Notifications(ctx, cursor, pageSize)
		if err != nil {
			return notificationsErrorMsg{gen: gen, err: err}
		}
		return notificationsFetchedMsg{gen: gen, replace: replace, page: page}
	}
}

func createPostCmd(service Service, gen int, text string, reply *bsky.ReplyRef, quote *bsky.StrongRef) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		ref, err := service.CreatePost(ctx, text, reply, quote)
		if err != nil {
			return postCreateErrorMsg{gen: gen, err: err}
		}
		return postCreatedMsg{gen: gen, ref: ref}
	}
}

func deletePostCmd(service Service, gen int, uri string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		err := service.DeletePost(ctx, uri)
		return postDeletedMsg{gen: gen, uri: uri, err: err}
	}
}

// setLikeCmd and setRepostCmd run the gateway call behind an optimistic
// toggle the model has already applied; the message carries enough state to
// undo it.
func setLikeCmd(service Service, gen int, post bsky.Post, on bool, prevRecordURI string, prevCount int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		recordURI, err := service.SetLike(ctx, bsky.StrongRef{URI: post.URI, CID: post.CID}, prevRecordURI, on)
		return interactionResultMsg{
			gen: gen, uri: post.URI, kind: "like", on: on, recordURI: recordURI, err: err,
			prevRecordURI: prevRecordURI, prevCount: prevCount,
		}
	}
}

func setRepostCmd(service Service, gen int, post bsky.Post, on bool, prevRecordURI string, prevCount int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		recordURI, err := service.SetRepost(ctx, bsky.StrongRef{URI: post.URI, CID: post.CID}, prevRecordURI, on)
		return interactionResultMsg{
			gen: gen, uri: post.URI, kind: "repost", on: on, recordURI: recordURI, err: err,
			prevRecordURI: prevRecordURI, prevCount: prevCount,
		}
	}
}

func setFollowCmd(service Service, gen int, did string, on bool, prevRecordURI string, prevCount int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		recordURI, err := service.SetFollow(ctx, did, prevRecordURI, on)
		return followResultMsg{
			gen: gen, did: did, on: on, recordURI: recordURI, err: err,
			prevRecordURI: prevRecordURI, prevCount: prevCount,
		}
	}
}

// reconcilePostsCmd refetches posts shortly after an interaction so
// optimistic counts converge to server truth.
func reconcilePostsCmd(service Service, gen int, uris []string) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(reconcileDelay)
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		posts, err := service.Posts(ctx, uris)
		if err != nil {
			// reconciliation is best-effort; the optimistic state stands
			return nil
		}
		return postsReconciledMsg{gen: gen, posts: posts}
	}
}

func imageTaskCmd(task func() imgcache.Result) tea.Cmd {
	if task == nil {
		return nil
	}
	return func() tea.Msg {
		return imageResultMsg{result: task()}
	}
}

func savePostsCmd(saver PostSaver, posts []bsky.Post) tea.Cmd {
	if saver == nil || len(posts) == 0 {
		return nil
	}
	snapshot := append([]bsky.Post(nil), posts...)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return savePostsDoneMsg{err: saver.SavePosts(ctx, snapshot)}
	}
}

func clearStatusCmd(id int) tea.Cmd {
	return tea.Tick(statusClearAfter, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}
