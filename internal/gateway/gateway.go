// Package gateway wraps the raw XRPC client with session ownership. It is
// the only component that holds token material: it performs login, a single
// automatic refresh-and-retry when a call comes back unauthenticated, and
// rate-limit suppression per operation kind. All methods are safe to call
// from concurrent tea.Cmd goroutines.
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/glabrego/skyline-cli/internal/bsky"
)

// SessionState is the connection lifecycle of the authenticated identity.
type SessionState int

const (
	StateLoggedOut SessionState = iota
	StateLoggingIn
	StateAuthenticated
	StateExpired
)

func (s SessionState) String() string {
	switch s {
	case StateLoggingIn:
		return "logging_in"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return "logged_out"
	}
}

// Client is the remote capability set the gateway drives. Satisfied by
// *bsky.Client; faked in tests.
type Client interface {
	CreateSession(ctx context.Context, identifier, password string) (bsky.Session, error)
	RefreshSession(ctx context.Context, refreshJWT string) (bsky.Session, error)
	GetTimeline(ctx context.Context, accessJWT, cursor string, limit int) (bsky.TimelinePage, error)
	GetAuthorFeed(ctx context.Context, accessJWT, actor, cursor string, limit int) (bsky.TimelinePage, error)
	GetPostThread(ctx context.Context, accessJWT, uri string) ([]bsky.Post, error)
	GetPosts(ctx context.Context, accessJWT string, uris []string) ([]bsky.Post, error)
	GetProfile(ctx context.Context, accessJWT, actor string) (bsky.Profile, error)
	ListNotifications(ctx context.Context, accessJWT, cursor string, limit int) (bsky.NotificationPage, error)
	CreatePost(ctx context.Context, accessJWT, repo, text string, reply *bsky.ReplyRef, quote *bsky.StrongRef) (bsky.StrongRef, error)
	CreateLike(ctx context.Context, accessJWT, repo string, subject bsky.StrongRef) (bsky.StrongRef, error)
	CreateRepost(ctx context.Context, accessJWT, repo string, subject bsky.StrongRef) (bsky.StrongRef, error)
	CreateFollow(ctx context.Context, accessJWT, repo, subjectDID string) (bsky.StrongRef, error)
	DeleteRecord(ctx context.Context, accessJWT, uri string) error
}

type Gateway struct {
	client Client
	logger *log.Logger
	nowFn  func() time.Time

	mu          sync.Mutex
	session     bsky.Session
	state       SessionState
	suppressed  map[string]time.Time
	saveSession func(bsky.Session) error
}

func New(client Client, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{
		client:     client,
		logger:     logger,
		nowFn:      time.Now,
		state:      StateLoggedOut,
		suppressed: make(map[string]time.Time),
	}
}

// SetSessionSaver registers the hook invoked after every successful
// login/refresh. Save failures are logged, never surfaced.
func (g *Gateway) SetSessionSaver(saveFn func(bsky.Session) error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saveSession = saveFn
}

func (g *Gateway) State() SessionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gateway) Handle() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.Handle
}

func (g *Gateway) DID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.DID
}

// Login authenticates with an identifier and app password.
func (g *Gateway) Login(ctx context.Context, identifier, password string) error {
	g.setState(StateLoggingIn)
	session, err := g.client.CreateSession(ctx, identifier, password)
	if err != nil {
		g.setState(StateLoggedOut)
		g.logger.Warn("login failed", "identifier", identifier, "err", err)
		return err
	}
	g.adoptSession(session)
	g.logger.Info("session created", "handle", session.Handle, "did", session.DID)
	return nil
}

// Resume seeds the gateway from a persisted session and refreshes it. A
// failed refresh leaves the gateway logged out so startup never blocks on a
// stale credential.
func (g *Gateway) Resume(ctx context.Context, saved bsky.Session) error {
	if saved.RefreshJWT == "" {
		return errors.New("saved session has no refresh credential")
	}
	g.mu.Lock()
	g.session = saved
	g.mu.Unlock()
	if err := g.refresh(ctx); err != nil {
		g.setState(StateLoggedOut)
		return err
	}
	return nil
}

func (g *Gateway) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = bsky.Session{}
	g.state = StateLoggedOut
	g.logger.Info("session cleared")
}

func (g *Gateway) Timeline(ctx context.Context, cursor string, limit int) (bsky.TimelinePage, error) {
	var page bsky.TimelinePage
	err := g.withAuth(ctx, "getTimeline", func(access string) error {
		var err error
		page, err = g.client.GetTimeline(ctx, access, cursor, limit)
		return err
	})
	return page, err
}

func (g *Gateway) AuthorFeed(ctx context.Context, actor, cursor string, limit int) (bsky.TimelinePage, error) {
	var page bsky.TimelinePage
	err := g.withAuth(ctx, "getAuthorFeed", func(access string) error {
		var err error
		page, err = g.client.GetAuthorFeed(ctx, access, actor, cursor, limit)
		return err
	})
	return page, err
}

func (g *Gateway) Thread(ctx context.Context, uri string) ([]bsky.Post, error) {
	var posts []bsky.Post
	err := g.withAuth(ctx, "getPostThread", func(access string) error {
		var err error
		posts, err = g.client.GetPostThread(ctx, access, uri)
		return err
	})
	return posts, err
}

func (g *Gateway) Posts(ctx context.Context, uris []string) ([]bsky.Post, error) {
	var posts []bsky.Post
	err := g.withAuth(ctx, "getPosts", func(access string) error {
		var err error
		posts, err = g.client.GetPosts(ctx, access, uris)
		return err
	})
	return posts, err
}

func (g *Gateway) Profile(ctx context.Context, actor string) (bsky.Profile, error) {
	var profile bsky.Profile
	err := g.withAuth(ctx, "getProfile", func(access string) error {
		var err error
		profile, err = g.client.GetProfile(ctx, access, actor)
		return err
	})
	return profile, err
}

func (g *Gateway) Notifications(ctx context.Context, cursor string, limit int) (bsky.NotificationPage, error) {
	var page bsky.NotificationPage
	err := g.withAuth(ctx, "listNotifications", func(access string) error {
		var err error
		page, err = g.client.ListNotifications(ctx, access, cursor, limit)
		return err
	})
	return page, err
}

func (g *Gateway) CreatePost(ctx context.Context, text string, reply *bsky.ReplyRef, quote *bsky.StrongRef) (bsky.StrongRef, error) {
	var ref bsky.StrongRef
	err := g.withAuth(ctx, "createPost", func(access string) error {
		var err error
		ref, err = g.client.CreatePost(ctx, access, g.DID(), text, reply, quote)
		return err
	})
	return ref, err
}

func (g *Gateway) DeletePost(ctx context.Context, uri string) error {
	return g.withAuth(ctx, "deletePost", func(access string) error {
		return g.client.DeleteRecord(ctx, access, uri)
	})
}

// SetLike creates or deletes the viewer's like record for subject. likeURI
// is the existing record uri, empty when the post is not yet liked. Returns
// the new record uri, or empty after an unlike.
func (g *Gateway) SetLike(ctx context.Context, subject bsky.StrongRef, likeURI string, liked bool) (string, error) {
	return g.setRecord(ctx, "setLike", likeURI, liked, func(access string) (bsky.StrongRef, error) {
		return g.client.CreateLike(ctx, access, g.DID(), subject)
	})
}

func (g *Gateway) SetRepost(ctx context.Context, subject bsky.StrongRef, repostURI string, reposted bool) (string, error) {
	return g.setRecord(ctx, "setRepost", repostURI, reposted, func(access string) (bsky.StrongRef, error) {
		return g.client.CreateRepost(ctx, access, g.DID(), subject)
	})
}

func (g *Gateway) SetFollow(ctx context.Context, subjectDID, followURI string, following bool) (string, error) {
	return g.setRecord(ctx, "setFollow", followURI, following, func(access string) (bsky.StrongRef, error) {
		return g.client.CreateFollow(ctx, access, g.DID(), subjectDID)
	})
}

func (g *Gateway) setRecord(ctx context.Context, op, existingURI string, want bool, create func(access string) (bsky.StrongRef, error)) (string, error) {
	newURI := ""
	err := g.withAuth(ctx, op, func(access string) error {
		if !want {
			if existingURI == "" {
				return nil
			}
			return g.client.DeleteRecord(ctx, access, existingURI)
		}
		if existingURI != "" {
			newURI = existingURI
			return nil
		}
		ref, err := create(access)
		if err != nil {
			return err
		}
		newURI = ref.URI
		return nil
	})
	return newURI, err
}

// withAuth runs fn with the current access token, retrying exactly once
// behind a token refresh when the call comes back unauthenticated. A failed
// refresh flips the session to Expired.
func (g *Gateway) withAuth(ctx context.Context, op string, fn func(access string) error) error {
	if wait, ok := g.suppressedFor(op); ok {
		return &bsky.Error{Kind: bsky.KindRateLimited, Op: op, RetryAfter: wait, Message: "holding off after rate limit"}
	}

	access, err := g.accessToken(op)
	if err != nil {
		return err
	}

	reqID := uuid.NewString()
	err = fn(access)
	if err == nil {
		return nil
	}

	var typed *bsky.Error
	if !errors.As(err, &typed) {
		return err
	}
	switch typed.Kind {
	case bsky.KindRateLimited:
		g.suppress(op, typed.RetryAfter)
		g.logger.Warn("rate limited", "op", op, "req", reqID, "retry_after", typed.RetryAfter)
		return err
	case bsky.KindUnauthenticated:
		g.logger.Info("token rejected, refreshing session", "op", op, "req", reqID)
		if rerr := g.refresh(ctx); rerr != nil {
			g.setState(StateExpired)
			g.logger.Error("session refresh failed", "op", op, "req", reqID, "err", rerr)
			return rerr
		}
		access, aerr := g.accessToken(op)
		if aerr != nil {
			return aerr
		}
		return fn(access)
	default:
		g.logger.Warn("operation failed", "op", op, "req", reqID, "kind", typed.Kind, "err", err)
		return err
	}
}

func (g *Gateway) refresh(ctx context.Context) error {
	g.mu.Lock()
	refreshJWT := g.session.RefreshJWT
	g.mu.Unlock()
	if refreshJWT == "" {
		return &bsky.Error{Kind: bsky.KindUnauthenticated, Op: "refreshSession", Message: "no refresh credential"}
	}
	session, err := g.client.RefreshSession(ctx, refreshJWT)
	if err != nil {
		return err
	}
	g.adoptSession(session)
	g.logger.Info("session refreshed", "handle", session.Handle)
	return nil
}

func (g *Gateway) adoptSession(session bsky.Session) {
	g.mu.Lock()
	g.session = session
	g.state = StateAuthenticated
	saveFn := g.saveSession
	g.mu.Unlock()
	if saveFn != nil {
		if err := saveFn(session); err != nil {
			g.logger.Warn("could not persist session", "err", err)
		}
	}
}

func (g *Gateway) accessToken(op string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateAuthenticated || g.session.AccessJWT == "" {
		return "", &bsky.Error{Kind: bsky.KindUnauthenticated, Op: op, Message: "not logged in"}
	}
	return g.session.AccessJWT, nil
}

func (g *Gateway) setState(state SessionState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = state
}

func (g *Gateway) suppress(op string, wait time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.suppressed[op] = g.nowFn().Add(wait)
}

func (g *Gateway) suppressedFor(op string) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	until, ok := g.suppressed[op]
	if !ok {
		return 0, false
	}
	remaining := until.Sub(g.nowFn())
	if remaining <= 0 {
		delete(g.suppressed, op)
		return 0, false
	}
	return remaining, true
}
