package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/skyline-cli/internal/bsky"
	"github.com/glabrego/skyline-cli/internal/gateway"
)

type recordCall struct {
	subject string
	prevURI string
	on      bool
}

type fakeService struct {
	state  gateway.SessionState
	handle string
	did    string

	loginErr   error
	loginCalls int

	timelinePage bsky.TimelinePage
	timelineErr  error

	threadPosts []bsky.Post
	threadErr   error

	freshPosts []bsky.Post

	profile    bsky.Profile
	authorPage bsky.TimelinePage

	notifPage bsky.NotificationPage

	createdRef bsky.StrongRef
	createErr  error
	created    []string

	deleteErr error
	deleted   []string

	likeReturns string
	likeErr     error
	likeCalls   []recordCall

	repostReturns string
	repostErr     error
	repostCalls   []recordCall

	followReturns string
	followErr     error
	followCalls   []recordCall
}

func (f *fakeService) Login(_ context.Context, identifier, password string) error {
	f.loginCalls++
	if f.loginErr != nil {
		return f.loginErr
	}
	f.state = gateway.StateAuthenticated
	f.handle = identifier
	return nil
}

func (f *fakeService) Logout()                     { f.state = gateway.StateLoggedOut }
func (f *fakeService) State() gateway.SessionState { return f.state }
func (f *fakeService) Handle() string              { return f.handle }
func (f *fakeService) DID() string                 { return f.did }

func (f *fakeService) Timeline(context.Context, string, int) (bsky.TimelinePage, error) {
	return f.timelinePage, f.timelineErr
}

func (f *fakeService) AuthorFeed(context.Context, string, string, int) (bsky.TimelinePage, error) {
	return f.authorPage, nil
}

func (f *fakeService) Thread(context.Context, string) ([]bsky.Post, error) {
	return f.threadPosts, f.threadErr
}

func (f *fakeService) Posts(context.Context, []string) ([]bsky.Post, error) {
	return f.freshPosts, nil
}

func (f *fakeService) Profile(context.Context, string) (bsky.Profile, error) {
	return f.profile, nil
}

func (f *fakeService) Notifications(context.Context, string, int) (bsky.NotificationPage, error) {
	return f.notifPage, nil
}

func (f *fakeService) CreatePost(_ context.Context, text string, _ *bsky.ReplyRef, _ *bsky.StrongRef) (bsky.StrongRef, error) {
	if f.createErr != nil {
		return bsky.StrongRef{}, f.createErr
	}
	f.created = append(f.created, text)
	return f.createdRef, nil
}

func (f *fakeService) DeletePost(_ context.Context, uri string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, uri)
	return nil
}

func (f *fakeService) SetLike(_ context.Context, subject bsky.StrongRef, likeURI string, liked bool) (string, error) {
	f.likeCalls = append(f.likeCalls, recordCall{subject: subject.URI, prevURI: likeURI, on: liked})
	if f.likeErr != nil {
		return "", f.likeErr
	}
	if !liked {
		return "", nil
	}
	return f.likeReturns, nil
}

func (f *fakeService) SetRepost(_ context.Context, subject bsky.StrongRef, repostURI string, reposted bool) (string, error) {
	f.repostCalls = append(f.repostCalls, recordCall{subject: subject.URI, prevURI: repostURI, on: reposted})
	if f.repostErr != nil {
		return "", f.repostErr
	}
	if !reposted {
		return "", nil
	}
	return f.repostReturns, nil
}

func (f *fakeService) SetFollow(_ context.Context, subjectDID, followURI string, following bool) (string, error) {
	f.followCalls = append(f.followCalls, recordCall{subject: subjectDID, prevURI: followURI, on: following})
	if f.followErr != nil {
		return "", f.followErr
	}
	if !following {
		return "", nil
	}
	return f.followReturns, nil
}

func makePosts(n, from int) []bsky.Post {
	posts := make([]bsky.Post, 0, n)
	for i := 0; i < n; i++ {
		id := from + i
		posts = append(posts, bsky.Post{
			URI:       fmt.Sprintf("at://did:plc:alice/app.bsky.feed.post/%d", id),
			CID:       fmt.Sprintf("cid%d", id),
			Author:    bsky.Author{DID: "did:plc:alice", Handle: "alice.bsky.social"},
			Text:      fmt.Sprintf("post %d", id),
			CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(id) * time.Minute),
		})
	}
	return posts
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func authedModel(svc *fakeService, cached []bsky.Post) Model {
	svc.state = gateway.StateAuthenticated
	if svc.handle == "" {
		svc.handle = "me.bsky.social"
	}
	if svc.did == "" {
		svc.did = "did:plc:me"
	}
	return NewModel(svc, nil, nil, nil, cached)
}

func TestLoginFlow(t *testing.T) {
	svc := &fakeService{state: gateway.StateLoggedOut}
	m := NewModel(svc, nil, nil, nil, nil)

	login, ok := m.stack.top().(*loginView)
	if !ok {
		t.Fatalf("expected login root, got %s", m.stack.top().kind())
	}
	login.identifier.SetValue("alice.bsky.social")
	login.password.SetValue("app-pass")
	login.focusField(fieldPassword)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected login command")
	}
	if !login.busy {
		t.Fatal("expected login view busy while submitting")
	}

	msg := cmd()
	result, ok := msg.(loginResultMsg)
	if !ok {
		t.Fatalf("expected loginResultMsg, got %T", msg)
	}
	if result.err != nil {
		t.Fatalf("unexpected login error: %v", result.err)
	}

	updated, cmd = m.Update(result)
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected timeline fetch after login")
	}
	tl, ok := m.stack.top().(*timelineView)
	if !ok {
		t.Fatalf("expected timeline root after login, got %s", m.stack.top().kind())
	}
	if !tl.loading {
		t.Fatal("expected timeline loading its first page")
	}
	if svc.state != gateway.StateAuthenticated {
		t.Fatalf("expected authenticated session, got %s", svc.state)
	}
}

func TestLoginFailureKeepsLoginView(t *testing.T) {
	svc := &fakeService{state: gateway.StateLoggedOut, loginErr: errors.New("boom")}
	m := NewModel(svc, nil, nil, nil, nil)

	login := m.stack.top().(*loginView)
	login.identifier.SetValue("alice.bsky.social")
	login.password.SetValue("wrong")
	login.focusField(fieldPassword)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	if m.stack.top().kind() != kindLogin {
		t.Fatalf("expected login view to remain, got %s", m.stack.top().kind())
	}
	if login.busy {
		t.Fatal("expected login view back in editing state")
	}
	if login.errNote == "" {
		t.Fatal("expected error note on failed login")
	}
	if login.password.Value() != "" {
		t.Fatal("expected password cleared after failure")
	}
}

func TestPaginationNearBottom(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(20, 1))
	tl := m.stack.top().(*timelineView)
	tl.pageCursor = "cursor-1"

	fetches := 0
	for i := 0; i < 18; i++ {
		updated, cmd := m.Update(keyRune('j'))
		m = updated.(Model)
		if cmd != nil {
			fetches++
		}
	}
	if fetches != 1 {
		t.Fatalf("expected exactly one pagination fetch, got %d", fetches)
	}
	if !tl.loading {
		t.Fatal("expected loading flag while fetch in flight")
	}

	page := bsky.TimelinePage{Posts: makePosts(20, 21), Cursor: "cursor-2"}
	updated, _ := m.Update(timelineFetchedMsg{gen: tl.gen, page: page})
	m = updated.(Model)

	if len(tl.posts) != 40 {
		t.Fatalf("expected 40 posts after append, got %d", len(tl.posts))
	}
	if tl.pageCursor != "cursor-2" {
		t.Fatalf("expected cursor updated, got %q", tl.pageCursor)
	}
	if tl.loading {
		t.Fatal("expected loading cleared after completion")
	}
	_ = m
}

func TestDuplicateCompletionDoesNotDuplicatePosts(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(10, 1))
	tl := m.stack.top().(*timelineView)

	page := bsky.TimelinePage{Posts: makePosts(10, 6), Cursor: "next"}
	updated, _ := m.Update(timelineFetchedMsg{gen: tl.gen, page: page})
	m = updated.(Model)
	updated, _ = m.Update(timelineFetchedMsg{gen: tl.gen, page: page})
	m = updated.(Model)

	if len(tl.posts) != 15 {
		t.Fatalf("expected 15 unique posts, got %d", len(tl.posts))
	}
	seen := map[string]bool{}
	for _, post := range tl.posts {
		if seen[post.URI] {
			t.Fatalf("duplicate post %s", post.URI)
		}
		seen[post.URI] = true
	}
}

func TestOptimisticLikeRevertOnFailure(t *testing.T) {
	svc := &fakeService{likeErr: &bsky.Error{Kind: bsky.KindNetwork, Op: "createRecord"}}
	posts := makePosts(3, 1)
	posts[0].LikeCount = 3
	m := authedModel(svc, posts)
	tl := m.stack.top().(*timelineView)

	updated, cmd := m.Update(keyRune('l'))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected like command")
	}
	if tl.posts[0].Viewer.LikeURI != pendingRecordURI {
		t.Fatal("expected optimistic liked flag")
	}
	if tl.posts[0].LikeCount != 4 {
		t.Fatalf("expected optimistic count 4, got %d", tl.posts[0].LikeCount)
	}

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if tl.posts[0].Viewer.LikeURI != "" {
		t.Fatal("expected liked flag reverted")
	}
	if tl.posts[0].LikeCount != 3 {
		t.Fatalf("expected count reverted to 3, got %d", tl.posts[0].LikeCount)
	}
	if m.status == "" || !m.statusWarn {
		t.Fatal("expected error annotation after failed like")
	}
}

func TestLikeUnlikeBeforeCompletionUndoesRecord(t *testing.T) {
	svc := &fakeService{likeReturns: "at://did:plc:me/app.bsky.feed.like/abc"}
	m := authedModel(svc, makePosts(1, 1))
	tl := m.stack.top().(*timelineView)

	updated, likeCmd := m.Update(keyRune('l'))
	m = updated.(Model)
	if likeCmd == nil {
		t.Fatal("expected like command")
	}

	// toggle back off before the create completes: local state only
	updated, cmd := m.Update(keyRune('l'))
	m = updated.(Model)
	if cmd != nil {
		t.Fatal("expected no network call for the in-flight undo")
	}
	if tl.posts[0].Viewer.LikeURI != "" || tl.posts[0].LikeCount != 0 {
		t.Fatal("expected local like state undone")
	}

	// the create completes; the model must delete the fresh record
	updated, undo := m.Update(likeCmd())
	m = updated.(Model)
	if undo == nil {
		t.Fatal("expected compensating unlike command")
	}
	msg := undo().(interactionResultMsg)
	if msg.on {
		t.Fatal("expected compensating call to be an unlike")
	}
	last := svc.likeCalls[len(svc.likeCalls)-1]
	if last.on || last.prevURI != "at://did:plc:me/app.bsky.feed.like/abc" {
		t.Fatalf("expected delete of fresh like record, got %+v", last)
	}
}

func TestStaleThreadCompletionDropped(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(2, 1))
	tl := m.stack.top().(*timelineView)

	updated, _ := m.Update(keyRune('v'))
	m = updated.(Model)
	threadGen := m.stack.top().generation()

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.stack.top().kind() != kindTimeline {
		t.Fatalf("expected timeline after pop, got %s", m.stack.top().kind())
	}

	before := len(tl.posts)
	updated, _ = m.Update(threadFetchedMsg{gen: threadGen, posts: makePosts(5, 50)})
	m = updated.(Model)

	if m.stack.top().kind() != kindTimeline {
		t.Fatal("stale completion changed the active view")
	}
	if len(tl.posts) != before {
		t.Fatal("stale completion mutated timeline posts")
	}
}

func TestStaleTimelineErrorIgnored(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(2, 1))

	updated, _ := m.Update(timelineErrorMsg{gen: 999, err: errors.New("late")})
	m = updated.(Model)
	if m.status != "" {
		t.Fatalf("expected no annotation for unknown generation, got %q", m.status)
	}
}

func TestComposerFlow(t *testing.T) {
	svc := &fakeService{createdRef: bsky.StrongRef{URI: "at://did:plc:me/app.bsky.feed.post/new", CID: "cidnew"}}
	m := authedModel(svc, makePosts(2, 1))

	updated, _ := m.runCommandLine("post")
	m = updated.(Model)
	composer, ok := m.stack.top().(*composerView)
	if !ok {
		t.Fatalf("expected composer on top, got %s", m.stack.top().kind())
	}
	composer.input.SetValue("hello world")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected create post command")
	}
	if composer.state != composerSubmitting {
		t.Fatal("expected composer submitting")
	}

	updated, refresh := m.Update(cmd())
	m = updated.(Model)
	if m.stack.top().kind() != kindTimeline {
		t.Fatalf("expected composer popped, top is %s", m.stack.top().kind())
	}
	if refresh == nil {
		t.Fatal("expected timeline refresh after posting")
	}
	if len(svc.created) != 1 || svc.created[0] != "hello world" {
		t.Fatalf("expected one created post, got %v", svc.created)
	}
}

func TestComposerFailureKeepsDraft(t *testing.T) {
	svc := &fakeService{createErr: &bsky.Error{Kind: bsky.KindNetwork, Op: "createRecord"}}
	m := authedModel(svc, makePosts(1, 1))

	updated, _ := m.runCommandLine("post")
	m = updated.(Model)
	composer := m.stack.top().(*composerView)
	composer.input.SetValue("draft text")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = updated.(Model)
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	if m.stack.top().kind() != kindComposer {
		t.Fatal("expected composer retained after failure")
	}
	if composer.state != composerEditing {
		t.Fatal("expected composer back in editing")
	}
	if composer.errNote == "" {
		t.Fatal("expected error annotation in composer")
	}
	if composer.text() != "draft text" {
		t.Fatalf("expected draft retained, got %q", composer.text())
	}
}

func TestComposerCancelMakesNoCall(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(1, 1))

	updated, _ := m.runCommandLine("post")
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	if m.stack.top().kind() != kindTimeline {
		t.Fatal("expected composer popped on cancel")
	}
	if len(svc.created) != 0 {
		t.Fatal("cancel must not create a post")
	}
}

func TestEscAtRootIsNoOp(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(1, 1))

	for i := 0; i < 5; i++ {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		m = updated.(Model)
	}
	if m.stack.depth() != 1 {
		t.Fatalf("expected stack depth 1, got %d", m.stack.depth())
	}
	if m.stack.top().kind() != kindTimeline {
		t.Fatalf("expected timeline root, got %s", m.stack.top().kind())
	}
}

func TestUnknownCommandIsNonFatal(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(1, 1))

	updated, _ := m.runCommandLine("frobnicate")
	m = updated.(Model)
	if m.status == "" || !m.statusWarn {
		t.Fatal("expected non-fatal annotation for unknown command")
	}
	if m.stack.top().kind() != kindTimeline {
		t.Fatal("unknown command must not change the view")
	}
}

func TestSessionExpiryForcesLogin(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(1, 1))
	tl := m.stack.top().(*timelineView)

	svc.state = gateway.StateExpired
	expired := &bsky.Error{Kind: bsky.KindUnauthenticated, Op: "getTimeline"}
	updated, _ := m.Update(timelineErrorMsg{gen: tl.gen, err: expired})
	m = updated.(Model)

	login, ok := m.stack.top().(*loginView)
	if !ok {
		t.Fatalf("expected login view after expiry, got %s", m.stack.top().kind())
	}
	if m.stack.depth() != 1 {
		t.Fatalf("expected reset stack, depth %d", m.stack.depth())
	}
	if login.errNote == "" {
		t.Fatal("expected expiry note on login view")
	}
}

func TestDeleteOwnPostOnly(t *testing.T) {
	svc := &fakeService{}
	posts := makePosts(1, 1) // authored by did:plc:alice
	m := authedModel(svc, posts)

	updated, cmd := m.runCommandLine("delete")
	m = updated.(Model)
	if cmd != nil {
		t.Fatal("expected no delete command for another author's post")
	}
	if m.status == "" {
		t.Fatal("expected annotation refusing the delete")
	}

	tl := m.stack.top().(*timelineView)
	tl.posts[0].Author.DID = svc.did
	updated, cmd = m.runCommandLine("delete")
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected delete command for own post")
	}

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if len(tl.posts) != 0 {
		t.Fatal("expected deleted post removed from view")
	}
	if len(svc.deleted) != 1 {
		t.Fatalf("expected one delete call, got %d", len(svc.deleted))
	}
}

func TestRefreshReplacesItems(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(10, 1))
	tl := m.stack.top().(*timelineView)
	tl.pageCursor = "stale-cursor"

	updated, cmd := m.runCommandLine("refresh")
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected refresh fetch")
	}
	if tl.pageCursor != "" {
		t.Fatal("expected pagination cursor discarded on refresh")
	}

	fresh := bsky.TimelinePage{Posts: makePosts(5, 100), Cursor: "fresh"}
	updated, _ = m.Update(timelineFetchedMsg{gen: tl.gen, replace: true, page: fresh})
	m = updated.(Model)
	if len(tl.posts) != 5 {
		t.Fatalf("expected full reload with 5 posts, got %d", len(tl.posts))
	}
}

func TestNotificationsToggle(t *testing.T) {
	svc := &fakeService{}
	m := authedModel(svc, makePosts(1, 1))

	updated, cmd := m.Update(keyRune('n'))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected notifications fetch")
	}
	if m.stack.top().kind() != kindNotifications {
		t.Fatalf("expected notifications on top, got %s", m.stack.top().kind())
	}

	updated, _ = m.Update(keyRune('n'))
	m = updated.(Model)
	if m.stack.top().kind() != kindTimeline {
		t.Fatalf("expected notifications popped, got %s", m.stack.top().kind())
	}
}
