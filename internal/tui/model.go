package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/glabrego/skyline-cli/internal/bsky"
	"github.com/glabrego/skyline-cli/internal/gateway"
	"github.com/glabrego/skyline-cli/internal/imgcache"
)

// pendingRecordURI marks a viewer-relationship record whose create call is
// still in flight. A second toggle while pending undoes locally and lets the
// completion handler delete the fresh record, so the net server effect
// matches what the user sees.
const pendingRecordURI = "pending"

const imagePreviewRows = 12

type Model struct {
	service  Service
	pipeline *imgcache.Pipeline
	saver    PostSaver
	logger   *log.Logger
	theme    Theme

	width  int
	height int

	stack   *viewStack
	nextGen int

	prompt     textinput.Model
	promptOpen bool

	status     string
	statusWarn bool
	statusID   int

	kittyOK bool
	nowFn   func() time.Time
}

func NewModel(service Service, pipeline *imgcache.Pipeline, saver PostSaver, logger *log.Logger, cached []bsky.Post) Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	prompt := textinput.New()
	prompt.Prompt = ":"
	prompt.CharLimit = 256

	m := Model{
		service:  service,
		pipeline: pipeline,
		saver:    saver,
		logger:   logger,
		theme:    DefaultTheme(),
		prompt:   prompt,
		kittyOK:  imgcache.SupportsKittyGraphics(),
		nowFn:    time.Now,
	}

	if service.State() == gateway.StateAuthenticated {
		m.stack = newViewStack(newTimelineView(m.allocGen(), cached))
	} else {
		m.stack = newViewStack(newLoginView(m.allocGen(), service.Handle()))
	}
	return m
}

func (m *Model) allocGen() int {
	m.nextGen++
	return m.nextGen
}

func (m Model) Init() tea.Cmd {
	switch v := m.stack.top().(type) {
	case *timelineView:
		v.loading = true
		return tea.Batch(fetchTimelineCmd(m.service, v.gen, "", true), textinput.Blink)
	default:
		return textinput.Blink
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prompt.Width = msg.Width - 4
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)

	case timelineFetchedMsg:
		return m.onTimelineFetched(msg)
	case timelineErrorMsg:
		return m.onFetchError(msg.gen, msg.err)
	case threadFetchedMsg:
		if v, ok := m.stack.byGeneration(msg.gen).(*threadView); ok {
			v.setPosts(msg.posts)
			return m, m.requestImages()
		}
		return m, nil
	case threadErrorMsg:
		return m.onFetchError(msg.gen, msg.err)
	case profileFetchedMsg:
		if v, ok := m.stack.byGeneration(msg.gen).(*profileView); ok {
			v.setProfile(msg.profile, msg.feed)
			return m, m.requestImages()
		}
		return m, nil
	case profileFeedMsg:
		if v, ok := m.stack.byGeneration(msg.gen).(*profileView); ok {
			v.merge(msg.page, false)
		}
		return m, nil
	case profileErrorMsg:
		return m.onFetchError(msg.gen, msg.err)
	case notificationsFetchedMsg:
		if v, ok := m.stack.byGeneration(msg.gen).(*notificationsView); ok {
			v.merge(msg.page, msg.replace)
		}
		return m, nil
	case notificationsErrorMsg:
		return m.onFetchError(msg.gen, msg.err)

	case loginResultMsg:
		return m.onLoginResult(msg)
	case postCreatedMsg:
		return m.onPostCreated(msg)
	case postCreateErrorMsg:
		if v, ok := m.stack.byGeneration(msg.gen).(*composerView); ok {
			v.failSubmit(friendlyError(msg.err))
			return m, textarea.Blink
		}
		return m, nil
	case postDeletedMsg:
		return m.onPostDeleted(msg)
	case interactionResultMsg:
		return m.onInteractionResult(msg)
	case followResultMsg:
		return m.onFollowResult(msg)
	case postsReconciledMsg:
		if v := m.stack.byGeneration(msg.gen); v != nil {
			reconcileView(v, msg.posts)
		}
		return m, nil

	case imageResultMsg:
		if msg.result.Err != nil {
			m.logger.Debug("image fetch failed", "url", msg.result.URL, "error", msg.result.Err)
		}
		return m, nil
	case savePostsDoneMsg:
		if msg.err != nil {
			m.logger.Warn("post cache write failed", "error", msg.err)
		}
		return m, nil
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.statusWarn = false
		}
		return m, nil
	}
	return m, nil
}

// ---- key routing ----

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.promptOpen {
		return m.handlePromptKey(msg)
	}
	switch v := m.stack.top().(type) {
	case *loginView:
		return m.handleLoginKey(v, msg)
	case *composerView:
		return m.handleComposerKey(v, msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.promptOpen = false
		m.prompt.Reset()
		return m, nil
	case "enter":
		line := m.prompt.Value()
		m.promptOpen = false
		m.prompt.Reset()
		return m.runCommandLine(line)
	case "tab":
		m.prompt.SetValue(completeCommand(m.prompt.Value()))
		m.prompt.CursorEnd()
		return m, nil
	default:
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
}

func (m Model) handleLoginKey(v *loginView, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.busy {
		return m, nil
	}
	switch msg.String() {
	case "tab", "shift+tab":
		v.cycleFocus()
		return m, textinput.Blink
	case "enter":
		if v.focus == fieldIdentifier {
			v.focusField(fieldPassword)
			return m, textinput.Blink
		}
		if !v.canSubmit() {
			return m, nil
		}
		v.beginSubmit()
		return m, loginCmd(m.service, strings.TrimSpace(v.identifier.Value()), v.password.Value())
	default:
		var cmd tea.Cmd
		if v.focus == fieldIdentifier {
			v.identifier, cmd = v.identifier.Update(msg)
		} else {
			v.password, cmd = v.password.Update(msg)
		}
		return m, cmd
	}
}

func (m Model) handleComposerKey(v *composerView, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.state == composerSubmitting {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.stack.pop()
		return m, nil
	case "ctrl+d":
		if !v.canSubmit() {
			return m, m.setStatus("nothing to post", true)
		}
		v.beginSubmit()
		return m, createPostCmd(m.service, v.gen, v.text(), v.replyTo, v.quote)
	default:
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return m, cmd
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	top := m.stack.top()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.stack.pop()
		return m, m.requestImages()
	case "j", "down":
		return m, m.moveSelection(1)
	case "k", "up":
		return m, m.moveSelection(-1)
	case "g":
		return m, m.jumpSelection(0)
	case "G":
		return m, m.jumpSelection(-1)
	case ":":
		m.promptOpen = true
		m.prompt.Reset()
		m.prompt.Focus()
		return m, textinput.Blink
	case "v", "enter":
		if v, ok := top.(*notificationsView); ok {
			item := v.selected()
			if item == nil {
				return m, nil
			}
			uri := item.SubjectURI
			if uri == "" {
				uri = item.URI
			}
			return m.pushThread(uri)
		}
		post := selectedPost(top)
		if post == nil {
			return m, nil
		}
		return m.pushThread(post.URI)
	case "V":
		post := selectedPost(top)
		if post == nil || post.QuotedURI == "" {
			return m, m.setStatus("no quoted post here", true)
		}
		return m.pushThread(post.QuotedURI)
	case "n":
		if top.kind() == kindNotifications {
			m.stack.pop()
			return m, nil
		}
		return m.pushNotifications()
	case "a":
		if v, ok := top.(*notificationsView); ok {
			if item := v.selected(); item != nil {
				return m.pushProfile(item.Author.Handle)
			}
			return m, nil
		}
		if post := selectedPost(top); post != nil {
			return m.pushProfile(post.Author.Handle)
		}
		return m, nil
	case "A":
		if m.service.Handle() == "" {
			return m, nil
		}
		return m.pushProfile(m.service.Handle())
	case "l":
		return m.toggleLike()
	case "r":
		return m.toggleRepost()
	case "f":
		return m.toggleFollow()
	}
	return m, nil
}

// ---- navigation ----

func (m Model) pushThread(uri string) (tea.Model, tea.Cmd) {
	gen := m.allocGen()
	m.stack.push(newThreadView(gen, uri))
	return m, fetchThreadCmd(m.service, gen, uri)
}

func (m Model) pushProfile(actor string) (tea.Model, tea.Cmd) {
	gen := m.allocGen()
	m.stack.push(newProfileView(gen, actor))
	return m, fetchProfileCmd(m.service, gen, actor)
}

func (m Model) pushNotifications() (tea.Model, tea.Cmd) {
	gen := m.allocGen()
	m.stack.push(newNotificationsView(gen))
	return m, fetchNotificationsCmd(m.service, gen, "", true)
}

func (m Model) pushComposer(target *bsky.Post, reply *bsky.ReplyRef, quote *bsky.StrongRef) (tea.Model, tea.Cmd) {
	gen := m.allocGen()
	if target != nil {
		// own copy, the originating list may refresh underneath
		snapshot := *target
		target = &snapshot
	}
	m.stack.push(newComposerView(gen, target, reply, quote))
	return m, textarea.Blink
}

func (m *Model) resetToLogin(note string) tea.Cmd {
	v := newLoginView(m.allocGen(), m.service.Handle())
	v.errNote = note
	m.stack.reset(v)
	return textinput.Blink
}

func (m *Model) moveSelection(delta int) tea.Cmd {
	var page tea.Cmd
	switch v := m.stack.top().(type) {
	case *timelineView:
		v.moveCursor(delta)
		if v.wantsNextPage() {
			v.loading = true
			page = fetchTimelineCmd(m.service, v.gen, v.pageCursor, false)
		}
	case *profileView:
		v.moveCursor(delta)
		if v.wantsNextPage() {
			v.loading = true
			page = fetchAuthorFeedCmd(m.service, v.gen, v.actor, v.pageCursor)
		}
	case *threadView:
		v.moveCursor(delta)
	case *notificationsView:
		v.moveCursor(delta)
		if v.wantsNextPage() {
			v.loading = true
			page = fetchNotificationsCmd(m.service, v.gen, v.pageCursor, false)
		}
	}
	return tea.Batch(page, m.requestImages())
}

// jumpSelection moves to an absolute index; -1 means last item.
func (m *Model) jumpSelection(index int) tea.Cmd {
	set := func(cursor *int, size int) {
		target := index
		if target < 0 {
			target = size - 1
		}
		*cursor = clampCursor(target, size)
	}
	switch v := m.stack.top().(type) {
	case *timelineView:
		set(&v.cursor, len(v.posts))
	case *profileView:
		set(&v.cursor, len(v.posts))
	case *threadView:
		set(&v.cursor, len(v.posts))
	case *notificationsView:
		set(&v.cursor, len(v.items))
	}
	return m.requestImages()
}

// requestImages kicks off the pipeline for the selected post's first image.
// Idempotent per URL, so repeated selection changes cost nothing.
func (m *Model) requestImages() tea.Cmd {
	if !m.kittyOK || m.pipeline == nil {
		return nil
	}
	post := selectedPost(m.stack.top())
	if post == nil || len(post.Images) == 0 {
		return nil
	}
	url := post.Images[0].Thumb
	if url == "" {
		url = post.Images[0].Fullsize
	}
	if url == "" {
		return nil
	}
	maxCols := m.width / 2
	if maxCols < 10 {
		maxCols = 10
	}
	_, task := m.pipeline.Request(url, maxCols, imagePreviewRows)
	return imageTaskCmd(task)
}

// ---- optimistic interactions ----

func (m Model) toggleLike() (tea.Model, tea.Cmd) {
	top := m.stack.top()
	post := selectedPost(top)
	if post == nil {
		return m, nil
	}
	prevCount := post.LikeCount
	switch cur := post.Viewer.LikeURI; {
	case cur == pendingRecordURI:
		// create still in flight; undo locally, the completion handler
		// deletes the fresh record
		post.Viewer.LikeURI = ""
		post.LikeCount--
		return m, nil
	case cur == "":
		post.Viewer.LikeURI = pendingRecordURI
		post.LikeCount++
		return m, setLikeCmd(m.service, top.generation(), *post, true, "", prevCount)
	default:
		post.Viewer.LikeURI = ""
		post.LikeCount--
		return m, setLikeCmd(m.service, top.generation(), *post, false, cur, prevCount)
	}
}

func (m Model) toggleRepost() (tea.Model, tea.Cmd) {
	top := m.stack.top()
	post := selectedPost(top)
	if post == nil {
		return m, nil
	}
	prevCount := post.RepostCount
	switch cur := post.Viewer.RepostURI; {
	case cur == pendingRecordURI:
		post.Viewer.RepostURI = ""
		post.RepostCount--
		return m, nil
	case cur == "":
		post.Viewer.RepostURI = pendingRecordURI
		post.RepostCount++
		return m, setRepostCmd(m.service, top.generation(), *post, true, "", prevCount)
	default:
		post.Viewer.RepostURI = ""
		post.RepostCount--
		return m, setRepostCmd(m.service, top.generation(), *post, false, cur, prevCount)
	}
}

func (m Model) toggleFollow() (tea.Model, tea.Cmd) {
	v, ok := m.stack.top().(*profileView)
	if !ok {
		return m, m.setStatus("open a profile to follow", true)
	}
	if !v.loaded {
		return m, nil
	}
	prevCount := v.info.FollowersCount
	switch cur := v.info.FollowURI; {
	case cur == pendingRecordURI:
		v.info.FollowURI = ""
		v.info.FollowersCount--
		return m, nil
	case cur == "":
		v.info.FollowURI = pendingRecordURI
		v.info.FollowersCount++
		return m, setFollowCmd(m.service, v.gen, v.info.DID, true, "", prevCount)
	default:
		v.info.FollowURI = ""
		v.info.FollowersCount--
		return m, setFollowCmd(m.service, v.gen, v.info.DID, false, cur, prevCount)
	}
}

func (m Model) onInteractionResult(msg interactionResultMsg) (tea.Model, tea.Cmd) {
	if m.sessionExpired(msg.err) {
		return m, m.resetToLogin("session expired, log in again")
	}
	v := m.stack.byGeneration(msg.gen)
	if v == nil {
		return m, nil
	}
	post := postByURI(v, msg.uri)
	if post == nil {
		return m, nil
	}

	if msg.err != nil {
		if msg.kind == "like" {
			post.Viewer.LikeURI = msg.prevRecordURI
			post.LikeCount = msg.prevCount
		} else {
			post.Viewer.RepostURI = msg.prevRecordURI
			post.RepostCount = msg.prevCount
		}
		return m, m.setStatus(msg.kind+" failed: "+friendlyError(msg.err), true)
	}

	if msg.on {
		field := &post.Viewer.LikeURI
		count := post.LikeCount
		if msg.kind == "repost" {
			field = &post.Viewer.RepostURI
			count = post.RepostCount
		}
		if *field == "" {
			// user toggled back off before the create completed; undo the
			// record so server state matches the screen
			if msg.kind == "like" {
				return m, setLikeCmd(m.service, msg.gen, *post, false, msg.recordURI, count)
			}
			return m, setRepostCmd(m.service, msg.gen, *post, false, msg.recordURI, count)
		}
		*field = msg.recordURI
	}
	return m, reconcilePostsCmd(m.service, msg.gen, []string{msg.uri})
}

func (m Model) onFollowResult(msg followResultMsg) (tea.Model, tea.Cmd) {
	if m.sessionExpired(msg.err) {
		return m, m.resetToLogin("session expired, log in again")
	}
	v, ok := m.stack.byGeneration(msg.gen).(*profileView)
	if !ok || v == nil || v.info.DID != msg.did {
		return m, nil
	}

	if msg.err != nil {
		v.info.FollowURI = msg.prevRecordURI
		v.info.FollowersCount = msg.prevCount
		return m, m.setStatus("follow failed: "+friendlyError(msg.err), true)
	}
	if msg.on {
		if v.info.FollowURI == "" {
			return m, setFollowCmd(m.service, msg.gen, msg.did, false, msg.recordURI, v.info.FollowersCount)
		}
		v.info.FollowURI = msg.recordURI
	}
	return m, nil
}

// ---- fetch completions ----

func (m Model) onTimelineFetched(msg timelineFetchedMsg) (tea.Model, tea.Cmd) {
	v, ok := m.stack.byGeneration(msg.gen).(*timelineView)
	if !ok {
		return m, nil
	}
	v.merge(msg.page, msg.replace)
	var save tea.Cmd
	if msg.replace {
		save = savePostsCmd(m.saver, v.posts)
	}
	return m, tea.Batch(save, m.requestImages())
}

func (m Model) onFetchError(gen int, err error) (tea.Model, tea.Cmd) {
	if m.sessionExpired(err) {
		return m, m.resetToLogin("session expired, log in again")
	}
	v := m.stack.byGeneration(gen)
	if v == nil {
		return m, nil
	}
	clearLoading(v)
	m.logger.Warn("fetch failed", "view", v.kind().String(), "error", err)
	return m, m.setStatus(friendlyError(err), true)
}

func (m Model) onLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	v, ok := m.stack.top().(*loginView)
	if msg.err != nil {
		if ok {
			v.failSubmit(friendlyError(msg.err))
		}
		return m, textinput.Blink
	}
	tl := newTimelineView(m.allocGen(), nil)
	tl.loading = true
	m.stack.reset(tl)
	status := m.setStatus("signed in as @"+msg.handle, false)
	return m, tea.Batch(fetchTimelineCmd(m.service, tl.gen, "", true), status)
}

func (m Model) onPostCreated(msg postCreatedMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.stack.byGeneration(msg.gen).(*composerView); !ok {
		return m, nil
	}
	if m.stack.top().generation() == msg.gen {
		m.stack.pop()
	}

	// refresh the originating view so the new post shows up
	var refresh tea.Cmd
	switch v := m.stack.top().(type) {
	case *timelineView:
		v.loading = true
		refresh = fetchTimelineCmd(m.service, v.gen, "", true)
	case *threadView:
		v.loading = true
		refresh = fetchThreadCmd(m.service, v.gen, v.anchorURI)
	case *profileView:
		refresh = fetchProfileCmd(m.service, v.gen, v.actor)
	}
	return m, tea.Batch(refresh, m.setStatus("posted", false))
}

func (m Model) onPostDeleted(msg postDeletedMsg) (tea.Model, tea.Cmd) {
	if m.sessionExpired(msg.err) {
		return m, m.resetToLogin("session expired, log in again")
	}
	if msg.err != nil {
		return m, m.setStatus("delete failed: "+friendlyError(msg.err), true)
	}
	if v := m.stack.byGeneration(msg.gen); v != nil {
		removeFromView(v, msg.uri)
	}
	return m, m.setStatus("post deleted", false)
}

// ---- command mode ----

func (m Model) runCommandLine(line string) (tea.Model, tea.Cmd) {
	c, err := parseCommand(line)
	if err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	switch c.kind {
	case cmdNone:
		return m, nil
	case cmdQuit:
		return m, tea.Quit
	case cmdPost:
		return m.pushComposer(nil, nil, nil)
	case cmdReply:
		post := selectedPost(m.stack.top())
		if post == nil {
			return m, m.setStatus("no post selected", true)
		}
		return m.pushComposer(post, replyRefFor(m.stack.top(), *post), nil)
	case cmdQuote:
		post := selectedPost(m.stack.top())
		if post == nil {
			return m, m.setStatus("no post selected", true)
		}
		return m.pushComposer(post, nil, &bsky.StrongRef{URI: post.URI, CID: post.CID})
	case cmdDelete:
		top := m.stack.top()
		post := selectedPost(top)
		if post == nil {
			return m, m.setStatus("no post selected", true)
		}
		if post.Author.DID != m.service.DID() {
			return m, m.setStatus("can only delete your own posts", true)
		}
		return m, deletePostCmd(m.service, top.generation(), post.URI)
	case cmdTimeline:
		tl := newTimelineView(m.allocGen(), nil)
		tl.loading = true
		m.stack.reset(tl)
		return m, fetchTimelineCmd(m.service, tl.gen, "", true)
	case cmdNotifications:
		if m.stack.top().kind() == kindNotifications {
			return m, nil
		}
		return m.pushNotifications()
	case cmdProfile:
		actor := c.arg
		if actor == "" {
			post := selectedPost(m.stack.top())
			if post == nil {
				return m, m.setStatus("no post selected", true)
			}
			actor = post.Author.Handle
		}
		return m.pushProfile(actor)
	case cmdRefresh:
		return m, m.refreshTop()
	case cmdLogin:
		m.service.Logout()
		v := newLoginView(m.allocGen(), c.arg)
		m.stack.reset(v)
		return m, textinput.Blink
	case cmdLogout:
		m.service.Logout()
		return m, m.resetToLogin("")
	}
	return m, nil
}

// refreshTop re-issues the active view's initial fetch, discarding its cursor
// and items on completion (full reload, not append).
func (m *Model) refreshTop() tea.Cmd {
	switch v := m.stack.top().(type) {
	case *timelineView:
		v.loading = true
		v.pageCursor = ""
		return fetchTimelineCmd(m.service, v.gen, "", true)
	case *threadView:
		v.loading = true
		return fetchThreadCmd(m.service, v.gen, v.anchorURI)
	case *profileView:
		v.loading = true
		v.pageCursor = ""
		return fetchProfileCmd(m.service, v.gen, v.actor)
	case *notificationsView:
		v.loading = true
		v.pageCursor = ""
		return fetchNotificationsCmd(m.service, v.gen, "", true)
	}
	return nil
}

// ---- helpers ----

func selectedPost(v view) *bsky.Post {
	switch v := v.(type) {
	case *timelineView:
		return v.selected()
	case *profileView:
		return v.selected()
	case *threadView:
		return v.selected()
	}
	return nil
}

func postByURI(v view, uri string) *bsky.Post {
	switch v := v.(type) {
	case *timelineView:
		return v.byURI(uri)
	case *profileView:
		return v.byURI(uri)
	case *threadView:
		return v.byURI(uri)
	}
	return nil
}

func reconcileView(v view, posts []bsky.Post) {
	switch v := v.(type) {
	case *timelineView:
		v.reconcile(posts)
	case *profileView:
		v.reconcile(posts)
	case *threadView:
		v.reconcile(posts)
	}
}

func removeFromView(v view, uri string) {
	switch v := v.(type) {
	case *timelineView:
		v.remove(uri)
	case *profileView:
		v.remove(uri)
	case *threadView:
		v.remove(uri)
	}
}

func clearLoading(v view) {
	switch v := v.(type) {
	case *timelineView:
		v.loading = false
	case *profileView:
		v.loading = false
	case *threadView:
		v.loading = false
	case *notificationsView:
		v.loading = false
	}
}

// replyRefFor resolves the thread root for a reply record. Inside a thread
// view the root is found by walking parent links; elsewhere the selected post
// itself is treated as the root.
func replyRefFor(v view, post bsky.Post) *bsky.ReplyRef {
	ref := bsky.StrongRef{URI: post.URI, CID: post.CID}
	root := ref
	if tv, ok := v.(*threadView); ok {
		cur := post
		for cur.ParentURI != "" {
			parent := tv.byURI(cur.ParentURI)
			if parent == nil {
				break
			}
			cur = *parent
		}
		root = bsky.StrongRef{URI: cur.URI, CID: cur.CID}
	}
	return &bsky.ReplyRef{Root: root, Parent: ref}
}

func (m *Model) setStatus(text string, warn bool) tea.Cmd {
	m.status = text
	m.statusWarn = warn
	m.statusID++
	return clearStatusCmd(m.statusID)
}

func (m Model) sessionExpired(err error) bool {
	var be *bsky.Error
	if !errors.As(err, &be) || be.Kind != bsky.KindUnauthenticated {
		return false
	}
	return m.service.State() != gateway.StateAuthenticated
}

func friendlyError(err error) string {
	var be *bsky.Error
	if errors.As(err, &be) {
		switch be.Kind {
		case bsky.KindRateLimited:
			return fmt.Sprintf("rate limited, retry in %s", be.RetryAfter)
		case bsky.KindNotFound:
			return "not found"
		case bsky.KindNetwork:
			return "network error, try again"
		case bsky.KindUnauthenticated:
			return "not signed in"
		case bsky.KindMalformed:
			return "unexpected server response"
		}
	}
	return truncate(err.Error(), 80)
}
