package tui

import (
	"github.com/glabrego/skyline-cli/internal/bsky"
	"github.com/glabrego/skyline-cli/internal/imgcache"
)

// Every async completion carries the generation of the view it was issued
// for. The model drops messages whose generation is no longer on the stack,
// so a late completion can never mutate a newer view.

type timelineFetchedMsg struct {
	gen     int
	replace bool
	page    bsky.TimelinePage
}

type timelineErrorMsg struct {
	gen int
	err error
}

type threadFetchedMsg struct {
	gen   int
	posts []bsky.Post
}

type threadErrorMsg struct {
	gen int
	err error
}

type profileFetchedMsg struct {
	gen     int
	profile bsky.Profile
	feed    bsky.TimelinePage
}

type profileFeedMsg struct {
	gen  int
	page bsky.TimelinePage
}

type profileErrorMsg struct {
	gen int
	err error
}

type notificationsFetchedMsg struct {
	gen     int
	replace bool
	page    bsky.NotificationPage
}

type notificationsErrorMsg struct {
	gen int
	err error
}

type loginResultMsg struct {
	handle string
	err    error
}

type postCreatedMsg struct {
	gen int
	ref bsky.StrongRef
}

type postCreateErrorMsg struct {
	gen int
	err error
}

type postDeletedMsg struct {
	gen int
	uri string
	err error
}

// interactionResultMsg completes an optimistic like/repost. prev* carry the
// pre-toggle state so a failure can revert exactly what the keypress changed.
type interactionResultMsg struct {
	gen       int
	uri       string
	kind      string // "like" or "repost"
	on        bool
	recordURI string
	err       error

	prevRecordURI string
	prevCount     int
}

type followResultMsg struct {
	gen       int
	did       string
	on        bool
	recordURI string
	err       error

	prevRecordURI string
	prevCount     int
}

// postsReconciledMsg delivers fresh server copies of posts already shown,
// replacing optimistic counts with server truth.
type postsReconciledMsg struct {
	gen   int
	posts []bsky.Post
}

type imageResultMsg struct {
	result imgcache.Result
}

type savePostsDoneMsg struct {
	err error
}

type clearStatusMsg struct {
	id int
}
