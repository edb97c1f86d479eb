package bsky

import (
	"fmt"
	"strings"
	"time"
)

// Author is the subset of actor metadata attached to posts and notifications.
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

func (a Author) Name() string {
	if strings.TrimSpace(a.DisplayName) != "" {
		return a.DisplayName
	}
	return "@" + a.Handle
}

// ImageRef points at one embedded image of a post.
type ImageRef struct {
	Thumb    string `json:"thumb"`
	Fullsize string `json:"fullsize"`
	Alt      string `json:"alt"`
}

// Viewer carries the authenticated account's relationship to a post. LikeURI
// and RepostURI are the at-uris of the viewer's own like/repost records;
// empty means no record exists. Deleting that record is how a like/repost is
// undone.
type Viewer struct {
	LikeURI   string
	RepostURI string
}

// Post is one post as held by a view. Counts and Viewer are updated
// optimistically on interaction and reconciled on the next fetch; everything
// else is immutable after decode.
type Post struct {
	URI         string
	CID         string
	Author      Author
	Text        string
	CreatedAt   time.Time
	ReplyCount  int
	RepostCount int
	LikeCount   int
	Viewer      Viewer
	Images      []ImageRef
	QuotedURI   string
	QuotedBy    string // display name of quoted author, when embedded
	ParentURI   string // reply parent, empty for top-level posts
	RepostedBy  string // set when the timeline item is a repost
}

// Profile is an actor profile plus the viewer's follow relationship.
// FollowURI is the at-uri of the viewer's follow record, empty when not
// following.
type Profile struct {
	DID            string
	Handle         string
	DisplayName    string
	Description    string
	Avatar         string
	FollowersCount int
	FollowsCount   int
	PostsCount     int
	FollowURI      string
}

func (p Profile) Name() string {
	if strings.TrimSpace(p.DisplayName) != "" {
		return p.DisplayName
	}
	return "@" + p.Handle
}

// NotificationReason values as delivered by listNotifications.
const (
	ReasonLike    = "like"
	ReasonRepost  = "repost"
	ReasonFollow  = "follow"
	ReasonReply   = "reply"
	ReasonMention = "mention"
	ReasonQuote   = "quote"
)

// Notification is one item of the notifications view.
type Notification struct {
	URI        string
	Author     Author
	Reason     string
	SubjectURI string
	IsRead     bool
	IndexedAt  time.Time
}

// StrongRef identifies a record by uri+cid, as required by like/repost
// subjects and reply refs.
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ReplyRef names the root and immediate parent of a reply.
type ReplyRef struct {
	Root   StrongRef `json:"root"`
	Parent StrongRef `json:"parent"`
}

// Session holds the token material returned by createSession/refreshSession.
type Session struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
}

// SplitURI breaks an at-uri into repo DID, collection and record key.
func SplitURI(uri string) (repo, collection, rkey string, err error) {
	trimmed := strings.TrimPrefix(uri, "at://")
	if trimmed == uri {
		return "", "", "", fmt.Errorf("not an at-uri: %s", uri)
	}
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed at-uri: %s", uri)
	}
	return parts[0], parts[1], parts[2], nil
}
