package bsky

import (
	"encoding/json"
	"time"
)

// Wire-level shapes for the app.bsky responses. Only the fields the views
// consume are declared; everything else is dropped at decode time.

type feedResponse struct {
	Feed   []feedViewPost `json:"feed"`
	Cursor string         `json:"cursor"`
}

type feedViewPost struct {
	Post   postView `json:"post"`
	Reason *struct {
		Type string `json:"$type"`
		By   Author `json:"by"`
	} `json:"reason"`
	Reply *struct {
		Parent struct {
			URI string `json:"uri"`
		} `json:"parent"`
	} `json:"reply"`
}

type postView struct {
	URI         string          `json:"uri"`
	CID         string          `json:"cid"`
	Author      Author          `json:"author"`
	Record      postRecord      `json:"record"`
	Embed       json.RawMessage `json:"embed"`
	ReplyCount  int             `json:"replyCount"`
	RepostCount int             `json:"repostCount"`
	LikeCount   int             `json:"likeCount"`
	IndexedAt   time.Time       `json:"indexedAt"`
	Viewer      *struct {
		Like   string `json:"like"`
		Repost string `json:"repost"`
	} `json:"viewer"`
}

type postRecord struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Reply     *struct {
		Parent struct {
			URI string `json:"uri"`
		} `json:"parent"`
	} `json:"reply"`
}

type embedView struct {
	Type   string `json:"$type"`
	Images []struct {
		Thumb    string `json:"thumb"`
		Fullsize string `json:"fullsize"`
		Alt      string `json:"alt"`
	} `json:"images"`
	Record *struct {
		URI    string `json:"uri"`
		Author Author `json:"author"`
	} `json:"record"`
	Media *embedView `json:"media"`
}

// threadView is the recursive thread union. Unknown variants (blocked,
// not-found) decode with a nil Post and are skipped.
type threadView struct {
	Type    string       `json:"$type"`
	Post    *postView    `json:"post"`
	Parent  *threadView  `json:"parent"`
	Replies []threadView `json:"replies"`
}

type threadResponse struct {
	Thread threadView `json:"thread"`
}

type profileView struct {
	DID            string `json:"did"`
	Handle         string `json:"handle"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	Avatar         string `json:"avatar"`
	FollowersCount int    `json:"followersCount"`
	FollowsCount   int    `json:"followsCount"`
	PostsCount     int    `json:"postsCount"`
	Viewer         *struct {
		Following string `json:"following"`
	} `json:"viewer"`
}

type notificationsResponse struct {
	Notifications []notificationView `json:"notifications"`
	Cursor        string             `json:"cursor"`
}

type notificationView struct {
	URI           string    `json:"uri"`
	Author        Author    `json:"author"`
	Reason        string    `json:"reason"`
	ReasonSubject string    `json:"reasonSubject"`
	IsRead        bool      `json:"isRead"`
	IndexedAt     time.Time `json:"indexedAt"`
}

func decodeFeed(items []feedViewPost) []Post {
	posts := make([]Post, 0, len(items))
	for i := range items {
		post := decodePostView(&items[i].Post)
		if reason := items[i].Reason; reason != nil && reason.Type == "app.bsky.feed.defs#reasonRepost" {
			post.RepostedBy = reason.By.Name()
		}
		if items[i].Reply != nil {
			post.ParentURI = items[i].Reply.Parent.URI
		}
		posts = append(posts, post)
	}
	return posts
}

func decodePostView(pv *postView) Post {
	post := Post{
		URI:         pv.URI,
		CID:         pv.CID,
		Author:      pv.Author,
		Text:        pv.Record.Text,
		CreatedAt:   pv.Record.CreatedAt,
		ReplyCount:  pv.ReplyCount,
		RepostCount: pv.RepostCount,
		LikeCount:   pv.LikeCount,
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = pv.IndexedAt
	}
	if pv.Viewer != nil {
		post.Viewer = Viewer{LikeURI: pv.Viewer.Like, RepostURI: pv.Viewer.Repost}
	}
	if pv.Record.Reply != nil {
		post.ParentURI = pv.Record.Reply.Parent.URI
	}
	decodeEmbed(pv.Embed, &post)
	return post
}

func decodeEmbed(raw json.RawMessage, post *Post) {
	if len(raw) == 0 {
		return
	}
	var embed embedView
	if err := json.Unmarshal(raw, &embed); err != nil {
		return
	}
	applyEmbed(&embed, post)
}

func applyEmbed(embed *embedView, post *Post) {
	for _, img := range embed.Images {
		post.Images = append(post.Images, ImageRef{Thumb: img.Thumb, Fullsize: img.Fullsize, Alt: img.Alt})
	}
	if embed.Record != nil {
		post.QuotedURI = embed.Record.URI
		post.QuotedBy = embed.Record.Author.Name()
	}
	// recordWithMedia nests the actual media one level down
	if embed.Media != nil {
		applyEmbed(embed.Media, post)
	}
}

// flattenThread returns the fetched ancestors topmost-first, then the anchor
// post and its reply tree depth-first. Every returned post's ParentURI
// resolves to another returned post or to a post above the fetch window.
func flattenThread(anchor *threadView) []Post {
	if anchor == nil || anchor.Post == nil {
		return nil
	}

	var ancestors []*threadView
	for node := anchor.Parent; node != nil && node.Post != nil; node = node.Parent {
		ancestors = append(ancestors, node)
	}

	var posts []Post
	parentURI := ""
	for i := len(ancestors) - 1; i >= 0; i-- {
		post := decodePostView(ancestors[i].Post)
		if post.ParentURI == "" {
			post.ParentURI = parentURI
		}
		posts = append(posts, post)
		parentURI = post.URI
	}

	var walk func(node *threadView, parentURI string)
	walk = func(node *threadView, parentURI string) {
		if node == nil || node.Post == nil {
			return
		}
		post := decodePostView(node.Post)
		if post.ParentURI == "" {
			post.ParentURI = parentURI
		}
		posts = append(posts, post)
		for i := range node.Replies {
			walk(&node.Replies[i], post.URI)
		}
	}
	walk(anchor, parentURI)
	return posts
}

func decodeNotifications(items []notificationView) []Notification {
	out := make([]Notification, 0, len(items))
	for _, item := range items {
		out = append(out, Notification{
			URI:        item.URI,
			Author:     item.Author,
			Reason:     item.Reason,
			SubjectURI: item.ReasonSubject,
			IsRead:     item.IsRead,
			IndexedAt:  item.IndexedAt,
		})
	}
	return out
}

func decodeProfile(pv *profileView) Profile {
	profile := Profile{
		DID:            pv.DID,
		Handle:         pv.Handle,
		DisplayName:    pv.DisplayName,
		Description:    pv.Description,
		Avatar:         pv.Avatar,
		FollowersCount: pv.FollowersCount,
		FollowsCount:   pv.FollowsCount,
		PostsCount:     pv.PostsCount,
	}
	if pv.Viewer != nil {
		profile.FollowURI = pv.Viewer.Following
	}
	return profile
}
