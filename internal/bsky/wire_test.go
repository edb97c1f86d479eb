package bsky

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(uri string) *postView {
	return &postView{URI: uri, CID: "cid-" + uri, Author: Author{Handle: "alice.bsky.social"}}
}

func TestFlattenThreadOrdersAncestorsFirst(t *testing.T) {
	// grandparent <- parent <- anchor <- two replies, one nested
	thread := threadView{
		Post: post("anchor"),
		Parent: &threadView{
			Post: post("parent"),
			Parent: &threadView{
				Post: post("grandparent"),
			},
		},
		Replies: []threadView{
			{
				Post: post("reply1"),
				Replies: []threadView{
					{Post: post("reply1a")},
				},
			},
			{Post: post("reply2")},
		},
	}

	posts := flattenThread(&thread)
	require.Len(t, posts, 6)

	order := make([]string, len(posts))
	for i, p := range posts {
		order[i] = p.URI
	}
	assert.Equal(t, []string{"grandparent", "parent", "anchor", "reply1", "reply1a", "reply2"}, order)

	byURI := make(map[string]Post, len(posts))
	for _, p := range posts {
		byURI[p.URI] = p
	}
	assert.Empty(t, byURI["grandparent"].ParentURI)
	assert.Equal(t, "grandparent", byURI["parent"].ParentURI)
	assert.Equal(t, "parent", byURI["anchor"].ParentURI)
	assert.Equal(t, "anchor", byURI["reply1"].ParentURI)
	assert.Equal(t, "reply1", byURI["reply1a"].ParentURI)
	assert.Equal(t, "anchor", byURI["reply2"].ParentURI)
}

func TestFlattenThreadSkipsInvisibleNodes(t *testing.T) {
	// blocked parent decodes without a post; the anchor starts the output
	thread := threadView{
		Post:   post("anchor"),
		Parent: &threadView{Type: "app.bsky.feed.defs#blockedPost"},
		Replies: []threadView{
			{Type: "app.bsky.feed.defs#notFoundPost"},
			{Post: post("reply")},
		},
	}

	posts := flattenThread(&thread)
	require.Len(t, posts, 2)
	assert.Equal(t, "anchor", posts[0].URI)
	assert.Equal(t, "reply", posts[1].URI)
}

func TestFlattenThreadNilAnchor(t *testing.T) {
	assert.Nil(t, flattenThread(nil))
	assert.Nil(t, flattenThread(&threadView{Type: "app.bsky.feed.defs#notFoundPost"}))
}

func TestDecodePostViewFallsBackToIndexedAt(t *testing.T) {
	var pv postView
	require.NoError(t, json.Unmarshal([]byte(`{
		"uri": "at://did:plc:a/app.bsky.feed.post/1",
		"cid": "c1",
		"author": {"handle": "alice.bsky.social"},
		"record": {"text": "no createdAt"},
		"indexedAt": "2026-07-01T08:00:00Z"
	}`), &pv))

	decoded := decodePostView(&pv)
	assert.Equal(t, 2026, decoded.CreatedAt.Year())
	assert.Equal(t, "no createdAt", decoded.Text)
}

func TestDecodeEmbedImagesAndQuote(t *testing.T) {
	var pv postView
	require.NoError(t, json.Unmarshal([]byte(`{
		"uri": "at://did:plc:a/app.bsky.feed.post/1",
		"cid": "c1",
		"author": {"handle": "alice.bsky.social"},
		"record": {"text": "pics", "createdAt": "2026-07-01T08:00:00Z"},
		"embed": {
			"$type": "app.bsky.embed.images#view",
			"images": [
				{"thumb": "https://cdn/th1", "fullsize": "https://cdn/fs1", "alt": "a cat"},
				{"thumb": "https://cdn/th2", "fullsize": "https://cdn/fs2", "alt": ""}
			]
		}
	}`), &pv))

	decoded := decodePostView(&pv)
	require.Len(t, decoded.Images, 2)
	assert.Equal(t, "https://cdn/th1", decoded.Images[0].Thumb)
	assert.Equal(t, "a cat", decoded.Images[0].Alt)
}

func TestDecodeEmbedRecordWithMedia(t *testing.T) {
	var pv postView
	require.NoError(t, json.Unmarshal([]byte(`{
		"uri": "at://did:plc:a/app.bsky.feed.post/1",
		"cid": "c1",
		"author": {"handle": "alice.bsky.social"},
		"record": {"text": "quote with pic", "createdAt": "2026-07-01T08:00:00Z"},
		"embed": {
			"$type": "app.bsky.embed.recordWithMedia#view",
			"record": {"uri": "at://did:plc:b/app.bsky.feed.post/9", "author": {"handle": "bob.bsky.social", "displayName": "Bob"}},
			"media": {
				"$type": "app.bsky.embed.images#view",
				"images": [{"thumb": "https://cdn/m1", "fullsize": "https://cdn/m1f", "alt": "chart"}]
			}
		}
	}`), &pv))

	decoded := decodePostView(&pv)
	assert.Equal(t, "at://did:plc:b/app.bsky.feed.post/9", decoded.QuotedURI)
	assert.Equal(t, "Bob", decoded.QuotedBy)
	require.Len(t, decoded.Images, 1)
	assert.Equal(t, "chart", decoded.Images[0].Alt)
}

func TestDecodeNotifications(t *testing.T) {
	items := []notificationView{
		{URI: "at://n/1", Author: Author{Handle: "bob.bsky.social"}, Reason: "like", ReasonSubject: "at://p/1", IsRead: false},
		{URI: "at://n/2", Author: Author{Handle: "carol.bsky.social"}, Reason: "follow", IsRead: true},
	}
	out := decodeNotifications(items)
	require.Len(t, out, 2)
	assert.Equal(t, ReasonLike, out[0].Reason)
	assert.Equal(t, "at://p/1", out[0].SubjectURI)
	assert.False(t, out[0].IsRead)
	assert.True(t, out[1].IsRead)
}

func TestDecodeProfileViewerFollow(t *testing.T) {
	var pv profileView
	require.NoError(t, json.Unmarshal([]byte(`{
		"did": "did:plc:bob",
		"handle": "bob.bsky.social",
		"displayName": "Bob",
		"followersCount": 12,
		"followsCount": 34,
		"postsCount": 56,
		"viewer": {"following": "at://did:plc:me/app.bsky.graph.follow/f1"}
	}`), &pv))

	profile := decodeProfile(&pv)
	assert.Equal(t, "Bob", profile.DisplayName)
	assert.Equal(t, 12, profile.FollowersCount)
	assert.Equal(t, "at://did:plc:me/app.bsky.graph.follow/f1", profile.FollowURI)
}
