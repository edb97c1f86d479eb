package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultServiceURL = "https://bsky.social"

// Client speaks the XRPC HTTP surface of an AT Protocol PDS. It is stateless
// with respect to authentication: the caller passes the access token per
// call, so the same client can serve concurrent operations issued before and
// after a token refresh.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultServiceURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) CreateSession(ctx context.Context, identifier, password string) (Session, error) {
	const op = "createSession"
	input := map[string]string{"identifier": identifier, "password": password}
	var session Session
	if err := c.procedure(ctx, op, "com.atproto.server.createSession", "", input, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// RefreshSession exchanges a refresh token for a new token pair. The refresh
// token is sent as the bearer credential.
func (c *Client) RefreshSession(ctx context.Context, refreshJWT string) (Session, error) {
	const op = "refreshSession"
	var session Session
	if err := c.procedure(ctx, op, "com.atproto.server.refreshSession", refreshJWT, nil, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// TimelinePage is one page of a feed plus the cursor for the next one. An
// empty cursor means the feed is exhausted.
type TimelinePage struct {
	Posts  []Post
	Cursor string
}

func (c *Client) GetTimeline(ctx context.Context, accessJWT, cursor string, limit int) (TimelinePage, error) {
	const op = "getTimeline"
	q := make(url.Values)
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	q.Set("limit", fmt.Sprintf("%d", clampLimit(limit)))

	var out feedResponse
	if err := c.query(ctx, op, "app.bsky.feed.getTimeline", accessJWT, q, &out); err != nil {
		return TimelinePage{}, err
	}
	return TimelinePage{Posts: decodeFeed(out.Feed), Cursor: out.Cursor}, nil
}

func (c *Client) GetAuthorFeed(ctx context.Context, accessJWT, actor, cursor string, limit int) (TimelinePage, error) {
	const op = "getAuthorFeed"
	q := make(url.Values)
	q.Set("actor", actor)
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	q.Set("limit", fmt.Sprintf("%d", clampLimit(limit)))

	var out feedResponse
	if err := c.query(ctx, op, "app.bsky.feed.getAuthorFeed", accessJWT, q, &out); err != nil {
		return TimelinePage{}, err
	}
	return TimelinePage{Posts: decodeFeed(out.Feed), Cursor: out.Cursor}, nil
}

// GetPostThread returns the thread around uri flattened root-first. Parent
// links are preserved through Post.ParentURI so callers can rebuild the tree
// by id lookup.
func (c *Client) GetPostThread(ctx context.Context, accessJWT, uri string) ([]Post, error) {
	const op = "getPostThread"
	q := make(url.Values)
	q.Set("uri", uri)
	q.Set("depth", "10")
	q.Set("parentHeight", "10")

	var out threadResponse
	if err := c.query(ctx, op, "app.bsky.feed.getPostThread", accessJWT, q, &out); err != nil {
		return nil, err
	}
	posts := flattenThread(&out.Thread)
	if len(posts) == 0 {
		return nil, &Error{Kind: KindMalformed, Op: op, Message: "thread contains no visible posts"}
	}
	return posts, nil
}

func (c *Client) GetPosts(ctx context.Context, accessJWT string, uris []string) ([]Post, error) {
	const op = "getPosts"
	if len(uris) == 0 {
		return nil, nil
	}
	q := make(url.Values)
	for _, uri := range uris {
		q.Add("uris", uri)
	}

	var out struct {
		Posts []postView `json:"posts"`
	}
	if err := c.query(ctx, op, "app.bsky.feed.getPosts", accessJWT, q, &out); err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(out.Posts))
	for i := range out.Posts {
		posts = append(posts, decodePostView(&out.Posts[i]))
	}
	return posts, nil
}

func (c *Client) GetProfile(ctx context.Context, accessJWT, actor string) (Profile, error) {
	const op = "getProfile"
	q := make(url.Values)
	q.Set("actor", actor)

	var out profileView
	if err := c.query(ctx, op, "app.bsky.actor.getProfile", accessJWT, q, &out); err != nil {
		return Profile{}, err
	}
	return decodeProfile(&out), nil
}

// NotificationPage mirrors TimelinePage for the notifications feed.
type NotificationPage struct {
	Items  []Notification
	Cursor string
}

func (c *Client) ListNotifications(ctx context.Context, accessJWT, cursor string, limit int) (NotificationPage, error) {
	const op = "listNotifications"
	q := make(url.Values)
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	q.Set("limit", fmt.Sprintf("%d", clampLimit(limit)))

	var out notificationsResponse
	if err := c.query(ctx, op, "app.bsky.notification.listNotifications", accessJWT, q, &out); err != nil {
		return NotificationPage{}, err
	}
	return NotificationPage{Items: decodeNotifications(out.Notifications), Cursor: out.Cursor}, nil
}

// CreatePost writes an app.bsky.feed.post record. reply and quote are both
// optional; quote becomes a record embed.
func (c *Client) CreatePost(ctx context.Context, accessJWT, repo, text string, reply *ReplyRef, quote *StrongRef) (StrongRef, error) {
	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      text,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if reply != nil {
		record["reply"] = reply
	}
	if quote != nil {
		record["embed"] = map[string]any{
			"$type":  "app.bsky.embed.record",
			"record": quote,
		}
	}
	return c.createRecord(ctx, "createPost", accessJWT, repo, "app.bsky.feed.post", record)
}

func (c *Client) CreateLike(ctx context.Context, accessJWT, repo string, subject StrongRef) (StrongRef, error) {
	return c.createRecord(ctx, "createLike", accessJWT, repo, "app.bsky.feed.like", map[string]any{
		"$type":     "app.bsky.feed.like",
		"subject":   subject,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *Client) CreateRepost(ctx context.Context, accessJWT, repo string, subject StrongRef) (StrongRef, error) {
	return c.createRecord(ctx, "createRepost", accessJWT, repo, "app.bsky.feed.repost", map[string]any{
		"$type":     "app.bsky.feed.repost",
		"subject":   subject,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *Client) CreateFollow(ctx context.Context, accessJWT, repo, subjectDID string) (StrongRef, error) {
	return c.createRecord(ctx, "createFollow", accessJWT, repo, "app.bsky.graph.follow", map[string]any{
		"$type":     "app.bsky.graph.follow",
		"subject":   subjectDID,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// DeleteRecord removes the record addressed by an at-uri. Used for deleting
// posts and for undoing likes, reposts and follows.
func (c *Client) DeleteRecord(ctx context.Context, accessJWT, uri string) error {
	const op = "deleteRecord"
	repo, collection, rkey, err := SplitURI(uri)
	if err != nil {
		return malformedErr(op, err)
	}
	input := map[string]string{
		"repo":       repo,
		"collection": collection,
		"rkey":       rkey,
	}
	return c.procedure(ctx, op, "com.atproto.repo.deleteRecord", accessJWT, input, nil)
}

func (c *Client) createRecord(ctx context.Context, op, accessJWT, repo, collection string, record any) (StrongRef, error) {
	input := map[string]any{
		"repo":       repo,
		"collection": collection,
		"record":     record,
	}
	var ref StrongRef
	if err := c.procedure(ctx, op, "com.atproto.repo.createRecord", accessJWT, input, &ref); err != nil {
		return StrongRef{}, err
	}
	return ref, nil
}

func (c *Client) query(ctx context.Context, op, nsid, accessJWT string, params url.Values, out any) error {
	path := "/xrpc/" + nsid
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, accessJWT, nil)
	if err != nil {
		return malformedErr(op, err)
	}
	return c.do(op, req, out)
}

func (c *Client) procedure(ctx context.Context, op, nsid, accessJWT string, input, out any) error {
	var body io.Reader
	if input != nil {
		encoded, err := json.Marshal(input)
		if err != nil {
			return malformedErr(op, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/xrpc/"+nsid, accessJWT, body)
	if err != nil {
		return malformedErr(op, err)
	}
	if input != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return networkErr(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classifyStatus(op, resp, body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return malformedErr(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, accessJWT string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if accessJWT != "" {
		req.Header.Set("Authorization", "Bearer "+accessJWT)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 50
	}
	if limit > 100 {
		return 100
	}
	return limit
}
