package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/glabrego/skyline-cli/internal/bsky"
)

// Repository caches timeline posts in sqlite so the timeline renders
// instantly on the next start while the first network page is in flight.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS posts (
  uri TEXT PRIMARY KEY,
  cid TEXT NOT NULL,
  author_did TEXT NOT NULL,
  author_handle TEXT NOT NULL,
  author_display TEXT,
  text TEXT NOT NULL,
  created_at TEXT NOT NULL,
  reply_count INTEGER NOT NULL,
  repost_count INTEGER NOT NULL,
  like_count INTEGER NOT NULL,
  fetched_at TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *Repository) SavePosts(ctx context.Context, posts []bsky.Post) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO posts (uri, cid, author_did, author_handle, author_display, text, created_at, reply_count, repost_count, like_count, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(uri) DO UPDATE SET
  cid=excluded.cid,
  author_did=excluded.author_did,
  author_handle=excluded.author_handle,
  author_display=excluded.author_display,
  text=excluded.text,
  created_at=excluded.created_at,
  reply_count=excluded.reply_count,
  repost_count=excluded.repost_count,
  like_count=excluded.like_count,
  fetched_at=excluded.fetched_at
`)
	if err != nil {
		return fmt.Errorf("prepare save statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, post := range posts {
		_, err := stmt.ExecContext(
			ctx,
			post.URI,
			post.CID,
			post.Author.DID,
			post.Author.Handle,
			post.Author.DisplayName,
			post.Text,
			post.CreatedAt.UTC().Format(time.RFC3339Nano),
			post.ReplyCount,
			post.RepostCount,
			post.LikeCount,
			now,
		)
		if err != nil {
			return fmt.Errorf("save post %s: %w", post.URI, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, limit int) ([]bsky.Post, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT uri, cid, author_did, author_handle, author_display, text, created_at, reply_count, repost_count, like_count
FROM posts
ORDER BY created_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]bsky.Post, 0, limit)
	for rows.Next() {
		var post bsky.Post
		var createdAt string
		if err := rows.Scan(
			&post.URI,
			&post.CID,
			&post.Author.DID,
			&post.Author.Handle,
			&post.Author.DisplayName,
			&post.Text,
			&createdAt,
			&post.ReplyCount,
			&post.RepostCount,
			&post.LikeCount,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		post.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse post created_at %q: %w", createdAt, err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return posts, nil
}

// CheckWritable verifies the database accepts writes before the TUI starts,
// so a read-only cache path fails fast instead of mid-session.
func (r *Repository) CheckWritable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS write_check (id INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DROP TABLE write_check`); err != nil {
		return fmt.Errorf("write check cleanup: %w", err)
	}
	return nil
}
