package social

import (
	"context"
	"time"
)

// Post is a social network post, flattened to what the trackers need.
type Post struct {
	ID              int64
	UserID          int64
	UserHandle      string
	Text            string
	PostedAt        time.Time
	IsRepost        bool
	MentionUserIDs  []int64
	InReplyToUserID *int64
}

// User is a social network account.
type User struct {
	ID     int64
	Handle string
}

// Client is the social platform capability the trackers require. The
// platform rate-limits these calls externally; pacing beyond the mentions
// throttle is the caller's problem.
type Client interface {
	// Search returns recent posts matching the query with id > sinceID.
	Search(ctx context.Context, query string, sinceID int64) ([]Post, error)

	// Mentions returns recent posts mentioning the authenticated account
	// with id > sinceID.
	Mentions(ctx context.Context, sinceID int64) ([]Post, error)

	// Update publishes a standalone post.
	Update(ctx context.Context, text string) error

	// Reply publishes a post in reply to another.
	Reply(ctx context.Context, text string, inReplyTo int64) error

	// GetUser looks up an account by id.
	GetUser(ctx context.Context, id int64) (User, error)
}
