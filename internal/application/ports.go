package application

import (
	"context"
	"io"
	"time"

	"github.com/ChaoPei/flasky/internal/domain/entity"
)

// Mail template names.
const (
	MailConfirm       = "confirm"
	MailResetPassword = "reset_password"
	MailChangeEmail   = "change_email"
	MailNewUser       = "new_user"
)

// Mailer hands a templated message to the delivery pipeline. Delivery is
// best effort; callers log failures and carry on.
type Mailer interface {
	Send(ctx context.Context, to, subject, template string, data map[string]any) error
}

// Indexer keeps the search index in step with users and posts.
type Indexer interface {
	IndexUser(ctx context.Context, u *entity.User) error
	IndexPost(ctx context.Context, p *entity.Post) error
	SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error)
	SearchPosts(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// AvatarStore persists uploaded avatar images and returns their public URL.
type AvatarStore interface {
	Upload(ctx context.Context, userID int64, filename, contentType string, r io.Reader) (string, error)
}

// Clock returns the current time. A nil Clock means time.Now in UTC.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}
