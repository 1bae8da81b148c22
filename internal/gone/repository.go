package gone

import (
	"context"

	"go_gone/internal/model"
)

// Repository abstracts the storage operations behind Store and Engine.
// Insert must return an error wrapping ErrDuplicate when the unique index
// on url_pattern rejects the row, and Get must return ErrNotFound for a
// missing id.
type Repository interface {
	Exists(ctx context.Context, pattern string) (bool, error)
	Insert(ctx context.Context, p *model.GonePattern) error
	Get(ctx context.Context, id int) (*model.GonePattern, error)
	Delete(ctx context.Context, id int) (int64, error)
	DeleteIn(ctx context.Context, ids []int) (int64, error)
	ListAll(ctx context.Context) ([]model.GonePattern, error)
	GetSetting(ctx context.Context, name string) (string, bool, error)
	PutSetting(ctx context.Context, name, value string) error
}
