package project

import "context"

type Repo interface {
	Create(ctx context.Context, owner, name, color string) (Project, error)
	Get(ctx context.Context, owner, name string) (Project, error)
	List(ctx context.Context, owner string, includeArchived bool) ([]Project, error)
	SetArchived(ctx context.Context, owner, name string, archived bool) (Project, error)
	Delete(ctx context.Context, owner, name string) error
}
