package employee

import (
	"context"
	"time"
)

// Repository は社員ストアドプロシージャ呼び出しの抽象です。
type Repository interface {
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, int64, error)
	Insert(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Employee, error)
}

// ListEmployeesFilter は GetEmployees に渡す検索条件です。
type ListEmployeesFilter struct {
	FromDate      *time.Time
	ToDate        *time.Time
	PageSize      int
	PageNumber    int
	SortColumn    SortColumn
	SortDirection SortDirection
	SearchTerm    *string
}
