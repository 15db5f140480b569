package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultPageNumber = 1
	defaultPageSize   = 10
	maxPageSize       = 100
)

var errImageStoreMissing = errors.New("employee: image store is not configured")

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
}

// Service は社員に関するユースケースをまとめます。業務ルールはストアドプロシージャ側にあります。
type Service struct {
	repo     Repository
	images   ImageStore
	tx       TransactionManager
	validate *validator.Validate
}

// NewService は Service を生成します。
func NewService(repo Repository, images ImageStore, tx TransactionManager) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, images: images, tx: tx, validate: newValidator()}
}

// ListEmployeesInput は一覧取得時の入力です。0 のページ指定は既定値を意味します。
type ListEmployeesInput struct {
	FromDate      *time.Time
	ToDate        *time.Time
	PageNumber    int
	PageSize      int
	SortColumn    string
	SortDirection string
	SearchTerm    string
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees  []*Employee
	TotalCount int64
	PageNumber int
	PageSize   int
}

// CreateEmployeeInput は社員登録時の入力です。
type CreateEmployeeInput struct {
	Fields
	Image *Image
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID int64
}

// UpdateEmployeeInput は社員更新時の入力です。
// Image が無く Images も nil の場合は既存の画像参照を維持し、空文字の Images は参照を外します。
type UpdateEmployeeInput struct {
	ID int64
	Fields
	Image *Image
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	ID int64
}

// ListEmployees は GetEmployees で社員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	filter, err := buildListFilter(in)
	if err != nil {
		return nil, err
	}

	var (
		employees []*Employee
		total     int64
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, count, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		employees = found
		total = count
		return nil
	}); err != nil {
		return nil, err
	}

	if employees == nil {
		employees = []*Employee{}
	}

	return &ListEmployeesResult{
		Employees:  employees,
		TotalCount: total,
		PageNumber: filter.PageNumber,
		PageSize:   filter.PageSize,
	}, nil
}

// CreateEmployee は画像を保存してから InsertEmployee を呼び出します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	fields := normalizeFields(in.Fields)
	if err := validateFields(s.validate, fields); err != nil {
		return nil, err
	}

	saved, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	// 画像参照はアップロードされたファイルからのみ設定します。
	fields.Images = nil
	if saved != "" {
		fields.Images = &saved
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.Insert(txCtx, toEntity(0, fields))
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		s.discardImage(ctx, saved)
		return nil, err
	}

	return created, nil
}

// GetEmployee は GetEmployeeById で社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateEmployee は UpdateEmployee プロシージャで社員情報を更新します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	fields := normalizeFields(in.Fields)
	if err := validateFields(s.validate, fields); err != nil {
		return nil, err
	}

	saved, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	var (
		updated  *Employee
		previous *string
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		previous = existing.Images

		images, err := resolveImages(saved, fields.Images, existing.Images)
		if err != nil {
			return err
		}
		fields.Images = images

		result, err := s.repo.Update(txCtx, toEntity(in.ID, fields))
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		s.discardImage(ctx, saved)
		return nil, err
	}

	if previous != nil && (updated.Images == nil || *updated.Images != *previous) {
		s.discardImage(ctx, *previous)
	}

	return updated, nil
}

// DeleteEmployee は DeleteEmployee プロシージャで社員を削除し、画像も片付けます。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	if in.ID <= 0 {
		return ErrInvalidID
	}

	var images *string
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		images = existing.Images
		return s.repo.Delete(txCtx, in.ID)
	}); err != nil {
		return err
	}

	if images != nil {
		s.discardImage(ctx, *images)
	}
	return nil
}

func (s *Service) saveImage(ctx context.Context, img *Image) (string, error) {
	if img == nil || img.Content == nil {
		return "", nil
	}
	if s.images == nil {
		return "", errImageStoreMissing
	}

	name, err := s.images.Save(ctx, *img)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return name, nil
}

// discardImage は失敗時や差し替え時の後始末で、エラーは呼び出し元に返しません。
func (s *Service) discardImage(ctx context.Context, name string) {
	if name == "" || s.images == nil {
		return
	}
	_ = s.images.Remove(ctx, name)
}

// resolveImages は更新後の画像参照を決めます。送信値は現在の参照か空文字のみ受け付けます。
func resolveImages(saved string, submitted, current *string) (*string, error) {
	switch {
	case saved != "":
		return &saved, nil
	case submitted == nil:
		return current, nil
	case *submitted == "":
		return nil, nil
	case current != nil && *submitted == *current:
		return current, nil
	default:
		return nil, &ValidationError{Fields: map[string]string{"Images": "Images must be empty or reference the current image"}}
	}
}

func buildListFilter(in ListEmployeesInput) (ListEmployeesFilter, error) {
	pageNumber := in.PageNumber
	switch {
	case pageNumber < 0:
		return ListEmployeesFilter{}, ErrInvalidPageNumber
	case pageNumber == 0:
		pageNumber = defaultPageNumber
	}

	pageSize := in.PageSize
	switch {
	case pageSize < 0, pageSize > maxPageSize:
		return ListEmployeesFilter{}, ErrInvalidPageSize
	case pageSize == 0:
		pageSize = defaultPageSize
	}

	column, err := ParseSortColumn(in.SortColumn)
	if err != nil {
		return ListEmployeesFilter{}, err
	}

	direction, err := ParseSortDirection(in.SortDirection)
	if err != nil {
		return ListEmployeesFilter{}, err
	}

	if in.FromDate != nil && in.ToDate != nil && in.FromDate.After(*in.ToDate) {
		return ListEmployeesFilter{}, ErrInvalidDateRange
	}

	var search *string
	if term := strings.TrimSpace(in.SearchTerm); term != "" {
		search = &term
	}

	return ListEmployeesFilter{
		FromDate:      cloneTime(in.FromDate),
		ToDate:        cloneTime(in.ToDate),
		PageSize:      pageSize,
		PageNumber:    pageNumber,
		SortColumn:    column,
		SortDirection: direction,
		SearchTerm:    search,
	}, nil
}

func toEntity(id int64, f Fields) *Employee {
	return &Employee{
		ID:          id,
		Name:        f.Name,
		Gender:      f.Gender,
		Email:       f.Email,
		Password:    f.Password,
		PhoneNo:     f.PhoneNo,
		Address:     f.Address,
		Occupation:  f.Occupation,
		DateOfBirth: f.DateOfBirth,
		Images:      f.Images,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
