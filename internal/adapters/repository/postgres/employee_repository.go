package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-employee-api/internal/platform/db/postgres"
)

const (
	employeeUniqueViolationCode  = "23505"
	employeeCheckViolationCode   = "23514"
	employeeInvalidDatetimeCode  = "22007"
	employeeDatetimeOverflowCode = "22008"
	employeeInvalidParameterCode = "22023"
	employeeNoDataFoundCode      = "P0002"
)

const employeeColumns = `id, name, gender, email, phone_no, address, occupation, date_of_birth, creation_date, images`

var sortColumnNames = map[employee.SortColumn]string{
	employee.SortByID:           "id",
	employee.SortByName:         "name",
	employee.SortByGender:       "gender",
	employee.SortByEmail:        "email",
	employee.SortByPhoneNo:      "phone_no",
	employee.SortByAddress:      "address",
	employee.SortByOccupation:   "occupation",
	employee.SortByDateOfBirth:  "date_of_birth",
	employee.SortByCreationDate: "creation_date",
}

// EmployeeRepository は社員用ストアドファンクションを呼び出す PostgreSQL 実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// List は get_employees を呼び出し、ページと総件数を返します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, int64, error) {
	column, ok := sortColumnNames[filter.SortColumn]
	if !ok {
		return nil, 0, employee.ErrInvalidSortColumn
	}
	if filter.PageNumber <= 0 {
		return nil, 0, employee.ErrInvalidPageNumber
	}
	if filter.PageSize <= 0 {
		return nil, 0, employee.ErrInvalidPageSize
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+employeeColumns+`, total_count
          FROM get_employees($1::timestamptz, $2::timestamptz, $3::int, $4::int, $5::text, $6::text, $7::text)
    `,
		nullableTime(filter.FromDate),
		nullableTime(filter.ToDate),
		filter.PageSize,
		filter.PageNumber,
		column,
		string(filter.SortDirection),
		nullableString(filter.SearchTerm),
	)
	if err != nil {
		return nil, 0, translateEmployeePgError(err)
	}
	defer rows.Close()

	var total int64
	employees := make([]*employee.Employee, 0, filter.PageSize)
	for rows.Next() {
		emp, count, err := scanEmployeePageRow(rows)
		if err != nil {
			return nil, 0, translateEmployeePgError(err)
		}
		total = count
		if emp != nil {
			employees = append(employees, emp)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateEmployeePgError(err)
	}

	return employees, total, nil
}

// Insert は insert_employee を呼び出し、採番された行を返します。
func (r *EmployeeRepository) Insert(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM insert_employee($1::text, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::date, $9::text)
    `,
		e.Name,
		e.Gender,
		e.Email,
		e.Password,
		e.PhoneNo,
		e.Address,
		e.Occupation,
		dateOnly(e.DateOfBirth),
		nullableString(e.Images),
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は update_employee を呼び出します。対象が無い場合は ErrEmployeeNotFound を返します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM update_employee($1::bigint, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text, $9::date, $10::text)
    `,
		e.ID,
		e.Name,
		e.Gender,
		e.Email,
		e.Password,
		e.PhoneNo,
		e.Address,
		e.Occupation,
		dateOnly(e.DateOfBirth),
		nullableString(e.Images),
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は delete_employee を呼び出します。
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var deleted int
	if err := exec.QueryRow(ctx, `SELECT delete_employee($1::bigint)`, id).Scan(&deleted); err != nil {
		return translateEmployeePgError(err)
	}
	if deleted == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は get_employee_by_id を呼び出します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM get_employee_by_id($1::bigint)
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id           int64
		name         string
		gender       string
		email        string
		phoneNo      string
		address      string
		occupation   string
		dateOfBirth  time.Time
		creationDate time.Time
		images       sql.NullString
	)

	dest := []any{
		&id,
		&name,
		&gender,
		&email,
		&phoneNo,
		&address,
		&occupation,
		&dateOfBirth,
		&creationDate,
		&images,
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	var imagesPtr *string
	if images.Valid && images.String != "" {
		v := images.String
		imagesPtr = &v
	}

	return &employee.Employee{
		ID:           id,
		Name:         name,
		Gender:       gender,
		Email:        email,
		PhoneNo:      phoneNo,
		Address:      address,
		Occupation:   occupation,
		DateOfBirth:  dateOnly(dateOfBirth),
		CreationDate: creationDate.UTC(),
		Images:       imagesPtr,
	}, nil
}

// scanEmployeePageRow は get_employees の 1 行を読み取ります。
// 該当ページが空の場合は社員列が NULL の件数行だけが返るため、社員は nil になります。
func scanEmployeePageRow(row pgx.Row) (*employee.Employee, int64, error) {
	var (
		id           sql.NullInt64
		name         sql.NullString
		gender       sql.NullString
		email        sql.NullString
		phoneNo      sql.NullString
		address      sql.NullString
		occupation   sql.NullString
		dateOfBirth  any
		creationDate any
		images       sql.NullString
		total        int64
	)

	if err := row.Scan(&id, &name, &gender, &email, &phoneNo, &address, &occupation, &dateOfBirth, &creationDate, &images, &total); err != nil {
		return nil, 0, err
	}
	if !id.Valid {
		return nil, total, nil
	}

	born, _ := dateOfBirth.(time.Time)
	created, _ := creationDate.(time.Time)

	var imagesPtr *string
	if images.Valid && images.String != "" {
		v := images.String
		imagesPtr = &v
	}

	return &employee.Employee{
		ID:           id.Int64,
		Name:         name.String,
		Gender:       gender.String,
		Email:        email.String,
		PhoneNo:      phoneNo.String,
		Address:      address.String,
		Occupation:   occupation.String,
		DateOfBirth:  dateOnly(born),
		CreationDate: created.UTC(),
		Images:       imagesPtr,
	}, total, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case employeeUniqueViolationCode:
			return employee.ErrEmailAlreadyExists
		case employeeCheckViolationCode, employeeInvalidDatetimeCode, employeeDatetimeOverflowCode:
			return fmt.Errorf("%w: %s", employee.ErrValidation, pgErr.Message)
		case employeeInvalidParameterCode:
			return employee.ErrInvalidSortColumn
		case employeeNoDataFoundCode:
			return employee.ErrEmployeeNotFound
		}
	}

	return err
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
