package handler

import (
	"errors"
	"maps"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/form"

	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
)

const imageField = "image"

// employeeForm は登録・更新フォームの値です。
type employeeForm struct {
	ID          string  `form:"id"`
	Name        string  `form:"name"`
	Gender      string  `form:"gender"`
	Email       string  `form:"email"`
	Password    string  `form:"password"`
	PhoneNo     string  `form:"phoneNo"`
	Address     string  `form:"address"`
	Occupation  string  `form:"occupation"`
	DateOfBirth string  `form:"dateOfBirth"`
	Images      *string `form:"images"`
}

type listQuery struct {
	FromDate      string `form:"fromDate"`
	ToDate        string `form:"toDate"`
	PageNumber    string `form:"pageNumber"`
	PageSize      string `form:"pageSize"`
	SortColumn    string `form:"sortColumn"`
	SortDirection string `form:"sortDirection"`
	SearchTerm    string `form:"searchTerm"`
}

type loginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func newFormDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("form")
	return d
}

// camelKeys はキーの先頭文字を小文字にそろえます。Name と name を同じ項目として扱います。
func camelKeys(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		if k == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(k)
		key := string(unicode.ToLower(r)) + k[size:]
		out[key] = append(out[key], v...)
	}
	return out
}

// parseEmployeeRequest はフォームと任意の画像ファイルを読み取ります。
// 戻り値の closer は画像の読み取りが終わった後に呼び出します。
func parseEmployeeRequest(w http.ResponseWriter, r *http.Request, decoder *form.Decoder, maxBytes int64) (*employeeForm, *employee.Image, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, nil, noop, classifyBodyError(err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, nil, noop, classifyBodyError(err)
	}

	var f employeeForm
	if err := decoder.Decode(&f, camelKeys(r.Form)); err != nil {
		return nil, nil, noop, &employee.ValidationError{Fields: map[string]string{"Form": "Form values could not be read"}}
	}

	file, header, err := formFile(r)
	if err != nil {
		return nil, nil, noop, err
	}
	if file == nil {
		return &f, nil, noop, nil
	}

	closer := func() { _ = file.Close() }
	return &f, &employee.Image{Filename: header.Filename, Content: file}, closer, nil
}

func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}
	for _, name := range []string{imageField, "Image"} {
		file, header, err := r.FormFile(name)
		switch {
		case err == nil:
			if header.Size == 0 {
				_ = file.Close()
				return nil, nil, nil
			}
			return file, header, nil
		case errors.Is(err, http.ErrMissingFile):
			continue
		default:
			return nil, nil, classifyBodyError(err)
		}
	}
	return nil, nil, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func classifyBodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) ||
		strings.Contains(err.Error(), "request body too large") {
		return errRequestTooLarge
	}
	return &employee.ValidationError{Fields: map[string]string{"Form": "Form values could not be read"}}
}

func (f *employeeForm) fields() (employee.Fields, error) {
	out := employee.Fields{
		Name:       f.Name,
		Gender:     f.Gender,
		Email:      f.Email,
		Password:   f.Password,
		PhoneNo:    f.PhoneNo,
		Address:    f.Address,
		Occupation: f.Occupation,
		Images:     f.Images,
	}

	dob, err := parseDate(f.DateOfBirth)
	if err == nil {
		out.DateOfBirth = dob
		return out, nil
	}

	// 日付以外の項目エラーも合わせて返します。
	fieldErrs := map[string]string{}
	var verr *employee.ValidationError
	if errors.As(employee.ValidateFields(out), &verr) {
		maps.Copy(fieldErrs, verr.Fields)
	}
	fieldErrs["DateOfBirth"] = "DateOfBirth is invalid"
	return employee.Fields{}, &employee.ValidationError{Fields: fieldErrs}
}

func (q listQuery) input() (employee.ListEmployeesInput, error) {
	in := employee.ListEmployeesInput{
		SortColumn:    q.SortColumn,
		SortDirection: q.SortDirection,
		SearchTerm:    q.SearchTerm,
	}

	if q.FromDate != "" {
		from, err := parseDate(q.FromDate)
		if err != nil {
			return in, employee.ErrInvalidDateRange
		}
		in.FromDate = &from
	}
	if q.ToDate != "" {
		to, err := parseDate(q.ToDate)
		if err != nil {
			return in, employee.ErrInvalidDateRange
		}
		if isDateOnly(q.ToDate) {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		in.ToDate = &to
	}

	var err error
	if in.PageNumber, err = parseOptionalInt(q.PageNumber); err != nil {
		return in, employee.ErrInvalidPageNumber
	}
	if in.PageSize, err = parseOptionalInt(q.PageSize); err != nil {
		return in, employee.ErrInvalidPageSize
	}
	return in, nil
}

func parseOptionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, employee.ErrInvalidID
	}
	return id, nil
}

var dateLayouts = []string{dateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// parseDate は日付のみ、または日時の文字列を UTC として解釈します。空文字はゼロ値です。
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unsupported date format")
}

func isDateOnly(raw string) bool {
	_, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	return err == nil
}
