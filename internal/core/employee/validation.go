package employee

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern  = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Fields は登録・更新で共通の入力項目です。
type Fields struct {
	Name        string    `validate:"required"`
	Gender      string    `validate:"required"`
	Email       string    `validate:"required,employee_email"`
	Password    string    `validate:"required"`
	PhoneNo     string    `validate:"required,digits"`
	Address     string    `validate:"required"`
	Occupation  string    `validate:"required"`
	DateOfBirth time.Time `validate:"required"`
	Images      *string
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("employee_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsPattern.MatchString(fl.Field().String())
	})
	return v
}

var defaultValidator = newValidator()

// ValidateFields は入力項目を正規化したうえで検証します。
func ValidateFields(in Fields) error {
	return validateFields(defaultValidator, normalizeFields(in))
}

func normalizeFields(in Fields) Fields {
	out := in
	out.Name = strings.TrimSpace(in.Name)
	out.Gender = strings.TrimSpace(in.Gender)
	out.Email = strings.TrimSpace(in.Email)
	out.PhoneNo = strings.TrimSpace(in.PhoneNo)
	out.Address = strings.TrimSpace(in.Address)
	out.Occupation = strings.TrimSpace(in.Occupation)
	if !in.DateOfBirth.IsZero() {
		out.DateOfBirth = normalizeDate(in.DateOfBirth)
	}
	if in.Images != nil {
		images := strings.TrimSpace(*in.Images)
		out.Images = &images
	}
	return out
}

func validateFields(v *validator.Validate, in Fields) error {
	err := v.Struct(&in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = validationMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "employee_email":
		return "Invalid email address"
	case "digits":
		return "Phone number must contain only numbers"
	default:
		return fe.Field() + " is invalid"
	}
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
