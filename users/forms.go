package users

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-todo-client/apimodel"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/internal/utils"
	"github.com/jrsteele09/go-todo-client/tasks"
)

// PasswordMismatchMessage is shown when the two password fields differ.
const PasswordMismatchMessage = "Passwords do not match"

type LoginForm struct {
	Email    string `label:"Email" validate:"required,email"`
	Password string `label:"Password" validate:"required"`
}

type RegistrationForm struct {
	Email           string `label:"Email" validate:"required,email"`
	FirstName       string `label:"First name" validate:"max=150"`
	LastName        string `label:"Last name" validate:"max=150"`
	Password        string `label:"Password" validate:"required"`
	ConfirmPassword string `label:"Password confirmation" validate:"required"`
}

// Request builds the API body. The e-mail address is the username.
func (f RegistrationForm) Request() apimodel.RegisterRequest {
	return apimodel.RegisterRequest{
		Username:  strings.TrimSpace(f.Email),
		Password:  f.Password,
		FirstName: f.FirstName,
		LastName:  f.LastName,
	}
}

type PasswordResetForm struct {
	Email string `label:"Email" validate:"required,email"`
}

type PasswordResetConfirmForm struct {
	NewPassword     string `label:"Password" validate:"required"`
	ConfirmPassword string `label:"Password confirmation" validate:"required"`
}

func (f PasswordResetConfirmForm) Request() apimodel.PasswordResetConfirmRequest {
	return apimodel.PasswordResetConfirmRequest{
		NewPassword1: f.NewPassword,
		NewPassword2: f.ConfirmPassword,
	}
}

type TaskForm struct {
	Title    string `label:"Title" validate:"required,max=200"`
	Deadline string `label:"Deadline" validate:"required,datetime=2006-01-02"`
}

func (f TaskForm) CreateRequest() (tasks.CreateRequest, error) {
	deadline, err := tasks.ParseDate(f.Deadline)
	if err != nil {
		return tasks.CreateRequest{}, err
	}
	return tasks.CreateRequest{Title: strings.TrimSpace(f.Title), Deadline: deadline}, nil
}

func (f TaskForm) UpdateRequest() (tasks.UpdateRequest, error) {
	req, err := f.CreateRequest()
	if err != nil {
		return tasks.UpdateRequest{}, err
	}
	return tasks.UpdateRequest{Title: utils.Ptr(req.Title), Deadline: utils.Ptr(req.Deadline)}, nil
}

// PasswordsMatch is checked before any request is sent.
func PasswordsMatch(password, confirm string) error {
	if password != confirm {
		return todoerrors.ErrPasswordsDontMatch
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			if label := field.Tag.Get("label"); label != "" {
				return label
			}
			return field.Name
		})
	})
	return validate
}

// ValidationError carries the message for the first invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks a form against its tags and returns a *ValidationError
// describing the first failure.
func Validate(form any) error {
	err := formValidator().Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !todoerrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.StructField(), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Enter a valid email address"
	case "datetime":
		return fe.Field() + " must be a date (YYYY-MM-DD)"
	case "max":
		return fe.Field() + " is too long"
	}
	return fe.Field() + " is invalid"
}
