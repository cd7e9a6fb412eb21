package auth

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

var usernameCharset = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// NewIdentity is the input for creating an account.
type NewIdentity struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Phone    string `json:"phone" validate:"required,number,min=10,max=15"`
	// Admin-created accounts may omit the password and receive a temporary one.
	Password string `json:"password" validate:"required_if=SelfRegistered true,password"`
	Role     string `json:"role" validate:"required,role"`
	// SelfRegistered accounts start pending and inactive with the employee role.
	SelfRegistered bool `json:"-"`
}

type profileUpdate struct {
	FullName string `json:"fullName" validate:"max=100"`
	Phone    string `json:"phone" validate:"omitempty,number,min=10,max=15"`
}

type passwordChange struct {
	NewPassword string `json:"newPassword" validate:"required,password"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameCharset.MatchString(fl.Field().String())
	}))
	// Presence is checked by required/required_if; an empty password passes here.
	must(v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		return password == "" || passwordProblem(password) == ""
	}))
	must(v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := ParseRole(fl.Field().String())
		return ok
	}))
	return v
}

// fieldErrors runs the validator over s and translates its failures into field details.
func fieldErrors(s any) []apperr.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return []apperr.FieldError{{Message: err.Error()}}
	}
	fields := make([]apperr.FieldError, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return fields
}

var fieldLabels = map[string]string{
	"fullName":    "full name",
	"email":       "email",
	"username":    "username",
	"phone":       "phone number",
	"password":    "password",
	"newPassword": "password",
	"role":        "role",
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required", "required_if":
		return label + " is required"
	case "email":
		return "invalid email format"
	case "username":
		return "username must be 3-20 characters with only letters, numbers and underscores"
	case "number":
		return label + " must contain digits only"
	case "password":
		return passwordProblem(fmt.Sprint(fe.Value()))
	case "role":
		return "role must be one of: " + strings.Join(roleNames(), ", ")
	case "max":
		if fe.Field() == "phone" {
			return "phone number must be 10-15 digits"
		}
		return fmt.Sprintf("%s cannot exceed %s characters", label, fe.Param())
	case "min":
		if fe.Field() == "phone" {
			return "phone number must be 10-15 digits"
		}
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	}
	return label + " is invalid"
}

func roleNames() []string {
	names := make([]string, len(Roles))
	for i, role := range Roles {
		names[i] = string(role)
	}
	return names
}

func (n *NewIdentity) normalize() {
	n.FullName = strings.TrimSpace(n.FullName)
	n.Email = normalizeEmail(n.Email)
	n.Username = strings.TrimSpace(n.Username)
	n.Phone = strings.TrimSpace(n.Phone)
	if n.SelfRegistered {
		n.Role = string(RoleEmployee)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (n *NewIdentity) validate() []apperr.FieldError {
	return fieldErrors(n)
}

// passwordProblem returns a description of why password is unacceptable, or "".
func passwordProblem(password string) string {
	if password == "" {
		return "password is required"
	}
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	if len(password) > maxPasswordBytes {
		return fmt.Sprintf("password cannot exceed %d bytes", maxPasswordBytes)
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return "password must contain at least one uppercase letter, one lowercase letter, and one number"
	}
	return ""
}
