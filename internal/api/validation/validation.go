package validation

import (
	"strconv"
	"strings"

	"github.com/daap14/imsweb/internal/backend"
	"github.com/daap14/imsweb/internal/session"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ItemForm holds the raw item fields as submitted by a form or JSON body.
type ItemForm struct {
	Name        string
	Description string
	Quantity    string
	Price       string
}

// ParseItem converts an item form into a backend item. Range checks are left
// to the backend.
func ParseItem(f ItemForm) (backend.ItemInput, []FieldError) {
	var errs []FieldError
	in := backend.ItemInput{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
	}

	if in.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(in.Name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if q := strings.TrimSpace(f.Quantity); q == "" {
		errs = append(errs, FieldError{Field: "quantity", Message: "quantity is required"})
	} else if n, err := strconv.Atoi(q); err != nil {
		errs = append(errs, FieldError{Field: "quantity", Message: "quantity must be a whole number"})
	} else {
		in.Quantity = n
	}

	if p := strings.TrimSpace(f.Price); p == "" {
		errs = append(errs, FieldError{Field: "price", Message: "price is required"})
	} else if v, err := strconv.ParseFloat(p, 64); err != nil {
		errs = append(errs, FieldError{Field: "price", Message: "price must be a number"})
	} else {
		in.Price = v
	}

	return in, errs
}

// UserForm holds the raw user fields. Existing marks an update, where an
// empty password keeps the current one.
type UserForm struct {
	Username string
	Password string
	Role     string
	Existing bool
}

// ParseUser converts a user form into a backend user. An empty role
// defaults to USER.
func ParseUser(f UserForm) (backend.UserInput, []FieldError) {
	var errs []FieldError
	in := backend.UserInput{
		Username: strings.TrimSpace(f.Username),
		Password: f.Password,
		Role:     strings.ToUpper(strings.TrimSpace(f.Role)),
	}

	if in.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	}

	if in.Password == "" && !f.Existing {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	switch session.Role(in.Role) {
	case "":
		in.Role = string(session.RoleUser)
	case session.RoleAdmin, session.RoleUser:
	default:
		errs = append(errs, FieldError{Field: "role", Message: "role must be one of: ADMIN, USER"})
	}

	return in, errs
}

// ParseCredentials validates a login form.
func ParseCredentials(username, password string) (backend.Credentials, []FieldError) {
	var errs []FieldError
	creds := backend.Credentials{Username: strings.TrimSpace(username), Password: password}

	if creds.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	}
	if creds.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return creds, errs
}

// ParseID parses a positive numeric path identifier.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Summary joins field messages into one line for display.
func Summary(errs []FieldError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
