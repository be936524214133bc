package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Profile is the signed-in user's view of themselves (GET /api/users/profile/)
type Profile struct {
	Username        string      `json:"username"`
	Email           string      `json:"email"`
	Organization    string      `json:"organization,omitempty"`
	AssignedOffices []OfficeRef `json:"assigned_offices"`
	ProfilePicture  string      `json:"profile_picture,omitempty"`
}

// OfficeRef is an assigned office as returned by the backend. Depending on the
// endpoint it arrives as an id, a name, or an object with both.
type OfficeRef struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (o *OfficeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if id, err := strconv.Atoi(s); err == nil {
			o.ID = id
			return nil
		}
		o.Name = s
		return nil
	case data[0] == '{':
		type plain OfficeRef
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*o = OfficeRef(p)
		return nil
	default:
		id, err := strconv.Atoi(string(data))
		if err != nil {
			return fmt.Errorf("office reference %s: %w", data, err)
		}
		o.ID = id
		return nil
	}
}

// Display returns the best available label for the office
func (o OfficeRef) Display() string {
	if o.Name != "" {
		return o.Name
	}
	return "Office #" + strconv.Itoa(o.ID)
}

// StaffUser is a user record as listed by user management
type StaffUser struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Organization string `json:"organization,omitempty"`
	Role         Role   `json:"role,omitempty"`

	AssignedOffices []OfficeRef `json:"assigned_offices,omitempty"`
}

// DisplayName prefers the full name over the username
func (u StaffUser) DisplayName() string {
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		return full
	}
	return u.Username
}

// Registration is the payload for POST /api/users/register/
type Registration struct {
	Username     string  `json:"username" validate:"required,max=150"`
	FirstName    string  `json:"first_name" validate:"max=150"`
	LastName     string  `json:"last_name" validate:"max=150"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required"`
	Organization *string `json:"organization,omitempty"`
	Role         Role    `json:"role,omitempty" validate:"omitempty,oneof=super_admin admin staff"`
}

// StaffUpdate is the payload for PUT /api/users/update/{id}/
type StaffUpdate struct {
	Username     string `json:"username" validate:"required,max=150"`
	FirstName    string `json:"first_name" validate:"max=150"`
	LastName     string `json:"last_name" validate:"max=150"`
	Email        string `json:"email" validate:"required,email"`
	Organization string `json:"organization,omitempty"`
	Role         Role   `json:"role,omitempty" validate:"omitempty,oneof=super_admin admin staff"`
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
