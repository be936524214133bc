package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/internal/validation"
	"github.com/jrsteele09/go-inventory-console/users"
)

const (
	PathProfile  = "/api/users/profile/"
	PathAllStaff = "/api/users/all-staff/"
	PathRegister = apiclient.PathRegister
)

// Staff is user management plus the signed-in user's profile
type Staff struct {
	client *apiclient.Client
}

// staffList accepts {"users": [...]} or a bare array
type staffList []users.StaffUser

func (s *staffList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]users.StaffUser)(s))
	}
	var wrapped struct {
		Users []users.StaffUser `json:"users"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*s = wrapped.Users
	return nil
}

func (s *Staff) List(ctx context.Context) ([]users.StaffUser, error) {
	var out staffList
	if err := s.client.GetJSON(ctx, PathAllStaff, nil, &out); err != nil {
		return nil, fmt.Errorf("[Staff List] %w", err)
	}
	return out, nil
}

// Create registers a user on behalf of an administrator
func (s *Staff) Create(ctx context.Context, reg users.Registration) (*users.StaffUser, error) {
	if err := validation.Struct(reg); err != nil {
		return nil, err
	}
	if err := users.ValidatePasswordStrength(reg.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	var out users.StaffUser
	if err := s.client.SendJSON(ctx, http.MethodPost, PathRegister, reg, &out); err != nil {
		return nil, fmt.Errorf("[Staff Create] %w", err)
	}
	return &out, nil
}

func (s *Staff) Update(ctx context.Context, id int, in users.StaffUpdate) (*users.StaffUser, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out users.StaffUser
	if err := s.client.SendJSON(ctx, http.MethodPut, fmt.Sprintf("/api/users/update/%d/", id), in, &out); err != nil {
		return nil, fmt.Errorf("[Staff Update] %d: %w", id, err)
	}
	return &out, nil
}

func (s *Staff) Delete(ctx context.Context, id int) error {
	if err := s.client.SendJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/users/delete/%d/", id), nil, nil); err != nil {
		return fmt.Errorf("[Staff Delete] %d: %w", id, err)
	}
	return nil
}

func (s *Staff) Profile(ctx context.Context) (*users.Profile, error) {
	var out users.Profile
	if err := s.client.GetJSON(ctx, PathProfile, nil, &out); err != nil {
		return nil, fmt.Errorf("[Staff Profile] %w", err)
	}
	return &out, nil
}
