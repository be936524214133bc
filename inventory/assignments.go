package inventory

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/users"
)

const PathRemoveAssignment = "/api/users/remove-office-assignment/"

// Assignments links staff users to the offices they work with
type Assignments struct {
	client *apiclient.Client
}

type assignedOffices struct {
	AssignedOffices []users.OfficeRef `json:"assigned_offices"`
}

type assignRequest struct {
	AssignedOffices []int `json:"assigned_offices"`
}

type removeRequest struct {
	OfficeID int `json:"office_id"`
	UserID   int `json:"user_id"`
}

// AssignResult is the backend's reply to an assignment change
type AssignResult struct {
	Message string `json:"message,omitempty"`
}

func assignPath(userID int) string {
	return fmt.Sprintf("/api/users/assign-offices/%d/", userID)
}

// Get lists the offices currently assigned to userID
func (a *Assignments) Get(ctx context.Context, userID int) ([]users.OfficeRef, error) {
	var out assignedOffices
	if err := a.client.GetJSON(ctx, assignPath(userID), nil, &out); err != nil {
		return nil, fmt.Errorf("[Assignments Get] user %d: %w", userID, err)
	}
	return out.AssignedOffices, nil
}

// Assign adds officeIDs to the user's assignments
func (a *Assignments) Assign(ctx context.Context, userID int, officeIDs []int) (*AssignResult, error) {
	if userID <= 0 || len(officeIDs) == 0 {
		return nil, fmt.Errorf("%w: select a user and at least one office", apperrors.ErrValidation)
	}
	var out AssignResult
	if err := a.client.SendJSON(ctx, http.MethodPost, assignPath(userID), assignRequest{AssignedOffices: officeIDs}, &out); err != nil {
		return nil, fmt.Errorf("[Assignments Assign] user %d: %w", userID, err)
	}
	return &out, nil
}

// Remove drops one office from the user's assignments
func (a *Assignments) Remove(ctx context.Context, userID, officeID int) (*AssignResult, error) {
	if userID <= 0 || officeID <= 0 {
		return nil, fmt.Errorf("%w: select a user and an office", apperrors.ErrValidation)
	}
	var out AssignResult
	if err := a.client.SendJSON(ctx, http.MethodPost, PathRemoveAssignment, removeRequest{OfficeID: officeID, UserID: userID}, &out); err != nil {
		return nil, fmt.Errorf("[Assignments Remove] user %d office %d: %w", userID, officeID, err)
	}
	return &out, nil
}

// Diff compares the current assignment with the wanted office ids. Both
// results are sorted and free of duplicates.
func Diff(current []users.OfficeRef, wanted []int) (add, drop []int) {
	have := make(map[int]bool, len(current))
	for _, ref := range current {
		if ref.ID > 0 {
			have[ref.ID] = true
		}
	}
	want := make(map[int]bool, len(wanted))
	for _, id := range wanted {
		if id > 0 {
			want[id] = true
		}
	}

	for id := range want {
		if !have[id] {
			add = append(add, id)
		}
	}
	for id := range have {
		if !want[id] {
			drop = append(drop, id)
		}
	}
	slices.Sort(add)
	slices.Sort(drop)
	return add, drop
}

// Available lists the offices not yet assigned to anyone, except that a
// super admin may be given any office.
func Available(offices []Office, target users.StaffUser, everyone []users.StaffUser) []Office {
	if target.Role == users.RoleSuperAdmin {
		return offices
	}
	taken := make(map[int]bool)
	for _, u := range everyone {
		for _, ref := range u.AssignedOffices {
			taken[ref.ID] = true
		}
	}
	for _, ref := range target.AssignedOffices {
		taken[ref.ID] = true
	}

	var out []Office
	for _, o := range offices {
		if !taken[o.ID] {
			out = append(out, o)
		}
	}
	return out
}
