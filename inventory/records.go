package inventory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	"github.com/jrsteele09/go-inventory-console/internal/validation"
)

const (
	PathRecords = "/api/inventory/"
	PathStats   = "/api/inventory/stats/"
)

// Records are the per-office inventory rows
type Records struct {
	client *apiclient.Client
}

// List fetches one page; pages start at 1
func (r *Records) List(ctx context.Context, page int) (*Page[Record], error) {
	if page < 1 {
		page = 1
	}
	var out Page[Record]
	query := url.Values{"page": {strconv.Itoa(page)}}
	if err := r.client.GetJSON(ctx, PathRecords, query, &out); err != nil {
		return nil, fmt.Errorf("[Records List] page %d: %w", page, err)
	}
	return &out, nil
}

func (r *Records) Create(ctx context.Context, in RecordInput) (*Record, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out Record
	if err := r.client.SendJSON(ctx, http.MethodPost, PathRecords, in, &out); err != nil {
		return nil, fmt.Errorf("[Records Create] %w", err)
	}
	return &out, nil
}

func (r *Records) Update(ctx context.Context, id int, in RecordInput) (*Record, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out Record
	if err := r.client.SendJSON(ctx, http.MethodPut, fmt.Sprintf("%s%d/", PathRecords, id), in, &out); err != nil {
		return nil, fmt.Errorf("[Records Update] %d: %w", id, err)
	}
	return &out, nil
}

func (r *Records) Delete(ctx context.Context, id int) error {
	if err := r.client.SendJSON(ctx, http.MethodDelete, fmt.Sprintf("%s%d/", PathRecords, id), nil, nil); err != nil {
		return fmt.Errorf("[Records Delete] %d: %w", id, err)
	}
	return nil
}

func (r *Records) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := r.client.GetJSON(ctx, PathStats, nil, &out); err != nil {
		return nil, fmt.Errorf("[Records Stats] %w", err)
	}
	return &out, nil
}
