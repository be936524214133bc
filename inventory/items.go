package inventory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	"github.com/jrsteele09/go-inventory-console/internal/validation"
)

const PathItems = "/api/item-register/"

// Items is the canonical item register
type Items struct {
	client *apiclient.Client
}

func (i *Items) List(ctx context.Context) ([]Item, error) {
	var page Page[Item]
	if err := i.client.GetJSON(ctx, PathItems, nil, &page); err != nil {
		return nil, fmt.Errorf("[Items List] %w", err)
	}
	return page.Results, nil
}

func (i *Items) Create(ctx context.Context, in ItemInput) (*Item, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out Item
	if err := i.client.SendJSON(ctx, http.MethodPost, PathItems, in, &out); err != nil {
		return nil, fmt.Errorf("[Items Create] %w", err)
	}
	return &out, nil
}

func (i *Items) Update(ctx context.Context, id int, in ItemInput) (*Item, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out Item
	if err := i.client.SendJSON(ctx, http.MethodPut, fmt.Sprintf("%s%d/", PathItems, id), in, &out); err != nil {
		return nil, fmt.Errorf("[Items Update] %d: %w", id, err)
	}
	return &out, nil
}

func (i *Items) Delete(ctx context.Context, id int) error {
	if err := i.client.SendJSON(ctx, http.MethodDelete, fmt.Sprintf("%s%d/", PathItems, id), nil, nil); err != nil {
		return fmt.Errorf("[Items Delete] %d: %w", id, err)
	}
	return nil
}
