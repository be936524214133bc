package inventory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	"github.com/jrsteele09/go-inventory-console/internal/validation"
)

const PathOffices = "/api/offices/"

type Offices struct {
	client *apiclient.Client
}

func (o *Offices) List(ctx context.Context) ([]Office, error) {
	var page Page[Office]
	if err := o.client.GetJSON(ctx, PathOffices, nil, &page); err != nil {
		return nil, fmt.Errorf("[Offices List] %w", err)
	}
	return page.Results, nil
}

func (o *Offices) Create(ctx context.Context, in OfficeInput) (*Office, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out Office
	if err := o.client.SendJSON(ctx, http.MethodPost, PathOffices, in, &out); err != nil {
		return nil, fmt.Errorf("[Offices Create] %w", err)
	}
	return &out, nil
}

func (o *Offices) Update(ctx context.Context, id int, in OfficeInput) (*Office, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out Office
	if err := o.client.SendJSON(ctx, http.MethodPut, officePath(id), in, &out); err != nil {
		return nil, fmt.Errorf("[Offices Update] %d: %w", id, err)
	}
	return &out, nil
}

func (o *Offices) Delete(ctx context.Context, id int) error {
	if err := o.client.SendJSON(ctx, http.MethodDelete, officePath(id), nil, nil); err != nil {
		return fmt.Errorf("[Offices Delete] %d: %w", id, err)
	}
	return nil
}

func officePath(id int) string {
	return fmt.Sprintf("%s%d/", PathOffices, id)
}
