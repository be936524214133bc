package inventory

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strconv"

	"github.com/jrsteele09/go-inventory-console/apiclient"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
)

const spreadsheetType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Files are the spreadsheet template, export, import and broadsheet endpoints
type Files struct {
	client *apiclient.Client
}

// ImportResult is the backend's reply to an import
type ImportResult struct {
	Message  string `json:"message,omitempty"`
	Imported int    `json:"imported,omitempty"`
}

// Template downloads the blank import template for an office
func (f *Files) Template(ctx context.Context, officeID int) (*File, error) {
	if officeID <= 0 {
		return nil, fmt.Errorf("%w: select an office", apperrors.ErrValidation)
	}
	return f.download(ctx, fmt.Sprintf("/api/template/%d/", officeID), nil, fmt.Sprintf("office_%d_template.xlsx", officeID))
}

// Export downloads the office's current inventory
func (f *Files) Export(ctx context.Context, officeID int) (*File, error) {
	if officeID <= 0 {
		return nil, fmt.Errorf("%w: select an office", apperrors.ErrValidation)
	}
	query := url.Values{"office_id": {strconv.Itoa(officeID)}}
	return f.download(ctx, "/api/export/", query, fmt.Sprintf("office_%d_inventory.xlsx", officeID))
}

// Broadsheet downloads the yearly report across every office
func (f *Files) Broadsheet(ctx context.Context, year int) (*File, error) {
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d is out of range", apperrors.ErrValidation, year)
	}
	query := url.Values{"year": {strconv.Itoa(year)}}
	return f.download(ctx, "/api/broadsheet/", query, fmt.Sprintf("broadsheet_%d.xlsx", year))
}

// Import uploads a filled template for an office
func (f *Files) Import(ctx context.Context, officeID int, name string, content io.Reader) (*ImportResult, error) {
	if officeID <= 0 {
		return nil, fmt.Errorf("%w: select an office", apperrors.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: choose a file to import", apperrors.ErrValidation)
	}
	query := url.Values{"office_id": {strconv.Itoa(officeID)}}
	var out ImportResult
	if err := f.client.Upload(ctx, "/api/import/", query, "file", path.Base(name), content, &out); err != nil {
		return nil, fmt.Errorf("[Files Import] office %d: %w", officeID, err)
	}
	return &out, nil
}

func (f *Files) download(ctx context.Context, p string, query url.Values, fallback string) (*File, error) {
	resp, err := f.client.Download(ctx, p, query)
	if err != nil {
		return nil, fmt.Errorf("[Files download] %s: %w", p, err)
	}

	file := &File{
		Name:        fallback,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        resp.Body,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := path.Base(params["filename"]); params["filename"] != "" && name != "." && name != "/" {
			file.Name = name
		}
	}
	if file.ContentType == "" {
		file.ContentType = spreadsheetType
	}
	return file, nil
}
