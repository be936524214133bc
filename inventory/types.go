package inventory

import (
	"bytes"
	"encoding/json"
)

type Office struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

type OfficeInput struct {
	Name       string `json:"name" validate:"required,max=255"`
	Department string `json:"department" validate:"max=255"`
}

type Item struct {
	ItemID      int    `json:"item_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ItemInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

// Record is one office's holding of one register item
type Record struct {
	ID         int    `json:"id"`
	OfficeID   int    `json:"office_id"`
	ItemID     int    `json:"item_id"`
	Quantity   int    `json:"quantity"`
	Remarks    string `json:"remarks"`
	OfficeName string `json:"office_name,omitempty"`
	ItemName   string `json:"item_name,omitempty"`
}

type RecordInput struct {
	OfficeID int    `json:"office_id" validate:"gt=0"`
	ItemID   int    `json:"item_id" validate:"gt=0"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Remarks  string `json:"remarks"`
}

// Page is a paginated list. A bare JSON array decodes as a single page.
type Page[T any] struct {
	Results  []T    `json:"results"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Count    int    `json:"count"`
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var results []T
		if err := json.Unmarshal(data, &results); err != nil {
			return err
		}
		*p = Page[T]{Results: results, Count: len(results)}
		return nil
	}

	type plain struct {
		Results  []T     `json:"results"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Count    int     `json:"count"`
	}
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Page[T]{Results: raw.Results, Count: raw.Count}
	if raw.Next != nil {
		p.Next = *raw.Next
	}
	if raw.Previous != nil {
		p.Previous = *raw.Previous
	}
	return nil
}

// HasNext reports whether the backend advertised another page
func (p Page[T]) HasNext() bool {
	return p.Next != ""
}

func (p Page[T]) HasPrevious() bool {
	return p.Previous != ""
}

type StatItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Stats is the aggregate report behind the dashboard cards
type Stats struct {
	TotalItems   int       `json:"totalItems"`
	LargestItem  *StatItem `json:"largestItem"`
	SmallestItem *StatItem `json:"smallestItem"`
}

// File is a downloaded spreadsheet
type File struct {
	Name        string
	ContentType string
	Data        []byte
}
