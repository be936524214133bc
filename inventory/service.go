// Package inventory holds the typed REST resources behind the console screens.
// Inputs are validated before any network call; the backend remains the
// authority on every rule.
package inventory

import (
	"github.com/jrsteele09/go-inventory-console/apiclient"
)

// Service bundles every resource over one API client
type Service struct {
	Offices     *Offices
	Items       *Items
	Records     *Records
	Staff       *Staff
	Assignments *Assignments
	Files       *Files
}

func NewService(client *apiclient.Client) *Service {
	return &Service{
		Offices:     &Offices{client: client},
		Items:       &Items{client: client},
		Records:     &Records{client: client},
		Staff:       &Staff{client: client},
		Assignments: &Assignments{client: client},
		Files:       &Files{client: client},
	}
}
