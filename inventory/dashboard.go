package inventory

import (
	"context"

	"github.com/jrsteele09/go-inventory-console/users"
	"golang.org/x/sync/errgroup"
)

// DashboardData is everything the dashboards render on load
type DashboardData struct {
	Profile *users.Profile
	Offices []Office
	Stats   *Stats
}

// Dashboard fetches the profile, offices and stats in parallel. The first
// failure cancels the others.
func (s *Service) Dashboard(ctx context.Context) (*DashboardData, error) {
	var data DashboardData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.Staff.Profile(ctx)
		data.Profile = p
		return err
	})
	g.Go(func() error {
		o, err := s.Offices.List(ctx)
		data.Offices = o
		return err
	})
	g.Go(func() error {
		st, err := s.Records.Stats(ctx)
		data.Stats = st
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}
