package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/geo"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// PropertyService layers geocoding and cascading cleanup over the
// property repository.
type PropertyService struct {
	Properties repository.PropertyRepository
	Units      repository.UnitRepository
	Leases     repository.LeaseRepository
	Media      *MediaService
	Geocoder   geo.Geocoder
}

func validPropertyKind(k string) bool {
	switch k {
	case "apartment", "house", "commercial", "mixed":
		return true
	}
	return false
}

// Create validates and creates a property. Missing coordinates are
// filled by best-effort geocoding of the address.
func (s *PropertyService) Create(ctx context.Context, siteID string, input repository.CreatePropertyInput) (*repository.Property, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	if input.Name == "" || input.Address == "" {
		return nil, fmt.Errorf("%w: name and address are required", repository.ErrInvalidInput)
	}
	if input.Kind == "" {
		input.Kind = "apartment"
	}
	if !validPropertyKind(input.Kind) {
		return nil, fmt.Errorf("%w: invalid kind %q", repository.ErrInvalidInput, input.Kind)
	}

	if input.Lat == nil || input.Lng == nil {
		full := strings.Join(nonEmpty(input.Address, input.City, input.Region, input.PostalCode), ", ")
		if p, ok := s.Geocoder.Geocode(ctx, full); ok {
			input.Lat, input.Lng = &p.Lat, &p.Lng
		}
	}
	return s.Properties.Create(ctx, siteID, input)
}

// Update edits a property, re-geocoding when the address changed and
// no explicit coordinates came along.
func (s *PropertyService) Update(ctx context.Context, siteID, id string, input repository.UpdatePropertyInput) (*repository.Property, error) {
	if input.Kind != nil && !validPropertyKind(*input.Kind) {
		return nil, fmt.Errorf("%w: invalid kind %q", repository.ErrInvalidInput, *input.Kind)
	}
	if input.Status != nil && *input.Status != repository.PropertyActive && *input.Status != repository.PropertyArchived {
		return nil, fmt.Errorf("%w: invalid status %q", repository.ErrInvalidInput, *input.Status)
	}

	if input.Address != nil && input.Lat == nil && input.Lng == nil {
		current, err := s.Properties.GetByID(ctx, siteID, id)
		if err != nil {
			return nil, err
		}
		city, region, postal := current.City, current.Region, current.PostalCode
		if input.City != nil {
			city = *input.City
		}
		if input.Region != nil {
			region = *input.Region
		}
		if input.PostalCode != nil {
			postal = *input.PostalCode
		}
		full := strings.Join(nonEmpty(*input.Address, city, region, postal), ", ")
		if p, ok := s.Geocoder.Geocode(ctx, full); ok {
			input.Lat, input.Lng = &p.Lat, &p.Lng
		}
	}

	if err := s.Properties.Update(ctx, siteID, id, input); err != nil {
		return nil, err
	}
	return s.Properties.GetByID(ctx, siteID, id)
}

// Delete removes a property with everything hanging off it: units,
// their media, and the property's own media. Properties with an active
// lease on any unit refuse to go.
func (s *PropertyService) Delete(ctx context.Context, siteID, id string) error {
	if _, err := s.Properties.GetByID(ctx, siteID, id); err != nil {
		return err
	}
	units, err := s.Units.List(ctx, siteID, repository.ListUnitsFilter{PropertyID: id, Limit: 200})
	if err != nil {
		return err
	}
	for _, u := range units {
		if _, err := s.Leases.ActiveForUnit(ctx, siteID, u.ID); err == nil {
			return fmt.Errorf("%w: unit %s has an active lease", repository.ErrConflict, u.ID)
		}
	}

	// Media cleanup fans out per unit, then the property itself.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, u := range units {
		unitID := u.ID
		g.Go(func() error {
			return s.Media.PurgeEntity(gctx, siteID, repository.EntityUnit, unitID)
		})
	}
	g.Go(func() error {
		return s.Media.PurgeEntity(gctx, siteID, repository.EntityProperty, id)
	})
	if err := g.Wait(); err != nil {
		logger.From(ctx).Warn("media purge incomplete", logger.PropertyID(id), logger.Err(err))
	}

	for _, u := range units {
		if err := s.Units.Delete(ctx, siteID, u.ID); err != nil {
			return err
		}
	}
	logger.From(ctx).Info("property deleted", logger.PropertyID(id), logger.Count(len(units)))
	return s.Properties.Delete(ctx, siteID, id)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
