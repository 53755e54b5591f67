package orders

import (
	"context"
	"strings"

	"github.com/BearBump/CarTrace/internal/broker/messages"
	"github.com/BearBump/CarTrace/internal/models"
	"github.com/BearBump/CarTrace/internal/validate"
	"github.com/pkg/errors"
)

func validateRoutePoint(label string, lat, lng float64, typ models.RoutePointType) error {
	if !validate.Label(label) {
		return errors.Wrap(models.ErrInvalidInput, "label must be 2-80 chars")
	}
	if !validate.LatLng(lat, lng) {
		return errors.Wrap(models.ErrInvalidInput, "lat/lng out of range")
	}
	if !typ.Valid() {
		return errors.Wrapf(models.ErrInvalidInput, "unknown route point type %q", typ)
	}
	return nil
}

// AddRoutePoint добавляет точку маршрута. Для type=current хранилище
// атомарно разжалует прежнюю текущую точку.
func (s *Service) AddRoutePoint(ctx context.Context, orderID, label string, lat, lng float64, typ models.RoutePointType) (*models.RoutePoint, error) {
	label = strings.TrimSpace(label)
	if err := validateRoutePoint(label, lat, lng, typ); err != nil {
		return nil, err
	}

	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.AddRoutePoint(ctx, orderID, label, lat, lng, typ)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonRouteChanged)
	return p, nil
}

func (s *Service) UpdateRoutePoint(ctx context.Context, orderID, pointID, label string, lat, lng float64, typ models.RoutePointType) error {
	label = strings.TrimSpace(label)
	if err := validateRoutePoint(label, lat, lng, typ); err != nil {
		return err
	}

	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateRoutePoint(ctx, orderID, pointID, label, lat, lng, typ); err != nil {
		return err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonRouteChanged)
	return nil
}

func (s *Service) SetCurrentRoutePoint(ctx context.Context, orderID, pointID string) error {
	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.SetCurrentRoutePoint(ctx, orderID, pointID); err != nil {
		return err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonRouteChanged)
	return nil
}

func (s *Service) DeleteRoutePoint(ctx context.Context, orderID, pointID string) error {
	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRoutePoint(ctx, orderID, pointID); err != nil {
		return err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonRouteChanged)
	return nil
}
