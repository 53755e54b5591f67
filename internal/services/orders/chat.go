package orders

import (
	"context"
	"strings"

	"github.com/BearBump/CarTrace/internal/broker/messages"
	"github.com/BearBump/CarTrace/internal/models"
	"github.com/BearBump/CarTrace/internal/validate"
	"github.com/pkg/errors"
)

const maxMessageLength = 1000

// ListClientMessages — чтение чата клиентом, под кодом доступа.
func (s *Service) ListClientMessages(ctx context.Context, trackingNumber, accessCode, ip string) ([]*models.Message, error) {
	o, err := s.resolveHead(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(ctx, o.TrackingNumber, accessCode, o.AccessCode, ip); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, o.ID)
}

// SendClientMessage — сообщение от клиента, под кодом доступа.
func (s *Service) SendClientMessage(ctx context.Context, trackingNumber, accessCode, ip, text string) (*models.Message, error) {
	normalized, err := normalizeMessageText(text)
	if err != nil {
		return nil, err
	}

	o, err := s.resolveHead(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(ctx, o.TrackingNumber, accessCode, o.AccessCode, ip); err != nil {
		return nil, err
	}

	m, err := s.repo.CreateMessage(ctx, o.ID, models.MessageAuthorClient, normalized)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, o.ID, o.TrackingNumber, messages.ReasonMessageSent)
	return m, nil
}

// ListOrderMessages — чтение чата админом по id заказа, без гейта.
func (s *Service) ListOrderMessages(ctx context.Context, orderID string) ([]*models.Message, error) {
	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, o.ID)
}

func (s *Service) SendAdminMessage(ctx context.Context, orderID, text string) (*models.Message, error) {
	normalized, err := normalizeMessageText(text)
	if err != nil {
		return nil, err
	}

	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.CreateMessage(ctx, o.ID, models.MessageAuthorAdmin, normalized)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, o.ID, o.TrackingNumber, messages.ReasonMessageSent)
	return m, nil
}

func (s *Service) resolveHead(ctx context.Context, trackingNumber string) (*models.Order, error) {
	trackingNumber = validate.NormalizeTrackingNumber(trackingNumber)
	if trackingNumber == "" {
		return nil, errors.Wrap(models.ErrInvalidInput, "trackingNumber is required")
	}
	if !validate.TrackingNumber(trackingNumber, s.opts.DemoTracking) {
		return nil, errors.Wrap(models.ErrInvalidInput, "invalid tracking number")
	}
	return s.repo.GetOrderHeadByTrackingNumber(ctx, trackingNumber)
}

func normalizeMessageText(text string) (string, error) {
	// Сообщение длиннее лимита отклоняем, а не обрезаем молча.
	if len([]rune(strings.TrimSpace(text))) > maxMessageLength {
		return "", errors.Wrap(models.ErrInvalidInput, "message too long")
	}
	normalized := validate.NormalizeText(text, maxMessageLength)
	if normalized == "" {
		return "", errors.Wrap(models.ErrInvalidInput, "message is empty")
	}
	return normalized, nil
}
