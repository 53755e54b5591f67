package orders

import (
	"context"

	"github.com/BearBump/CarTrace/internal/broker/messages"
	"github.com/BearBump/CarTrace/internal/models"
	"github.com/pkg/errors"
)

// UpdateStage — ручная правка этапа админом. Статус любой из допустимых,
// производная "текущего" этапа при этом не участвует.
func (s *Service) UpdateStage(ctx context.Context, orderID, stageID string, status models.StageStatus, dateText, comment string) error {
	if !status.Valid() {
		return errors.Wrapf(models.ErrInvalidInput, "unknown stage status %q", status)
	}
	if dateText == "" {
		dateText = "-"
	}

	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStage(ctx, orderID, stageID, status, dateText, comment); err != nil {
		return err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonStageUpdated)
	return nil
}

// ReorderStages принимает точную перестановку id этапов заказа:
// пропущенный, лишний или повторённый id отклоняет операцию целиком,
// sort_order при этом не меняется.
func (s *Service) ReorderStages(ctx context.Context, orderID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return models.ErrInvalidStageSet
	}
	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return err
	}
	stages, err := s.repo.ListStages(ctx, orderID)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(stages))
	for _, st := range stages {
		existing[st.ID] = true
	}
	if len(orderedIDs) != len(existing) {
		return models.ErrInvalidStageSet
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !existing[id] || seen[id] {
			return models.ErrInvalidStageSet
		}
		seen[id] = true
	}
	if err := s.repo.ReorderStages(ctx, orderID, orderedIDs); err != nil {
		return err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonStagesReordered)
	return nil
}

// CompleteCurrentStage закрывает этап со статусом in_progress.
// Ищется только явный in_progress — fallback-правило CurrentStage здесь
// не используется. Если такого этапа нет, операция — no-op.
func (s *Service) CompleteCurrentStage(ctx context.Context, orderID string) error {
	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return err
	}
	stages, err := s.repo.ListStages(ctx, orderID)
	if err != nil {
		return err
	}

	var current *models.Stage
	for _, st := range stages {
		if st.Status == models.StageStatusInProgress {
			current = st
			break
		}
	}
	if current == nil {
		return nil
	}

	if err := s.repo.SetStageStatuses(ctx, orderID, map[string]models.StageStatus{
		current.ID: models.StageStatusDone,
	}); err != nil {
		return err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonStageCompleted)
	return nil
}

// AdvanceStage двигает конвейер на один шаг: текущий in_progress (если есть)
// закрывается, следующий pending после него становится in_progress.
// Этапы не перескакиваются. Конкурентные advance по одному заказу не
// сериализуются — для ручной админки это осознанный компромисс.
func (s *Service) AdvanceStage(ctx context.Context, orderID string) error {
	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return err
	}
	stages, err := s.repo.ListStages(ctx, orderID)
	if err != nil {
		return err
	}

	changes := planAdvance(stages)
	if err := s.repo.SetStageStatuses(ctx, orderID, changes); err != nil {
		return err
	}
	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonStageAdvanced)
	return nil
}

// planAdvance — чистый расчёт переходов для AdvanceStage.
// stages отсортированы по sortOrder.
func planAdvance(stages []*models.Stage) map[string]models.StageStatus {
	changes := map[string]models.StageStatus{}

	currentIdx := -1
	for i, st := range stages {
		if st.Status == models.StageStatusInProgress {
			currentIdx = i
			break
		}
	}
	if currentIdx >= 0 {
		changes[stages[currentIdx].ID] = models.StageStatusDone
	}

	// Следующий pending строго после бывшего текущего;
	// если текущего не было — первый pending вообще.
	start := 0
	if currentIdx >= 0 {
		start = currentIdx + 1
	}
	for i := start; i < len(stages); i++ {
		if stages[i].Status == models.StageStatusPending {
			changes[stages[i].ID] = models.StageStatusInProgress
			break
		}
	}
	return changes
}
