package messages

import "time"

// OrderUpdated публикуется после каждой мутации заказа.
// Потребители (реплики API) сбрасывают кэшированный рендер по трек-номеру.
type OrderUpdated struct {
	OrderID        string    `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
	Reason         string    `json:"reason,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Причины обновления (информационные, на поведение не влияют).
const (
	ReasonOrderCreated    = "order_created"
	ReasonSummaryUpdated  = "summary_updated"
	ReasonStageUpdated    = "stage_updated"
	ReasonStagesReordered = "stages_reordered"
	ReasonStageAdvanced   = "stage_advanced"
	ReasonStageCompleted  = "stage_completed"
	ReasonEtaShifted      = "eta_shifted"
	ReasonCodeRegenerated = "code_regenerated"
	ReasonRouteChanged    = "route_changed"
	ReasonMessageSent     = "message_sent"
	ReasonFilesUploaded   = "files_uploaded"
)
