package orders_api

import (
	"time"

	"github.com/BearBump/CarTrace/internal/models"
)

type stageView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	DateText  string `json:"dateText"`
	Comment   string `json:"comment,omitempty"`
	SortOrder int32  `json:"sortOrder"`
}

type routePointView struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Type      string  `json:"type"`
	SortOrder int32   `json:"sortOrder"`
}

type messageView struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type attachmentView struct {
	ID           string    `json:"id"`
	StageID      string    `json:"stageId,omitempty"`
	OriginalName string    `json:"originalName"`
	Mime         string    `json:"mime"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"createdAt"`
}

// publicOrderView — ответ публичного трекинга. Кода доступа и контактов
// клиента здесь нет принципиально.
type publicOrderView struct {
	TrackingNumber string           `json:"trackingNumber"`
	VehicleSummary string           `json:"vehicleSummary"`
	EtaText        string           `json:"etaText,omitempty"`
	PublicStatus   string           `json:"publicStatus,omitempty"`
	LastUpdateNote string           `json:"lastUpdateNote,omitempty"`
	CurrentStageID string           `json:"currentStageId,omitempty"`
	Stages         []stageView      `json:"stages"`
	RoutePoints    []routePointView `json:"routePoints"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type adminOrderView struct {
	ID             string           `json:"id"`
	TrackingNumber string           `json:"trackingNumber"`
	AccessCode     string           `json:"accessCode,omitempty"`
	ClientName     string           `json:"clientName,omitempty"`
	ClientPhone    string           `json:"clientPhone,omitempty"`
	VehicleSummary string           `json:"vehicleSummary"`
	VehicleVIN     string           `json:"vehicleVin,omitempty"`
	VehicleLot     string           `json:"vehicleLot,omitempty"`
	EtaText        string           `json:"etaText,omitempty"`
	PublicStatus   string           `json:"publicStatus,omitempty"`
	LastUpdateNote string           `json:"lastUpdateNote,omitempty"`
	CurrentStageID string           `json:"currentStageId,omitempty"`
	Stages         []stageView      `json:"stages"`
	RoutePoints    []routePointView `json:"routePoints"`
	Messages       []messageView    `json:"messages,omitempty"`
	Attachments    []attachmentView `json:"attachments,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func toStageViews(stages []*models.Stage) []stageView {
	out := make([]stageView, 0, len(stages))
	for _, st := range stages {
		out = append(out, stageView{
			ID:        st.ID,
			Title:     st.Title,
			Status:    string(st.Status),
			DateText:  st.DateText,
			Comment:   st.Comment,
			SortOrder: st.SortOrder,
		})
	}
	return out
}

func toRoutePointViews(points []*models.RoutePoint) []routePointView {
	out := make([]routePointView, 0, len(points))
	for _, p := range points {
		out = append(out, routePointView{
			ID:        p.ID,
			Label:     p.Label,
			Lat:       p.Lat,
			Lng:       p.Lng,
			Type:      string(p.Type),
			SortOrder: p.SortOrder,
		})
	}
	return out
}

func toMessageViews(msgs []*models.Message) []messageView {
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageView(m))
	}
	return out
}

func toMessageView(m *models.Message) messageView {
	return messageView{
		ID:        m.ID,
		Author:    string(m.Author),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func toAttachmentViews(atts []*models.Attachment) []attachmentView {
	out := make([]attachmentView, 0, len(atts))
	for _, a := range atts {
		out = append(out, attachmentView{
			ID:           a.ID,
			StageID:      derefString(a.StageID),
			OriginalName: a.OriginalName,
			Mime:         a.Mime,
			Size:         a.Size,
			Type:         string(a.Type),
			CreatedAt:    a.CreatedAt,
		})
	}
	return out
}

func toPublicOrderView(o *models.Order) publicOrderView {
	v := publicOrderView{
		TrackingNumber: o.TrackingNumber,
		VehicleSummary: o.VehicleSummary,
		EtaText:        derefString(o.EtaText),
		PublicStatus:   derefString(o.PublicStatus),
		LastUpdateNote: derefString(o.LastUpdateNote),
		Stages:         toStageViews(o.Stages),
		RoutePoints:    toRoutePointViews(o.RoutePoints),
		UpdatedAt:      o.UpdatedAt,
	}
	if cur := models.CurrentStage(o.Stages); cur != nil {
		v.CurrentStageID = cur.ID
	}
	return v
}

func toAdminOrderView(o *models.Order) adminOrderView {
	v := adminOrderView{
		ID:             o.ID,
		TrackingNumber: o.TrackingNumber,
		AccessCode:     derefString(o.AccessCode),
		ClientName:     derefString(o.ClientName),
		ClientPhone:    derefString(o.ClientPhone),
		VehicleSummary: o.VehicleSummary,
		VehicleVIN:     derefString(o.VehicleVIN),
		VehicleLot:     derefString(o.VehicleLot),
		EtaText:        derefString(o.EtaText),
		PublicStatus:   derefString(o.PublicStatus),
		LastUpdateNote: derefString(o.LastUpdateNote),
		Stages:         toStageViews(o.Stages),
		RoutePoints:    toRoutePointViews(o.RoutePoints),
		Messages:       toMessageViews(o.Messages),
		Attachments:    toAttachmentViews(o.Attachments),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if cur := models.CurrentStage(o.Stages); cur != nil {
		v.CurrentStageID = cur.ID
	}
	return v
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
