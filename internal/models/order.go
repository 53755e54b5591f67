package models

import "time"

// Статусы этапа доставки (закрытый набор).
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in_progress"
	StageStatusDone       StageStatus = "done"
)

func (s StageStatus) Valid() bool {
	switch s {
	case StageStatusPending, StageStatusInProgress, StageStatusDone:
		return true
	}
	return false
}

// Типы точек маршрута.
type RoutePointType string

const (
	RoutePointStart      RoutePointType = "start"
	RoutePointCheckpoint RoutePointType = "checkpoint"
	RoutePointCurrent    RoutePointType = "current"
	RoutePointEnd        RoutePointType = "end"
)

func (t RoutePointType) Valid() bool {
	switch t {
	case RoutePointStart, RoutePointCheckpoint, RoutePointCurrent, RoutePointEnd:
		return true
	}
	return false
}

// Автор сообщения в чате заказа.
type MessageAuthor string

const (
	MessageAuthorClient MessageAuthor = "client"
	MessageAuthorAdmin  MessageAuthor = "admin"
)

// Тип вложения, выводится из mime.
type AttachmentType string

const (
	AttachmentTypeImage AttachmentType = "image"
	AttachmentTypePDF   AttachmentType = "pdf"
	AttachmentTypeOther AttachmentType = "other"
)

type Order struct {
	ID             string
	TrackingNumber string
	AccessCode     *string
	ClientName     *string
	ClientPhone    *string
	VehicleSummary string
	VehicleVIN     *string
	VehicleLot     *string
	EtaText        *string
	PublicStatus   *string
	LastUpdateNote *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Stages      []*Stage
	RoutePoints []*RoutePoint
	Messages    []*Message
	Attachments []*Attachment
}

type Stage struct {
	ID        string
	OrderID   string
	Title     string
	Status    StageStatus
	DateText  string
	Comment   string
	SortOrder int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RoutePoint struct {
	ID        string
	OrderID   string
	Label     string
	Lat       float64
	Lng       float64
	Type      RoutePointType
	SortOrder int32
	CreatedAt time.Time
}

type Message struct {
	ID        string
	OrderID   string
	Author    MessageAuthor
	Text      string
	CreatedAt time.Time
}

type Attachment struct {
	ID           string
	OrderID      string
	StageID      *string
	Filename     string
	OriginalName string
	Mime         string
	Size         int64
	Type         AttachmentType
	CreatedAt    time.Time
}

type OrderCreateInput struct {
	ClientName     string
	ClientPhone    string
	VehicleSummary string
	VehicleVIN     string
	VehicleLot     string
	EtaText        string
}

// CurrentStage возвращает "текущий" этап по трёхступенчатому правилу:
// первый in_progress, иначе первый pending, иначе последний этап.
// Этапы ожидаются отсортированными по sortOrder.
func CurrentStage(stages []*Stage) *Stage {
	if len(stages) == 0 {
		return nil
	}
	for _, st := range stages {
		if st.Status == StageStatusInProgress {
			return st
		}
	}
	for _, st := range stages {
		if st.Status == StageStatusPending {
			return st
		}
	}
	return stages[len(stages)-1]
}

// DefaultStageTitles — этапы, создаваемые вместе с каждым заказом.
var DefaultStageTitles = []string{
	"Заказ подтверждён",
	"Выкуп автомобиля",
	"Доставка в порт отправления",
	"Погрузка и отправка",
	"Морская перевозка",
	"Прибытие в порт",
	"Таможенное оформление",
	"Доставка клиенту",
}
