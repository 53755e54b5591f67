package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/BearBump/CarTrace/internal/accessgate"
	"github.com/BearBump/CarTrace/internal/broker/messages"
	"github.com/BearBump/CarTrace/internal/idgen"
	"github.com/BearBump/CarTrace/internal/models"
	"github.com/BearBump/CarTrace/internal/ratelimit"
	"github.com/stretchr/testify/require"
)

// fakeRepo — хранилище одного заказа в памяти.
type fakeRepo struct {
	order *models.Order

	reorderIn []string
	getByTN   int
}

func (f *fakeRepo) CreateOrder(ctx context.Context, in models.OrderCreateInput, trackingNumber, accessCode string, stageTitles []string) (*models.Order, error) {
	now := time.Now().UTC()
	o := &models.Order{
		ID:             "order-1",
		TrackingNumber: trackingNumber,
		AccessCode:     &accessCode,
		VehicleSummary: in.VehicleSummary,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i, title := range stageTitles {
		o.Stages = append(o.Stages, &models.Stage{
			ID:        fmt.Sprintf("stage-%d", i+1),
			OrderID:   o.ID,
			Title:     title,
			Status:    models.StageStatusPending,
			DateText:  "-",
			SortOrder: int32(i),
		})
	}
	f.order = o
	return o, nil
}

func (f *fakeRepo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, models.ErrNotFound
	}
	return f.order, nil
}

func (f *fakeRepo) GetOrderByTrackingNumber(ctx context.Context, tn string) (*models.Order, error) {
	f.getByTN++
	if f.order == nil || f.order.TrackingNumber != tn {
		return nil, models.ErrNotFound
	}
	return f.order, nil
}

func (f *fakeRepo) GetOrderHeadByID(ctx context.Context, id string) (*models.Order, error) {
	return f.GetOrderByID(ctx, id)
}

func (f *fakeRepo) GetOrderHeadByTrackingNumber(ctx context.Context, tn string) (*models.Order, error) {
	if f.order == nil || f.order.TrackingNumber != tn {
		return nil, models.ErrNotFound
	}
	return f.order, nil
}

func (f *fakeRepo) ListOrders(ctx context.Context) ([]*models.Order, error) {
	if f.order == nil {
		return nil, nil
	}
	return []*models.Order{f.order}, nil
}

func (f *fakeRepo) UpdateOrderSummary(ctx context.Context, orderID string, etaText, publicStatus, lastUpdateNote *string) error {
	f.order.EtaText = etaText
	f.order.PublicStatus = publicStatus
	f.order.LastUpdateNote = lastUpdateNote
	return nil
}

func (f *fakeRepo) SetAccessCode(ctx context.Context, orderID, accessCode string) error {
	f.order.AccessCode = &accessCode
	return nil
}

func (f *fakeRepo) SetEtaText(ctx context.Context, orderID, etaText string) error {
	f.order.EtaText = &etaText
	return nil
}

func (f *fakeRepo) ListStages(ctx context.Context, orderID string) ([]*models.Stage, error) {
	return f.order.Stages, nil
}

func (f *fakeRepo) UpdateStage(ctx context.Context, orderID, stageID string, status models.StageStatus, dateText, comment string) error {
	for _, st := range f.order.Stages {
		if st.ID == stageID {
			st.Status = status
			st.DateText = dateText
			st.Comment = comment
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeRepo) SetStageStatuses(ctx context.Context, orderID string, statuses map[string]models.StageStatus) error {
	for _, st := range f.order.Stages {
		if next, ok := statuses[st.ID]; ok {
			st.Status = next
		}
	}
	return nil
}

func (f *fakeRepo) ReorderStages(ctx context.Context, orderID string, orderedIDs []string) error {
	f.reorderIn = orderedIDs
	return nil
}

func (f *fakeRepo) AddRoutePoint(ctx context.Context, orderID, label string, lat, lng float64, typ models.RoutePointType) (*models.RoutePoint, error) {
	if typ == models.RoutePointCurrent {
		f.demoteCurrent()
	}
	p := &models.RoutePoint{
		ID:        fmt.Sprintf("point-%d", len(f.order.RoutePoints)+1),
		OrderID:   orderID,
		Label:     label,
		Lat:       lat,
		Lng:       lng,
		Type:      typ,
		SortOrder: int32(len(f.order.RoutePoints)),
	}
	f.order.RoutePoints = append(f.order.RoutePoints, p)
	return p, nil
}

func (f *fakeRepo) UpdateRoutePoint(ctx context.Context, orderID, pointID, label string, lat, lng float64, typ models.RoutePointType) error {
	if typ == models.RoutePointCurrent {
		f.demoteCurrent()
	}
	for _, p := range f.order.RoutePoints {
		if p.ID == pointID {
			p.Label, p.Lat, p.Lng, p.Type = label, lat, lng, typ
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeRepo) SetCurrentRoutePoint(ctx context.Context, orderID, pointID string) error {
	f.demoteCurrent()
	for _, p := range f.order.RoutePoints {
		if p.ID == pointID {
			p.Type = models.RoutePointCurrent
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeRepo) DeleteRoutePoint(ctx context.Context, orderID, pointID string) error {
	for i, p := range f.order.RoutePoints {
		if p.ID == pointID {
			f.order.RoutePoints = append(f.order.RoutePoints[:i], f.order.RoutePoints[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeRepo) demoteCurrent() {
	for _, p := range f.order.RoutePoints {
		if p.Type == models.RoutePointCurrent {
			p.Type = models.RoutePointCheckpoint
		}
	}
}

func (f *fakeRepo) CreateMessage(ctx context.Context, orderID string, author models.MessageAuthor, text string) (*models.Message, error) {
	m := &models.Message{
		ID:        fmt.Sprintf("msg-%d", len(f.order.Messages)+1),
		OrderID:   orderID,
		Author:    author,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	f.order.Messages = append(f.order.Messages, m)
	return m, nil
}

func (f *fakeRepo) ListMessages(ctx context.Context, orderID string) ([]*models.Message, error) {
	return f.order.Messages, nil
}

func (f *fakeRepo) CreateAttachments(ctx context.Context, orderID string, atts []*models.Attachment) error {
	f.order.Attachments = append(f.order.Attachments, atts...)
	return nil
}

func (f *fakeRepo) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	if f.order == nil {
		return nil, models.ErrNotFound
	}
	for _, a := range f.order.Attachments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRepo) ListAttachments(ctx context.Context, orderID string) ([]*models.Attachment, error) {
	return f.order.Attachments, nil
}

func (f *fakeRepo) TrackingNumberExists(ctx context.Context, tn string) (bool, error) {
	return f.order != nil && f.order.TrackingNumber == tn, nil
}

func (f *fakeRepo) AccessCodeExists(ctx context.Context, code string) (bool, error) {
	return f.order != nil && f.order.AccessCode != nil && *f.order.AccessCode == code, nil
}

type fakeCache struct {
	m map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := c.m[key]
	return b, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.m[key] = value
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.m, key)
	return nil
}

type fakePublisher struct {
	reasons []string
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	var ev messages.OrderUpdated
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	p.reasons = append(p.reasons, ev.Reason)
	return nil
}

type fakeFiles struct {
	m map[string][]byte
}

func (f *fakeFiles) Save(filename string, data []byte) error {
	f.m[filename] = data
	return nil
}

func (f *fakeFiles) Read(filename string) ([]byte, error) {
	b, ok := f.m[filename]
	if !ok {
		return nil, models.ErrNotFound
	}
	return b, nil
}

func newTestService(r *fakeRepo) (*Service, *fakePublisher, *fakeFiles) {
	p := &fakePublisher{}
	fs := &fakeFiles{m: map[string][]byte{}}
	gate := accessgate.New(ratelimit.NewMemoryLimiter(), true)
	s := New(r, idgen.New(r), gate, nil, p, fs, Options{Topic: "order.updated"})
	return s, p, fs
}

func seedOrder(r *fakeRepo, statuses ...models.StageStatus) *models.Order {
	code := "123456"
	o := &models.Order{
		ID:             "order-1",
		TrackingNumber: "AX7K2M9Q4Z",
		AccessCode:     &code,
		VehicleSummary: "Toyota Camry 2021",
	}
	for i, st := range statuses {
		o.Stages = append(o.Stages, &models.Stage{
			ID:        fmt.Sprintf("stage-%d", i+1),
			OrderID:   o.ID,
			Title:     fmt.Sprintf("Этап %d", i+1),
			Status:    st,
			DateText:  "-",
			SortOrder: int32(i),
		})
	}
	r.order = o
	return o
}

func TestService_CreateOrder_validate(t *testing.T) {
	s, _, _ := newTestService(&fakeRepo{})

	_, err := s.CreateOrder(context.Background(), models.OrderCreateInput{VehicleSummary: "  "})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = s.CreateOrder(context.Background(), models.OrderCreateInput{
		VehicleSummary: "BMW X5",
		ClientPhone:    "not-a-phone",
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestService_CreateOrder_generates(t *testing.T) {
	r := &fakeRepo{}
	s, p, _ := newTestService(r)

	o, err := s.CreateOrder(context.Background(), models.OrderCreateInput{VehicleSummary: "BMW X5"})
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{10}$`), o.TrackingNumber)
	require.NotNil(t, o.AccessCode)
	require.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), *o.AccessCode)
	require.Len(t, o.Stages, len(models.DefaultStageTitles))
	for _, st := range o.Stages {
		require.Equal(t, models.StageStatusPending, st.Status)
	}
	require.Equal(t, []string{messages.ReasonOrderCreated}, p.reasons)
}

func TestService_ResolveOrder_validate(t *testing.T) {
	s, _, _ := newTestService(&fakeRepo{})

	_, err := s.ResolveOrder(context.Background(), "")
	require.ErrorIs(t, err, models.ErrInvalidInput)

	// Слишком короткий и с запрещёнными символами.
	_, err = s.ResolveOrder(context.Background(), "abc")
	require.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = s.ResolveOrder(context.Background(), "AX7K2M9Q4Z!")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestService_ResolveOrder_cacheHit(t *testing.T) {
	r := &fakeRepo{}
	c := &fakeCache{m: map[string][]byte{}}
	s := New(r, idgen.New(r), accessgate.New(ratelimit.NewMemoryLimiter(), true), c, nil, nil, Options{CacheTTL: time.Minute})

	want := &models.Order{ID: "order-9", TrackingNumber: "AX7K2M9Q4Z"}
	b, _ := json.Marshal(want)
	c.m["order:AX7K2M9Q4Z:current"] = b

	out, err := s.ResolveOrder(context.Background(), "ax7k2m9q4z")
	require.NoError(t, err)
	require.Equal(t, "order-9", out.ID)
	require.Zero(t, r.getByTN) // БД не трогали
}

func TestService_ResolveOrder_cacheMissFills(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending)
	c := &fakeCache{m: map[string][]byte{}}
	s := New(r, idgen.New(r), accessgate.New(ratelimit.NewMemoryLimiter(), true), c, nil, nil, Options{CacheTTL: time.Minute})

	out, err := s.ResolveOrder(context.Background(), "AX7K2M9Q4Z")
	require.NoError(t, err)
	require.Equal(t, "order-1", out.ID)
	require.Contains(t, c.m, "order:AX7K2M9Q4Z:current")
}

func TestService_AdvanceStage_sequence(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending, models.StageStatusPending, models.StageStatusPending)
	s, _, _ := newTestService(r)
	ctx := context.Background()

	// Первый advance: текущего нет, первый pending становится in_progress.
	require.NoError(t, s.AdvanceStage(ctx, "order-1"))
	require.Equal(t, models.StageStatusInProgress, r.order.Stages[0].Status)
	require.Equal(t, models.StageStatusPending, r.order.Stages[1].Status)

	require.NoError(t, s.AdvanceStage(ctx, "order-1"))
	require.Equal(t, models.StageStatusDone, r.order.Stages[0].Status)
	require.Equal(t, models.StageStatusInProgress, r.order.Stages[1].Status)

	// Конвейер конечен: после N+1 advance все этапы done.
	require.NoError(t, s.AdvanceStage(ctx, "order-1"))
	require.NoError(t, s.AdvanceStage(ctx, "order-1"))
	for _, st := range r.order.Stages {
		require.Equal(t, models.StageStatusDone, st.Status)
	}

	// Дальнейшие advance ничего не меняют.
	require.NoError(t, s.AdvanceStage(ctx, "order-1"))
	for _, st := range r.order.Stages {
		require.Equal(t, models.StageStatusDone, st.Status)
	}
}

func TestPlanAdvance_skipsDoneGaps(t *testing.T) {
	// pending до текущего не активируется: следующий берётся строго после.
	stages := []*models.Stage{
		{ID: "a", Status: models.StageStatusPending},
		{ID: "b", Status: models.StageStatusInProgress},
		{ID: "c", Status: models.StageStatusDone},
		{ID: "d", Status: models.StageStatusPending},
	}
	changes := planAdvance(stages)
	require.Equal(t, map[string]models.StageStatus{
		"b": models.StageStatusDone,
		"d": models.StageStatusInProgress,
	}, changes)
}

func TestService_CompleteCurrentStage(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusDone, models.StageStatusInProgress, models.StageStatusPending)
	s, p, _ := newTestService(r)

	require.NoError(t, s.CompleteCurrentStage(context.Background(), "order-1"))
	require.Equal(t, models.StageStatusDone, r.order.Stages[1].Status)
	// Следующий этап НЕ активируется — это не advance.
	require.Equal(t, models.StageStatusPending, r.order.Stages[2].Status)
	require.Equal(t, []string{messages.ReasonStageCompleted}, p.reasons)

	// Без in_progress — no-op, событий нет.
	require.NoError(t, s.CompleteCurrentStage(context.Background(), "order-1"))
	require.Len(t, p.reasons, 1)
}

func TestService_ReorderStages_exactSet(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending, models.StageStatusPending, models.StageStatusPending)
	s, _, _ := newTestService(r)
	ctx := context.Background()

	require.ErrorIs(t, s.ReorderStages(ctx, "order-1", nil), models.ErrInvalidStageSet)
	require.ErrorIs(t, s.ReorderStages(ctx, "order-1", []string{"stage-1", "stage-2"}), models.ErrInvalidStageSet)
	require.ErrorIs(t, s.ReorderStages(ctx, "order-1", []string{"stage-1", "stage-2", "stage-2"}), models.ErrInvalidStageSet)
	require.ErrorIs(t, s.ReorderStages(ctx, "order-1", []string{"stage-1", "stage-2", "ghost"}), models.ErrInvalidStageSet)
	require.Nil(t, r.reorderIn)

	require.NoError(t, s.ReorderStages(ctx, "order-1", []string{"stage-3", "stage-1", "stage-2"}))
	require.Equal(t, []string{"stage-3", "stage-1", "stage-2"}, r.reorderIn)
}

func TestService_ShiftEta(t *testing.T) {
	r := &fakeRepo{}
	o := seedOrder(r, models.StageStatusPending)
	etaText := "10.10.2026"
	o.EtaText = &etaText
	s, p, _ := newTestService(r)

	next, err := s.ShiftEta(context.Background(), "order-1", 7)
	require.NoError(t, err)
	require.Equal(t, "17.10.2026", next)
	require.Equal(t, "17.10.2026", *r.order.EtaText)
	require.Equal(t, []string{messages.ReasonEtaShifted}, p.reasons)
}

func TestService_UpdateOrderSummary_caps(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending)
	s, _, _ := newTestService(r)

	long := strings.Repeat("х", 300)
	require.NoError(t, s.UpdateOrderSummary(context.Background(), "order-1", "  конец октября  ", long, long))
	require.Equal(t, "конец октября", *r.order.EtaText)
	require.Len(t, []rune(*r.order.PublicStatus), 40)
	require.Len(t, []rune(*r.order.LastUpdateNote), 200)

	require.NoError(t, s.UpdateOrderSummary(context.Background(), "order-1", "", "", ""))
	require.Nil(t, r.order.EtaText)
	require.Nil(t, r.order.PublicStatus)
}

func TestService_RegenerateAccessCode(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending)
	s, p, _ := newTestService(r)

	code, err := s.RegenerateAccessCode(context.Background(), "order-1")
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), code)
	require.Equal(t, code, *r.order.AccessCode)
	require.Equal(t, []string{messages.ReasonCodeRegenerated}, p.reasons)
}

func TestService_Chat_gate(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending)
	s, _, _ := newTestService(r)
	ctx := context.Background()

	_, err := s.SendClientMessage(ctx, "AX7K2M9Q4Z", "000000", "1.2.3.4", "привет")
	require.ErrorIs(t, err, models.ErrInvalidCode)

	m, err := s.SendClientMessage(ctx, "AX7K2M9Q4Z", "123456", "1.2.3.4", "  привет  ")
	require.NoError(t, err)
	require.Equal(t, "привет", m.Text)
	require.Equal(t, models.MessageAuthorClient, m.Author)

	_, err = s.SendClientMessage(ctx, "AX7K2M9Q4Z", "123456", "1.2.3.4", strings.Repeat("а", 1001))
	require.ErrorIs(t, err, models.ErrInvalidInput)

	msgs, err := s.ListClientMessages(ctx, "AX7K2M9Q4Z", "123456", "1.2.3.4")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestService_SendAdminMessage_noGate(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending)
	s, _, _ := newTestService(r)

	m, err := s.SendAdminMessage(context.Background(), "order-1", "ответ менеджера")
	require.NoError(t, err)
	require.Equal(t, models.MessageAuthorAdmin, m.Author)
}

func TestService_SaveAttachments_validate(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending)
	s, _, fs := newTestService(r)
	ctx := context.Background()

	_, err := s.SaveAttachments(ctx, "order-1", nil, nil)
	require.ErrorIs(t, err, models.ErrNoFiles)

	_, err = s.SaveAttachments(ctx, "order-1", nil, []Upload{
		{Name: "big.pdf", ContentType: "application/pdf", Data: make([]byte, maxAttachmentSize+1)},
	})
	require.ErrorIs(t, err, models.ErrUploadRejected)

	_, err = s.SaveAttachments(ctx, "order-1", nil, []Upload{
		{Name: "virus.exe", ContentType: "application/octet-stream", Data: []byte{1}},
	})
	require.ErrorIs(t, err, models.ErrUploadRejected)

	// Один плохой файл валит всю пачку: байты не пишутся.
	_, err = s.SaveAttachments(ctx, "order-1", nil, []Upload{
		{Name: "ok.png", ContentType: "image/png", Data: []byte{1, 2}},
		{Name: "bad.exe", ContentType: "application/octet-stream", Data: []byte{3}},
	})
	require.ErrorIs(t, err, models.ErrUploadRejected)
	require.Empty(t, fs.m)
	require.Empty(t, r.order.Attachments)
}

func TestService_SaveAttachments_ok(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending)
	s, p, fs := newTestService(r)

	atts, err := s.SaveAttachments(context.Background(), "order-1", nil, []Upload{
		{Name: "../../etc/passwd.png", ContentType: "image/png", Data: []byte{1, 2, 3}},
		{Name: "инвойс.pdf", ContentType: "", Data: []byte{4, 5}}, // mime из расширения
	})
	require.NoError(t, err)
	require.Len(t, atts, 2)

	// Имя на диске непрозрачное, не выводится из исходного.
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{24}\.png$`), atts[0].Filename)
	require.NotContains(t, atts[0].OriginalName, "/")
	require.NotContains(t, atts[0].OriginalName, "..")
	require.Equal(t, models.AttachmentTypeImage, atts[0].Type)

	require.Equal(t, "application/pdf", atts[1].Mime)
	require.Equal(t, models.AttachmentTypePDF, atts[1].Type)

	require.Len(t, fs.m, 2)
	require.Equal(t, []string{messages.ReasonFilesUploaded}, p.reasons)
}

func TestService_FetchAttachment_access(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending)
	s, _, fs := newTestService(r)
	ctx := context.Background()

	r.order.Attachments = []*models.Attachment{
		{ID: "att-1", OrderID: "order-1", Filename: "deadbeef.png", Mime: "image/png"},
		{ID: "att-2", OrderID: "other-order", Filename: "cafebabe.png", Mime: "image/png"},
	}
	fs.m["deadbeef.png"] = []byte{1, 2, 3}

	// Клиент с верным кодом получает свой файл.
	a, b, err := s.FetchAttachment(ctx, "att-1", "AX7K2M9Q4Z", "123456", "1.2.3.4", false)
	require.NoError(t, err)
	require.Equal(t, "att-1", a.ID)
	require.Equal(t, []byte{1, 2, 3}, b)

	// Чужой файл не отдаётся даже с верным кодом.
	_, _, err = s.FetchAttachment(ctx, "att-2", "AX7K2M9Q4Z", "123456", "1.2.3.4", false)
	require.ErrorIs(t, err, models.ErrUnauthorized)

	// Админ обходит гейт и владение.
	fs.m["cafebabe.png"] = []byte{9}
	_, _, err = s.FetchAttachment(ctx, "att-2", "", "", "", true)
	require.NoError(t, err)
}

func TestSanitizeOriginalName(t *testing.T) {
	require.Equal(t, "passwd.png", sanitizeOriginalName("../../etc/passwd.png"))
	require.Equal(t, "report 2026.pdf", sanitizeOriginalName("  report 2026.pdf  "))
	require.Equal(t, "file", sanitizeOriginalName("///"))
	require.Len(t, []rune(sanitizeOriginalName(strings.Repeat("a", 200)+".png")), 120)
}

func TestService_RoutePoints(t *testing.T) {
	r := &fakeRepo{}
	seedOrder(r, models.StageStatusPending)
	s, _, _ := newTestService(r)
	ctx := context.Background()

	_, err := s.AddRoutePoint(ctx, "order-1", "A", 10, 20, models.RoutePointStart)
	require.ErrorIs(t, err, models.ErrInvalidInput) // короткий label

	_, err = s.AddRoutePoint(ctx, "order-1", "Порт Пусан", 95, 20, models.RoutePointStart)
	require.ErrorIs(t, err, models.ErrInvalidInput) // lat вне диапазона

	p1, err := s.AddRoutePoint(ctx, "order-1", "Порт Пусан", 35.1, 129.0, models.RoutePointCurrent)
	require.NoError(t, err)
	require.Equal(t, models.RoutePointCurrent, p1.Type)

	// Вторая current разжалует первую.
	p2, err := s.AddRoutePoint(ctx, "order-1", "Владивосток", 43.1, 131.9, models.RoutePointCurrent)
	require.NoError(t, err)
	require.Equal(t, models.RoutePointCheckpoint, r.order.RoutePoints[0].Type)
	require.Equal(t, models.RoutePointCurrent, r.order.RoutePoints[1].Type)

	require.NoError(t, s.SetCurrentRoutePoint(ctx, "order-1", p1.ID))
	require.Equal(t, models.RoutePointCurrent, r.order.RoutePoints[0].Type)
	require.Equal(t, models.RoutePointCheckpoint, r.order.RoutePoints[1].Type)

	require.NoError(t, s.DeleteRoutePoint(ctx, "order-1", p2.ID))
	require.Len(t, r.order.RoutePoints, 1)
}

func TestService_ApplyOrderUpdated(t *testing.T) {
	r := &fakeRepo{}
	c := &fakeCache{m: map[string][]byte{"order:AX7K2M9Q4Z:current": []byte("{}")}}
	s := New(r, idgen.New(r), accessgate.New(ratelimit.NewMemoryLimiter(), true), c, nil, nil, Options{CacheTTL: time.Minute})

	require.Error(t, s.ApplyOrderUpdated(context.Background(), messages.OrderUpdated{}))

	require.NoError(t, s.ApplyOrderUpdated(context.Background(), messages.OrderUpdated{
		OrderID:        "order-1",
		TrackingNumber: "AX7K2M9Q4Z",
		Reason:         messages.ReasonStageAdvanced,
	}))
	require.NotContains(t, c.m, "order:AX7K2M9Q4Z:current")
}
