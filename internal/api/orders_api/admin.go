package orders_api

import (
	"io"
	"net/http"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/BearBump/CarTrace/internal/services/orders"
	"github.com/go-chi/chi/v5"
)

type createOrderRequest struct {
	ClientName     string `json:"clientName"`
	ClientPhone    string `json:"clientPhone"`
	VehicleSummary string `json:"vehicleSummary"`
	VehicleVIN     string `json:"vehicleVin"`
	VehicleLot     string `json:"vehicleLot"`
	EtaText        string `json:"etaText"`
}

func (a *OrdersAPI) handleAdminCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	o, err := a.svc.CreateOrder(r.Context(), models.OrderCreateInput{
		ClientName:     req.ClientName,
		ClientPhone:    req.ClientPhone,
		VehicleSummary: req.VehicleSummary,
		VehicleVIN:     req.VehicleVIN,
		VehicleLot:     req.VehicleLot,
		EtaText:        req.EtaText,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAdminOrderView(o))
}

func (a *OrdersAPI) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	os, err := a.svc.ListOrders(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	views := make([]adminOrderView, 0, len(os))
	for _, o := range os {
		views = append(views, toAdminOrderView(o))
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": views})
}

func (a *OrdersAPI) handleAdminGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.svc.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toAdminOrderView(o))
}

type updateSummaryRequest struct {
	EtaText        string `json:"etaText"`
	PublicStatus   string `json:"publicStatus"`
	LastUpdateNote string `json:"lastUpdateNote"`
}

func (a *OrdersAPI) handleAdminUpdateSummary(w http.ResponseWriter, r *http.Request) {
	var req updateSummaryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	if err := a.svc.UpdateOrderSummary(r.Context(), chi.URLParam(r, "id"),
		req.EtaText, req.PublicStatus, req.LastUpdateNote); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type etaShiftRequest struct {
	Days int `json:"days"`
}

func (a *OrdersAPI) handleAdminShiftEta(w http.ResponseWriter, r *http.Request) {
	var req etaShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	next, err := a.svc.ShiftEta(r.Context(), chi.URLParam(r, "id"), req.Days)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"etaText": next})
}

func (a *OrdersAPI) handleAdminRegenerateCode(w http.ResponseWriter, r *http.Request) {
	code, err := a.svc.RegenerateAccessCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"accessCode": code})
}

type updateStageRequest struct {
	Status   string `json:"status"`
	DateText string `json:"dateText"`
	Comment  string `json:"comment"`
}

func (a *OrdersAPI) handleAdminUpdateStage(w http.ResponseWriter, r *http.Request) {
	var req updateStageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	if err := a.svc.UpdateStage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "stageID"),
		models.StageStatus(req.Status), req.DateText, req.Comment); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderStagesRequest struct {
	OrderedIDs []string `json:"orderedIds"`
}

func (a *OrdersAPI) handleAdminReorderStages(w http.ResponseWriter, r *http.Request) {
	var req reorderStagesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	if err := a.svc.ReorderStages(r.Context(), chi.URLParam(r, "id"), req.OrderedIDs); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *OrdersAPI) handleAdminAdvanceStage(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.AdvanceStage(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *OrdersAPI) handleAdminCompleteStage(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.CompleteCurrentStage(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type routePointRequest struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Type  string  `json:"type"`
}

func (a *OrdersAPI) handleAdminAddRoutePoint(w http.ResponseWriter, r *http.Request) {
	var req routePointRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	p, err := a.svc.AddRoutePoint(r.Context(), chi.URLParam(r, "id"),
		req.Label, req.Lat, req.Lng, models.RoutePointType(req.Type))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, routePointView{
		ID:        p.ID,
		Label:     p.Label,
		Lat:       p.Lat,
		Lng:       p.Lng,
		Type:      string(p.Type),
		SortOrder: p.SortOrder,
	})
}

func (a *OrdersAPI) handleAdminUpdateRoutePoint(w http.ResponseWriter, r *http.Request) {
	var req routePointRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	if err := a.svc.UpdateRoutePoint(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "pointID"),
		req.Label, req.Lat, req.Lng, models.RoutePointType(req.Type)); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *OrdersAPI) handleAdminSetCurrentRoutePoint(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.SetCurrentRoutePoint(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "pointID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *OrdersAPI) handleAdminDeleteRoutePoint(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteRoutePoint(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "pointID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *OrdersAPI) handleAdminListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := a.svc.ListOrderMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": toMessageViews(msgs)})
}

type adminMessageRequest struct {
	Text string `json:"text"`
}

func (a *OrdersAPI) handleAdminSendMessage(w http.ResponseWriter, r *http.Request) {
	var req adminMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	m, err := a.svc.SendAdminMessage(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMessageView(m))
}

// maxUploadMemory — буфер multipart-парсера, не лимит файла.
const maxUploadMemory = 32 << 20

func (a *OrdersAPI) handleAdminUploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input")
		return
	}

	var stageID *string
	if v := r.FormValue("stageId"); v != "" {
		stageID = &v
	}

	var uploads []orders.Upload
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_input")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_input")
			return
		}
		uploads = append(uploads, orders.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	atts, err := a.svc.SaveAttachments(r.Context(), chi.URLParam(r, "id"), stageID, uploads)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"files": toAttachmentViews(atts)})
}

func (a *OrdersAPI) handleAdminFileFetch(w http.ResponseWriter, r *http.Request) {
	att, data, err := a.svc.FetchAttachment(r.Context(), chi.URLParam(r, "id"), "", "", "", true)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeAttachment(w, att.Mime, att.OriginalName, data)
}
