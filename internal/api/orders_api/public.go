package orders_api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type trackRequest struct {
	TrackingNumber string `json:"trackingNumber"`
}

func (a *OrdersAPI) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	o, err := a.svc.ResolveOrder(r.Context(), req.TrackingNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPublicOrderView(o))
}

func (a *OrdersAPI) handleChatList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	msgs, err := a.svc.ListClientMessages(r.Context(), q.Get("trackingNumber"), q.Get("accessCode"), clientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": toMessageViews(msgs)})
}

type chatSendRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	AccessCode     string `json:"accessCode"`
	Text           string `json:"text"`
}

func (a *OrdersAPI) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var req chatSendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	m, err := a.svc.SendClientMessage(r.Context(), req.TrackingNumber, req.AccessCode, clientIP(r), req.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMessageView(m))
}

func (a *OrdersAPI) handleFilesList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	atts, err := a.svc.ListClientAttachments(r.Context(), q.Get("trackingNumber"), q.Get("accessCode"), clientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": toAttachmentViews(atts)})
}

func (a *OrdersAPI) handleFileFetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	att, data, err := a.svc.FetchAttachment(r.Context(), chi.URLParam(r, "id"),
		q.Get("trackingNumber"), q.Get("accessCode"), clientIP(r), false)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeAttachment(w, att.Mime, att.OriginalName, data)
}

func writeAttachment(w http.ResponseWriter, mime, originalName string, data []byte) {
	w.Header().Set("Content-Type", mime)
	// Имя уже прошло санитизацию при загрузке.
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", originalName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
