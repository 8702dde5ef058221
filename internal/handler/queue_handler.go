// internal/handler/queue_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Agus402/crm-no-country-sub000/internal/model"
	"github.com/Agus402/crm-no-country-sub000/internal/repository"
)

// QueueHandler exposes the execution queue audit trail over HTTP.
type QueueHandler struct {
	Items repository.QueueItemRepositoryInterface
}

func NewQueueHandler(items repository.QueueItemRepositoryInterface) *QueueHandler {
	return &QueueHandler{Items: items}
}

// ListQueueItemsHandler returns queue items filtered by status.
func (h *QueueHandler) ListQueueItemsHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(model.QueueStatusPending)
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	items, err := h.Items.ListByStatus(model.QueueStatus(status), limit)
	if err != nil {
		http.Error(w, "failed to fetch queue items: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":   items,
		"status": status,
	})
}

// GetQueueItemHandler returns one queue item by ID
func (h *QueueHandler) GetQueueItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid queue item id", http.StatusBadRequest)
		return
	}

	item, err := h.Items.GetByID(id)
	if err != nil {
		http.Error(w, "failed to fetch queue item: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "queue item not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// GetQueueStatsHandler returns item counts per status
func (h *QueueHandler) GetQueueStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Items.CountByStatus()
	if err != nil {
		http.Error(w, "failed to fetch queue stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"stats": stats,
	})
}
