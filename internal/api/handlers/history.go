package handlers

import (
	"log"
	"net/http"

	"campus-dispatch-service/internal/api/dto"
	"campus-dispatch-service/internal/services"
)

type HistoryHandler struct {
	History *services.HistoryRecorder
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.History.List(r.Context())
	if err != nil {
		log.Printf("op=list_history err=%v", err)
		writeError(w, r, http.StatusInternalServerError, "failed to read history")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ListHistoryResponse{Records: records})
}

func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.History.Clear(r.Context()); err != nil {
		log.Printf("op=clear_history err=%v", err)
		writeError(w, r, http.StatusInternalServerError, "failed to clear history")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
