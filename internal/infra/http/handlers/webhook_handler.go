package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"calldrip/internal/usecase"
)

type OutcomeProcessorInterface interface {
	Process(ctx context.Context, ev usecase.CallEvent) error
}

// WebhookHandler receives call-result events from the calling provider.
// Anything past the two required fields is acknowledged with 200 no matter
// what happens internally: a non-200 would trigger provider retry storms, so
// all correctness lives in the processor's idempotent handling.
type WebhookHandler struct {
	Processor OutcomeProcessorInterface
}

func NewWebhookHandler(processor OutcomeProcessorInterface) *WebhookHandler {
	return &WebhookHandler{Processor: processor}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversationId")

	var event usecase.CallEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}

	if conversationID == "" || event.EventType == "" {
		log.Printf("⚠️ [WEBHOOK] invalid payload: conversationId=%q eventType=%q", conversationID, event.EventType)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing conversationId or eventType"})
		return
	}

	event.ConversationID = conversationID
	if err := h.Processor.Process(r.Context(), event); err != nil {
		log.Printf("❌ [WEBHOOK] processing failed for conversation %s: %v", conversationID, err)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
