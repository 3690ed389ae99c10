package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// whatsAppPayload is the subset of a Cloud API webhook notification we read.
type whatsAppPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					From string `json:"from"`
					Text *struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// inboundMessage is a text message addressed to one of our numbers.
type inboundMessage struct {
	PhoneNumberID string
	From          string
	Text          string
}

// parseWhatsApp extracts the first text message of a notification.
// The boolean is false for status updates and anything malformed.
func parseWhatsApp(body []byte) (inboundMessage, bool) {
	var payload whatsAppPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return inboundMessage{}, false
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return inboundMessage{}, false
	}

	value := payload.Entry[0].Changes[0].Value
	if value.Metadata.PhoneNumberID == "" || len(value.Messages) == 0 {
		return inboundMessage{}, false
	}

	msg := value.Messages[0]
	if msg.From == "" || msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
		return inboundMessage{}, false
	}

	return inboundMessage{
		PhoneNumberID: value.Metadata.PhoneNumberID,
		From:          msg.From,
		Text:          msg.Text.Body,
	}, true
}

// handleWhatsAppVerify answers the webhook subscription handshake.
func (s *Server) handleWhatsAppVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if s.config.WhatsAppVerifyToken == "" ||
		q.Get("hub.mode") != "subscribe" ||
		q.Get("hub.verify_token") != s.config.WhatsAppVerifyToken {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// handleWhatsAppMessage answers an inbound chat message and replies.
//
// The webhook always acknowledges with 200 once a message is parsed, so
// the platform does not redeliver it; failures are logged and reported
// as ok=false.
func (s *Server) handleWhatsAppMessage(w http.ResponseWriter, r *http.Request) {
	body, err := readLimited(r, 1<<20)
	if err != nil {
		sendJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	msg, ok := parseWhatsApp(body)
	if !ok {
		sendJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	logger.Debug("WhatsApp message from %s to %s", msg.From, msg.PhoneNumberID)

	result, err := s.ports.Ask.Ask(r.Context(), domain.AskRequest{
		Question: msg.Text,
		TopK:     s.config.WhatsAppTopK,
	})
	if err != nil {
		logger.Error("WhatsApp ask failed: %v", err)
		sendJSON(w, http.StatusOK, map[string]bool{"ok": false})
		return
	}

	if s.ports.Messenger == nil {
		logger.Warn("WhatsApp reply skipped: messenger not configured")
		sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if err := s.ports.Messenger.SendText(r.Context(), msg.PhoneNumberID, msg.From, result.Answer); err != nil {
		logger.Error("WhatsApp reply failed: %v", err)
		sendJSON(w, http.StatusOK, map[string]bool{"ok": false})
		return
	}

	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
