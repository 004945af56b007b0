package edge

import (
	"crypto/subtle"
	"net/http"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/metrics"
	"github.com/diviso/diviso/internal/validate"
)

// WebhookSecretHeader carries the shared webhook secret. Moyasar's own
// secret_token body field is accepted when the header is absent.
const WebhookSecretHeader = "X-Webhook-Secret"

// moyasarEvent is the part of a Moyasar webhook body we read. Everything
// else is re-fetched from the API.
type moyasarEvent struct {
	Type        string `json:"type"`
	SecretToken string `json:"secret_token"`
	Data        struct {
		ID string `json:"id" validate:"required"`
	} `json:"data"`
}

var errWebhookSecret = apperr.New(apperr.KindUnauthenticated, "invalid webhook secret")

func (h *Handler) moyasarWebhook(w http.ResponseWriter, r *http.Request) {
	// The header is checked before the body is read. Only callers without
	// it fall back to the body token, and they get 401 for any body that
	// does not carry a valid one.
	header := r.Header.Get(WebhookSecretHeader)
	if header != "" && !h.validWebhookSecret(header) {
		h.rejectWebhook(w)
		return
	}

	var ev moyasarEvent
	if err := decodeJSON(r, &ev); err != nil {
		if header == "" {
			h.rejectWebhook(w)
			return
		}
		metrics.WebhookEvents.WithLabelValues("invalid").Inc()
		h.writeError(w, err)
		return
	}
	if header == "" && !h.validWebhookSecret(ev.SecretToken) {
		h.rejectWebhook(w)
		return
	}
	if err := validate.Struct(&ev); err != nil {
		metrics.WebhookEvents.WithLabelValues("invalid").Inc()
		h.writeError(w, err)
		return
	}

	outcome, err := h.cfg.Payments.HandlePayment(r.Context(), ev.Data.ID)
	if err != nil {
		result := "error"
		if apperr.KindOf(err) != apperr.KindUnknown {
			result = "rejected"
		}
		metrics.WebhookEvents.WithLabelValues(result).Inc()
		h.logger.Warn("payment webhook failed", "payment_id", ev.Data.ID, "type", ev.Type, "error", err)
		h.writeError(w, err)
		return
	}

	metrics.WebhookEvents.WithLabelValues(string(outcome)).Inc()
	h.logger.Info("payment webhook handled", "payment_id", ev.Data.ID, "type", ev.Type, "outcome", outcome)
	h.writeJSON(w, http.StatusOK, map[string]any{"received": true, "outcome": outcome})
}

func (h *Handler) validWebhookSecret(secret string) bool {
	return h.cfg.WebhookSecret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.WebhookSecret)) == 1
}

func (h *Handler) rejectWebhook(w http.ResponseWriter) {
	metrics.WebhookEvents.WithLabelValues("unauthorized").Inc()
	h.writeError(w, errWebhookSecret)
}
