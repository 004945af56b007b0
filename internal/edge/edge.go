// Package edge serves the plain-HTTP "edge functions" under
// /functions/v1/<name>. They answer JSON, with errors as
// {"error": message, "code": kind}.
package edge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/auth"
	"github.com/diviso/diviso/internal/middleware"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/internal/payment"
	"github.com/diviso/diviso/internal/ratelimit"
	"github.com/diviso/diviso/internal/receipt"
	"github.com/diviso/diviso/internal/validate"
)

// Prefix is the path every edge function is mounted under.
const Prefix = "/functions/v1/"

const maxBodyBytes = 1 << 20

// ExpenseApprover approves expenses on behalf of group admins.
type ExpenseApprover interface {
	Approve(ctx context.Context, userID, expenseID string) (*models.Expense, error)
}

// PaymentHandler completes purchases from gateway payments.
type PaymentHandler interface {
	HandlePayment(ctx context.Context, paymentID string) (payment.Outcome, error)
}

// ReceiptProcessor scans uploaded receipts.
type ReceiptProcessor interface {
	Process(ctx context.Context, userID, filePath string) (*receipt.Result, error)
}

// PhoneNormalizer turns user input into E.164.
type PhoneNormalizer interface {
	Normalize(raw string) (string, error)
}

// LookupStore is what the phone lookup reads.
type LookupStore interface {
	GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
}

// Config wires the edge functions. A nil dependency leaves its function
// unmounted.
type Config struct {
	JWT    *auth.JWTManager
	Logger *slog.Logger

	Expenses ExpenseApprover

	Payments      PaymentHandler
	WebhookSecret string

	Receipts ReceiptProcessor

	Lookup       LookupStore
	Phones       PhoneNormalizer
	LookupLimits ratelimit.Limiter
}

// Handler serves the edge functions.
type Handler struct {
	cfg    Config
	logger *slog.Logger
}

// New creates the edge handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{cfg: cfg, logger: logger}
}

// Register mounts every configured function on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	authed := middleware.BearerAuth(h.cfg.JWT, h.writeError)

	if h.cfg.Expenses != nil {
		mux.Handle("POST "+Prefix+"approve-expense", authed(http.HandlerFunc(h.approveExpense)))
	}
	if h.cfg.Payments != nil {
		mux.HandleFunc("POST "+Prefix+"moyasar-webhook", h.moyasarWebhook)
	}
	if h.cfg.Receipts != nil {
		mux.Handle("POST "+Prefix+"process_receipt", authed(http.HandlerFunc(h.processReceipt)))
	}
	if h.cfg.Lookup != nil && h.cfg.Phones != nil && h.cfg.LookupLimits != nil {
		mux.Handle("POST "+Prefix+"lookup-user-by-phone", authed(http.HandlerFunc(h.lookupUserByPhone)))
	}
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.InvalidArgument("request body is required")
		}
		return apperr.InvalidArgument("invalid JSON body: %v", err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write edge response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("edge function failed", "error", err)
	}
	h.writeJSON(w, status, errorBody{Error: apperr.Message(err), Code: apperr.KindOf(err).String()})
}
