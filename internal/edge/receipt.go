package edge

import (
	"net/http"

	"github.com/diviso/diviso/internal/middleware"
)

type processReceiptRequest struct {
	FilePath string `json:"file_path" validate:"required"`
}

func (h *Handler) processReceipt(w http.ResponseWriter, r *http.Request) {
	var req processReceiptRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.cfg.Receipts.Process(r.Context(), middleware.GetUserID(r.Context()), req.FilePath)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}
