package edge

import (
	"net/http"

	"github.com/diviso/diviso/internal/middleware"
)

type approveExpenseRequest struct {
	ExpenseID string `json:"expense_id" validate:"required"`
}

// approveExpense moves a pending expense to approved. Only group admins may
// approve; the first approval wins and later ones get 409.
func (h *Handler) approveExpense(w http.ResponseWriter, r *http.Request) {
	var req approveExpenseRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	userID := middleware.GetUserID(r.Context())
	expense, err := h.cfg.Expenses.Approve(r.Context(), userID, req.ExpenseID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "expense_id": expense.ID})
}
