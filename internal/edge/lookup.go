package edge

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/metrics"
	"github.com/diviso/diviso/internal/middleware"
)

const lookupScope = "lookup_user_by_phone"

type lookupRequest struct {
	GroupID  string `json:"group_id" validate:"required"`
	PhoneRaw string `json:"phone_raw" validate:"required,max=32"`
}

type lookupUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
}

type lookupResponse struct {
	Found        bool        `json:"found"`
	User         *lookupUser `json:"user,omitempty"`
	IsMember     bool        `json:"is_member"`
	MemberStatus string      `json:"member_status,omitempty"`
}

// lookupUserByPhone finds a profile by exact E.164 phone so a group member
// can invite them. Calls are rate limited per caller.
func (h *Handler) lookupUserByPhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	decision, err := h.cfg.LookupLimits.Allow(ctx, lookupScope+":"+userID)
	if err != nil {
		// Throttling is best effort; a limiter outage must not block lookups.
		h.logger.Warn("rate limiter unavailable", "scope", lookupScope, "error", err)
	} else if !decision.Allowed {
		metrics.RateLimitRejections.WithLabelValues(lookupScope).Inc()
		retry := decision.RetryAfter(time.Now())
		w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
		h.writeError(w, apperr.New(apperr.KindRateLimited, "too many lookups, retry in %s", retry))
		return
	}

	var req lookupRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	caller, err := h.cfg.Lookup.GetMember(ctx, req.GroupID, userID)
	if apperr.Is(err, apperr.KindNotFound) || (err == nil && !caller.Active()) {
		h.writeError(w, apperr.NotAuthorized("not a member of this group"))
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	phone, err := h.cfg.Phones.Normalize(req.PhoneRaw)
	if err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.cfg.Lookup.GetUserByPhone(ctx, phone)
	if apperr.Is(err, apperr.KindNotFound) {
		h.writeJSON(w, http.StatusOK, lookupResponse{Found: false})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := lookupResponse{
		Found: true,
		User:  &lookupUser{ID: user.ID, DisplayName: user.DisplayName, Phone: user.Phone},
	}
	member, err := h.cfg.Lookup.GetMember(ctx, req.GroupID, user.ID)
	switch {
	case err == nil && member.ArchivedAt == 0:
		resp.IsMember = member.Active()
		resp.MemberStatus = string(member.Status)
	case err != nil && !apperr.Is(err, apperr.KindNotFound):
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}
