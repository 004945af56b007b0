package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/internal/storage"
	"github.com/diviso/diviso/pkg/api"
)

// PlanService implements the Connect PlanService.
type PlanService struct {
	store     storage.Store
	quotas    Quotas
	publisher realtime.Publisher
	logger    *slog.Logger
}

// NewPlanService creates a PlanService.
func NewPlanService(store storage.Store, quotas Quotas, publisher realtime.Publisher, logger *slog.Logger) *PlanService {
	return &PlanService{store: store, quotas: quotas, publisher: publisher, logger: orDefault(logger)}
}

// CreatePlan starts a draft plan owned by the caller.
func (s *PlanService) CreatePlan(ctx context.Context, req *connect.Request[api.CreatePlanRequest]) (*connect.Response[api.PlanResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	if msg.Budget.IsNegative() {
		return nil, apperr.InvalidArgument("budget cannot be negative")
	}
	// YYYY-MM-DD compares correctly as a string.
	if msg.StartDate != "" && msg.EndDate != "" && msg.EndDate < msg.StartDate {
		return nil, apperr.InvalidArgument("end_date is before start_date")
	}

	plan := &models.Plan{
		OwnerID:     userID,
		Name:        strings.TrimSpace(msg.Name),
		Destination: strings.TrimSpace(msg.Destination),
		Currency:    currencyOr(msg.Currency, DefaultCurrency),
		Budget:      msg.Budget,
		StartDate:   msg.StartDate,
		EndDate:     msg.EndDate,
		Status:      models.PlanDraft,
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	s.logger.Info("Plan created", "plan_id", plan.ID, "owner_id", userID)
	return connect.NewResponse(&api.PlanResponse{Plan: toAPIPlan(plan)}), nil
}

// GetPlan returns a plan visible to the caller: their own, or one linked to
// a group they are an active member of.
func (s *PlanService) GetPlan(ctx context.Context, req *connect.Request[api.PlanRequest]) (*connect.Response[api.PlanResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := s.store.GetPlan(ctx, req.Msg.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.OwnerID != userID {
		if plan.GroupID == "" {
			return nil, apperr.NotAuthorized("not your plan")
		}
		if _, err := requireMember(ctx, s.store, plan.GroupID, userID); err != nil {
			return nil, err
		}
	}
	return connect.NewResponse(&api.PlanResponse{Plan: toAPIPlan(plan)}), nil
}

// ListPlans returns the caller's plans.
func (s *PlanService) ListPlans(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListPlansResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := s.store.ListPlansByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &api.ListPlansResponse{Plans: make([]*api.Plan, len(plans))}
	for i, p := range plans {
		resp.Plans[i] = toAPIPlan(p)
	}
	return connect.NewResponse(resp), nil
}

// UpdatePlanStatus moves the plan along its status machine.
func (s *PlanService) UpdatePlanStatus(ctx context.Context, req *connect.Request[api.UpdatePlanStatusRequest]) (*connect.Response[api.PlanResponse], error) {
	plan, err := s.ownedPlan(ctx, req.Msg.PlanID)
	if err != nil {
		return nil, err
	}
	to := models.PlanStatus(req.Msg.Status)
	if !to.Valid() {
		return nil, apperr.InvalidArgument("unknown plan status %q", req.Msg.Status)
	}
	if !plan.Status.CanTransitionTo(to) {
		return nil, apperr.Conflict("cannot move plan from %s to %s", plan.Status, to)
	}
	if err := s.store.UpdatePlanStatus(ctx, plan.ID, plan.Status, to, time.Now().Unix()); err != nil {
		return nil, err
	}
	return s.reload(ctx, plan.ID, realtime.OpUpdate)
}

// ConvertPlanToGroup creates a group for the plan, owned by the plan owner,
// and links the two.
func (s *PlanService) ConvertPlanToGroup(ctx context.Context, req *connect.Request[api.PlanRequest]) (*connect.Response[api.ConvertPlanToGroupResponse], error) {
	plan, err := s.ownedPlan(ctx, req.Msg.PlanID)
	if err != nil {
		return nil, err
	}
	if err := s.quotas.CheckCreateGroup(ctx, plan.OwnerID); err != nil {
		return nil, err
	}

	group := &models.Group{Name: plan.Name, Currency: plan.Currency, OwnerID: plan.OwnerID}
	if err := s.store.ConvertPlanToGroup(ctx, plan.ID, group); err != nil {
		return nil, err
	}
	if plan, err = s.store.GetPlan(ctx, plan.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Plan converted to group", "plan_id", plan.ID, "group_id", group.ID)
	publish(ctx, s.publisher, s.logger, realtime.Event{Table: TablePlans, Op: realtime.OpUpdate, GroupID: group.ID, UserID: plan.OwnerID, RowID: plan.ID})
	return connect.NewResponse(&api.ConvertPlanToGroupResponse{Plan: toAPIPlan(plan), Group: toAPIGroup(group)}), nil
}

// LinkPlanToGroup attaches the plan to a group its owner actively belongs to.
func (s *PlanService) LinkPlanToGroup(ctx context.Context, req *connect.Request[api.LinkPlanToGroupRequest]) (*connect.Response[api.PlanResponse], error) {
	plan, err := s.ownedPlan(ctx, req.Msg.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.Status == models.PlanCanceled {
		return nil, apperr.Conflict("canceled plans cannot be linked")
	}
	group, err := activeGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.store, group.ID, plan.OwnerID); err != nil {
		return nil, err
	}
	if err := s.store.LinkPlanToGroup(ctx, plan.ID, group.ID, time.Now().Unix()); err != nil {
		return nil, err
	}
	return s.reload(ctx, plan.ID, realtime.OpUpdate)
}

// ownedPlan loads a plan the caller owns.
func (s *PlanService) ownedPlan(ctx context.Context, planID string) (*models.Plan, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.OwnerID != userID {
		return nil, apperr.NotAuthorized("only the plan owner can do this")
	}
	return plan, nil
}

func (s *PlanService) reload(ctx context.Context, planID, op string) (*connect.Response[api.PlanResponse], error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, s.logger, realtime.Event{Table: TablePlans, Op: op, GroupID: plan.GroupID, UserID: plan.OwnerID, RowID: plan.ID})
	return connect.NewResponse(&api.PlanResponse{Plan: toAPIPlan(plan)}), nil
}
