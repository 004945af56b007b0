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

// SettlementService implements the Connect SettlementService.
type SettlementService struct {
	store     storage.Store
	notifier  Notifier
	publisher realtime.Publisher
	logger    *slog.Logger
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, notifier Notifier, publisher realtime.Publisher, logger *slog.Logger) *SettlementService {
	return &SettlementService{store: store, notifier: notifier, publisher: publisher, logger: orDefault(logger)}
}

// CreateSettlement records that the caller paid ToUserID. It stays pending
// until the recipient confirms or disputes it.
func (s *SettlementService) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.SettlementResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	group, err := activeGroup(ctx, s.store, msg.GroupID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.store, group.ID, userID); err != nil {
		return nil, err
	}
	if msg.ToUserID == userID {
		return nil, apperr.InvalidArgument("cannot settle with yourself")
	}
	if _, err := requireMember(ctx, s.store, group.ID, msg.ToUserID); err != nil {
		return nil, apperr.InvalidArgument("recipient is not an active member of this group")
	}
	if !msg.Amount.IsPositive() {
		return nil, apperr.InvalidArgument("amount must be positive")
	}

	currency, err := groupCurrency(msg.Currency, group)
	if err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		GroupID:    group.ID,
		FromUserID: userID,
		ToUserID:   msg.ToUserID,
		Amount:     msg.Amount,
		Currency:   currency,
		Status:     models.SettlementPending,
		Note:       strings.TrimSpace(msg.Note),
		CreatedBy:  userID,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, err
	}

	s.logger.Info("Settlement recorded", "settlement_id", settlement.ID, "group_id", group.ID)
	s.notifier.Send(ctx, settlement.ToUserID, models.NotifySettlementRecorded, map[string]interface{}{
		"settlement_id": settlement.ID,
		"group_id":      group.ID,
		"group_name":    group.Name,
		"from_user_id":  userID,
		"amount":        settlement.Amount.StringFixed(2),
		"currency":      settlement.Currency,
	})
	s.publishSettlement(ctx, settlement, realtime.OpInsert)
	return connect.NewResponse(&api.SettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// RespondSettlement lets the recipient confirm or dispute a pending
// settlement. Repeating the same answer is a no-op.
func (s *SettlementService) RespondSettlement(ctx context.Context, req *connect.Request[api.RespondSettlementRequest]) (*connect.Response[api.SettlementResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	settlement, err := s.store.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		return nil, err
	}
	if _, err := activeGroup(ctx, s.store, settlement.GroupID); err != nil {
		return nil, err
	}
	if settlement.ToUserID != userID {
		return nil, apperr.NotAuthorized("only the recipient can respond to a settlement")
	}

	status := models.SettlementStatus(req.Msg.Status)
	if status != models.SettlementConfirmed && status != models.SettlementDisputed {
		return nil, apperr.InvalidArgument("status must be confirmed or disputed")
	}
	changed := settlement.Status != status
	if err := s.store.RespondSettlement(ctx, settlement.ID, status, time.Now().Unix()); err != nil {
		return nil, err
	}
	if settlement, err = s.store.GetSettlement(ctx, settlement.ID); err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("Settlement answered", "settlement_id", settlement.ID, "status", status)
		s.notifier.Send(ctx, settlement.FromUserID, models.NotifySettlementResponded, map[string]interface{}{
			"settlement_id": settlement.ID,
			"group_id":      settlement.GroupID,
			"status":        string(status),
		})
		s.publishSettlement(ctx, settlement, realtime.OpUpdate)
	}
	return connect.NewResponse(&api.SettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns a group's settlements.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	group, err := activeGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.store, group.ID, userID); err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	resp := &api.ListSettlementsResponse{Settlements: make([]*api.Settlement, len(settlements))}
	for i, st := range settlements {
		resp.Settlements[i] = toAPISettlement(st)
	}
	return connect.NewResponse(resp), nil
}

func (s *SettlementService) publishSettlement(ctx context.Context, st *models.Settlement, op string) {
	publish(ctx, s.publisher, s.logger, realtime.Event{Table: TableSettlements, Op: op, GroupID: st.GroupID, RowID: st.ID})
}
