package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/calculator"
	"github.com/diviso/diviso/internal/lock"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/internal/notify"
	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/internal/storage"
	"github.com/diviso/diviso/pkg/api"
)

// currencyPlaces is the minor-unit precision amounts are split at.
const currencyPlaces = 2

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	store     storage.Store
	quotas    Quotas
	notifier  Notifier
	publisher realtime.Publisher
	locker    lock.Locker
	logger    *slog.Logger
}

// NewExpenseService creates an ExpenseService. Approvals of one expense are
// serialized through locker.
func NewExpenseService(store storage.Store, quotas Quotas, notifier Notifier, publisher realtime.Publisher, locker lock.Locker, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{
		store:     store,
		quotas:    quotas,
		notifier:  notifier,
		publisher: publisher,
		locker:    locker,
		logger:    orDefault(logger),
	}
}

// CreateExpense records a pending expense and notifies every debtor.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
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
	if err := s.quotas.CheckCreateExpense(ctx, userID); err != nil {
		return nil, err
	}

	if !msg.Amount.IsPositive() {
		return nil, apperr.InvalidArgument("amount must be positive")
	}
	if !msg.Amount.Equal(msg.Amount.Round(currencyPlaces)) {
		return nil, apperr.InvalidArgument("amount has more than %d decimal places", currencyPlaces)
	}

	members, err := s.store.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	active := make(map[string]*models.GroupMember, len(members))
	var activeIDs []string
	for _, m := range members {
		if m.Active() {
			active[m.UserID] = m
			activeIDs = append(activeIDs, m.UserID)
		}
	}

	payerID := msg.PayerID
	if payerID == "" {
		payerID = userID
	}
	if active[payerID] == nil {
		return nil, apperr.InvalidArgument("payer is not an active member of this group")
	}

	shares, err := buildShares(msg, activeIDs)
	if err != nil {
		return nil, err
	}
	for _, sh := range shares {
		if active[sh.MemberID] == nil {
			return nil, apperr.InvalidArgument("split member %s is not an active member of this group", sh.MemberID)
		}
	}

	if msg.PlanID != "" {
		plan, err := s.store.GetPlan(ctx, msg.PlanID)
		if err != nil {
			return nil, err
		}
		if plan.GroupID != group.ID {
			return nil, apperr.InvalidArgument("plan is not linked to this group")
		}
	}

	currency, err := groupCurrency(msg.Currency, group)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		PayerID:     payerID,
		Amount:      msg.Amount,
		Currency:    currency,
		Description: strings.TrimSpace(msg.Description),
		Status:      models.ExpensePending,
		PlanID:      msg.PlanID,
		CreatedBy:   userID,
		Splits:      make([]models.ExpenseSplit, len(shares)),
	}
	for i, sh := range shares {
		expense.Splits[i] = models.ExpenseSplit{MemberID: sh.MemberID, ShareAmount: sh.Amount}
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	s.logger.Info("Expense created", "expense_id", expense.ID, "group_id", group.ID, "splits", len(shares))

	payerName := ""
	if p := active[payerID]; p != nil {
		payerName = p.DisplayName
	}
	s.notifier.SendBalanceNotifications(ctx, notify.ExpenseInfo{
		ExpenseID:   expense.ID,
		GroupID:     group.ID,
		GroupName:   group.Name,
		PayerID:     payerID,
		PayerName:   payerName,
		Description: expense.Description,
		Currency:    expense.Currency,
		Splits:      expense.Splits,
	})
	s.publishExpense(ctx, expense, realtime.OpInsert)

	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// buildShares returns explicit splits when given, otherwise an equal split
// among SplitAmong or all active members.
func buildShares(msg *api.CreateExpenseRequest, activeIDs []string) ([]calculator.Share, error) {
	if len(msg.Splits) > 0 {
		shares := make([]calculator.Share, len(msg.Splits))
		for i, sp := range msg.Splits {
			shares[i] = calculator.Share{MemberID: sp.MemberID, Amount: sp.Amount}
		}
		if err := calculator.ValidateShares(msg.Amount, shares); err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidArgument, err, err.Error())
		}
		return shares, nil
	}

	among := msg.SplitAmong
	if len(among) == 0 {
		among = activeIDs
	}
	shares, err := calculator.EqualSplit(msg.Amount, among, currencyPlaces)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidArgument, err, err.Error())
	}
	return shares, nil
}

// ListExpenses returns a group's expenses with their splits.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListExpensesResponse], error) {
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

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	resp := &api.ListExpensesResponse{Expenses: make([]*api.Expense, len(expenses))}
	for i, e := range expenses {
		resp.Expenses[i] = toAPIExpense(e)
	}
	return connect.NewResponse(resp), nil
}

// ApproveExpense is the RPC form of Approve.
func (s *ExpenseService) ApproveExpense(ctx context.Context, req *connect.Request[api.ExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := s.Approve(ctx, userID, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// Approve moves a pending expense to approved on behalf of an admin of its
// group. The first approver wins; later attempts get apperr.KindConflict.
func (s *ExpenseService) Approve(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	if expenseID == "" {
		return nil, apperr.InvalidArgument("expense_id is required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if _, err := activeGroup(ctx, s.store, expense.GroupID); err != nil {
		return nil, err
	}
	if _, err := requireAdmin(ctx, s.store, expense.GroupID, userID); err != nil {
		return nil, err
	}

	err = s.locker.Do(ctx, "expense:"+expenseID, func(ctx context.Context) error {
		return s.store.ApproveExpense(ctx, &models.ExpenseApproval{ExpenseID: expenseID, ApprovedBy: userID})
	})
	if err != nil {
		return nil, err
	}
	if expense, err = s.store.GetExpense(ctx, expenseID); err != nil {
		return nil, err
	}

	s.logger.Info("Expense approved", "expense_id", expenseID, "approved_by", userID)
	if expense.PayerID != userID {
		s.notifier.Send(ctx, expense.PayerID, models.NotifyExpenseApproved, map[string]interface{}{
			"expense_id":          expense.ID,
			"group_id":            expense.GroupID,
			"expense_description": expense.Description,
			"approved_by":         userID,
		})
	}
	s.publishExpense(ctx, expense, realtime.OpUpdate)
	return expense, nil
}

func (s *ExpenseService) publishExpense(ctx context.Context, e *models.Expense, op string) {
	publish(ctx, s.publisher, s.logger, realtime.Event{Table: TableExpenses, Op: op, GroupID: e.GroupID, RowID: e.ID})
}
