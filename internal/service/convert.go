package service

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"

	"github.com/diviso/diviso/internal/calculator"
	"github.com/diviso/diviso/internal/checkin"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		Tier:        string(u.Tier),
		Credits:     u.Credits,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		ID:         g.ID,
		Name:       g.Name,
		Currency:   g.Currency,
		OwnerID:    g.OwnerID,
		CreatedAt:  g.CreatedAt,
		ArchivedAt: g.ArchivedAt,
	}
}

func toAPIMember(m *models.GroupMember) *api.Member {
	return &api.Member{
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Role:        string(m.Role),
		Status:      string(m.Status),
		InvitedBy:   m.InvitedBy,
		JoinedAt:    m.JoinedAt,
	}
}

func toAPIMembers(members []*models.GroupMember) []*api.Member {
	out := make([]*api.Member, len(members))
	for i, m := range members {
		out[i] = toAPIMember(m)
	}
	return out
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]*api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = &api.Split{MemberID: s.MemberID, Amount: s.ShareAmount}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Description: e.Description,
		Status:      string(e.Status),
		PlanID:      e.PlanID,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		ApprovedBy:  e.ApprovedBy,
		ApprovedAt:  e.ApprovedAt,
		Splits:      splits,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:          s.ID,
		GroupID:     s.GroupID,
		FromUserID:  s.FromUserID,
		ToUserID:    s.ToUserID,
		Amount:      s.Amount,
		Currency:    s.Currency,
		Status:      string(s.Status),
		Note:        s.Note,
		CreatedAt:   s.CreatedAt,
		RespondedAt: s.RespondedAt,
	}
}

func toAPINotification(n *models.Notification) (*api.Notification, error) {
	payload := json.RawMessage("{}")
	if n.Payload != nil {
		data, err := protojson.Marshal(n.Payload)
		if err != nil {
			return nil, err
		}
		payload = data
	}
	return &api.Notification{
		ID:        n.ID,
		Type:      string(n.Type),
		Payload:   payload,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}, nil
}

func toAPIBalanceNotification(bn *models.BalanceNotification) *api.BalanceNotification {
	return &api.BalanceNotification{
		ID:             bn.ID,
		GroupID:        bn.GroupID,
		ExpenseID:      bn.ExpenseID,
		PayerID:        bn.PayerID,
		AmountDue:      bn.AmountDue,
		Currency:       bn.Currency,
		Status:         string(bn.Status),
		NotificationID: bn.NotificationID,
		CreatedAt:      bn.CreatedAt,
		PaidAt:         bn.PaidAt,
	}
}

func toAPIPlan(p *models.Plan) *api.Plan {
	return &api.Plan{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Destination: p.Destination,
		Currency:    p.Currency,
		Budget:      p.Budget,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Status:      string(p.Status),
		GroupID:     p.GroupID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toAPIPurchase(p *models.CreditPurchase) *api.Purchase {
	return &api.Purchase{
		ID:          p.ID,
		PackageCode: p.PackageCode,
		Credits:     p.Credits,
		AmountMinor: p.AmountMinor,
		Currency:    p.Currency,
		Status:      string(p.Status),
		PaymentID:   p.PaymentID,
		CreatedAt:   p.CreatedAt,
		CompletedAt: p.CompletedAt,
	}
}

func toAPIWeek(week []checkin.DaySlot) []*api.DaySlot {
	out := make([]*api.DaySlot, len(week))
	for i, d := range week {
		out[i] = &api.DaySlot{Day: d.Day, Reward: d.Reward, Completed: d.Completed, IsToday: d.IsToday}
	}
	return out
}

func toAPIBalances(balances []calculator.MemberBalance, debts []calculator.DebtEdge) *api.GetGroupBalancesResponse {
	resp := &api.GetGroupBalancesResponse{
		Balances: make([]*api.MemberBalance, len(balances)),
		Debts:    make([]*api.DebtEdge, len(debts)),
	}
	for i, b := range balances {
		resp.Balances[i] = &api.MemberBalance{
			MemberID:   b.MemberID,
			NetBalance: b.NetBalance,
			TotalPaid:  b.TotalPaid,
			TotalOwed:  b.TotalOwed,
		}
	}
	for i, d := range debts {
		resp.Debts[i] = &api.DebtEdge{From: d.From, To: d.To, Amount: d.Amount}
	}
	return resp
}
