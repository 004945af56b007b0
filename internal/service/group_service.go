package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/calculator"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/internal/storage"
	"github.com/diviso/diviso/pkg/api"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	store     storage.Store
	quotas    Quotas
	notifier  Notifier
	publisher realtime.Publisher
	logger    *slog.Logger
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, quotas Quotas, notifier Notifier, publisher realtime.Publisher, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, quotas: quotas, notifier: notifier, publisher: publisher, logger: orDefault(logger)}
}

// CreateGroup creates a group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.quotas.CheckCreateGroup(ctx, userID); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:     strings.TrimSpace(req.Msg.Name),
		Currency: currencyOr(req.Msg.Currency, DefaultCurrency),
		OwnerID:  userID,
	}
	if group.Name == "" {
		return nil, apperr.InvalidArgument("name is required")
	}
	// Save to storage (generates ID and CreatedAt, adds the owner membership)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("Group created", "group_id", group.ID, "owner_id", userID)
	return s.groupResponse(ctx, group)
}

// GetGroup returns a group the caller belongs to, including a pending invite.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	group, err := activeGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	member, err := s.store.GetMember(ctx, group.ID, userID)
	if apperr.Is(err, apperr.KindNotFound) || (err == nil && member.ArchivedAt != 0) {
		return nil, apperr.NotAuthorized("not a member of this group")
	}
	if err != nil {
		return nil, err
	}
	return s.groupResponse(ctx, group)
}

// ListGroups returns the caller's non-archived groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &api.ListGroupsResponse{Groups: make([]*api.Group, len(groups))}
	for i, g := range groups {
		resp.Groups[i] = toAPIGroup(g)
	}
	return connect.NewResponse(resp), nil
}

// InviteMember adds a pending membership. Only admins may invite.
func (s *GroupService) InviteMember(ctx context.Context, req *connect.Request[api.InviteMemberRequest]) (*connect.Response[api.MemberResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	group, err := activeGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if _, err := requireAdmin(ctx, s.store, group.ID, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUserByID(ctx, req.Msg.UserID); err != nil {
		return nil, err
	}
	if err := s.quotas.CheckAddMember(ctx, group); err != nil {
		return nil, err
	}

	role := models.RoleMember
	if req.Msg.Role != "" {
		role = models.Role(req.Msg.Role)
	}
	if err := s.store.AddMember(ctx, &models.GroupMember{
		GroupID:   group.ID,
		UserID:    req.Msg.UserID,
		Role:      role,
		Status:    models.MemberPending,
		InvitedBy: userID,
	}); err != nil {
		return nil, err
	}
	member, err := s.store.GetMember(ctx, group.ID, req.Msg.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Member invited", "group_id", group.ID, "user_id", member.UserID, "invited_by", userID)
	s.notifier.Send(ctx, member.UserID, models.NotifyGroupInvite, map[string]interface{}{
		"group_id":   group.ID,
		"group_name": group.Name,
		"invited_by": userID,
	})
	s.publishMember(ctx, group.ID, member.UserID, realtime.OpInsert)
	return connect.NewResponse(&api.MemberResponse{Member: toAPIMember(member)}), nil
}

// RespondInvite accepts (pending → active) or declines (pending → archived)
// the caller's invitation.
func (s *GroupService) RespondInvite(ctx context.Context, req *connect.Request[api.RespondInviteRequest]) (*connect.Response[api.MemberResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	group, err := activeGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	member, err := s.store.GetMember(ctx, group.ID, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("no invitation to this group")
	}
	if err != nil {
		return nil, err
	}
	if member.Status != models.MemberPending || member.ArchivedAt != 0 {
		return nil, apperr.Conflict("invitation is not pending")
	}

	status := models.MemberArchived
	if req.Msg.Accept {
		status = models.MemberActive
	}
	if err := s.store.UpdateMemberStatus(ctx, group.ID, userID, status, time.Now().Unix()); err != nil {
		return nil, err
	}
	if member, err = s.store.GetMember(ctx, group.ID, userID); err != nil {
		return nil, err
	}

	s.logger.Info("Invite answered", "group_id", group.ID, "user_id", userID, "accepted", req.Msg.Accept)
	s.publishMember(ctx, group.ID, userID, realtime.OpUpdate)
	return connect.NewResponse(&api.MemberResponse{Member: toAPIMember(member)}), nil
}

// ArchiveMember removes a member. Admins may remove anyone but the owner;
// any member may remove themselves.
func (s *GroupService) ArchiveMember(ctx context.Context, req *connect.Request[api.ArchiveMemberRequest]) (*connect.Response[api.Empty], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	group, err := activeGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if req.Msg.UserID == group.OwnerID {
		return nil, apperr.NotAuthorized("the group owner cannot be removed")
	}
	if req.Msg.UserID == userID {
		if _, err := requireMember(ctx, s.store, group.ID, userID); err != nil {
			return nil, err
		}
	} else if _, err := requireAdmin(ctx, s.store, group.ID, userID); err != nil {
		return nil, err
	}

	target, err := s.store.GetMember(ctx, group.ID, req.Msg.UserID)
	if err != nil {
		return nil, err
	}
	if target.ArchivedAt != 0 {
		return connect.NewResponse(&api.Empty{}), nil
	}
	if err := s.store.UpdateMemberStatus(ctx, group.ID, target.UserID, models.MemberArchived, time.Now().Unix()); err != nil {
		return nil, err
	}

	s.logger.Info("Member archived", "group_id", group.ID, "user_id", target.UserID, "by", userID)
	s.publishMember(ctx, group.ID, target.UserID, realtime.OpUpdate)
	return connect.NewResponse(&api.Empty{}), nil
}

// ArchiveGroup soft-deletes a group. Owner only.
func (s *GroupService) ArchiveGroup(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.Empty], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	group, err := activeGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != userID {
		return nil, apperr.NotAuthorized("only the group owner can archive it")
	}
	if err := s.store.ArchiveGroup(ctx, group.ID, time.Now().Unix()); err != nil {
		return nil, err
	}

	s.logger.Info("Group archived", "group_id", group.ID)
	return connect.NewResponse(&api.Empty{}), nil
}

// GetGroupBalances calculates balances across approved expenses and
// confirmed settlements.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
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
	settlements, err := s.store.ListSettlementsByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	var forBalance []calculator.ExpenseForBalance
	for _, e := range expenses {
		if e.Status != models.ExpenseApproved {
			continue
		}
		shares := make([]calculator.Share, len(e.Splits))
		for i, sp := range e.Splits {
			shares[i] = calculator.Share{MemberID: sp.MemberID, Amount: sp.ShareAmount}
		}
		forBalance = append(forBalance, calculator.ExpenseForBalance{PayerID: e.PayerID, Amount: e.Amount, Shares: shares})
	}
	var paid []calculator.SettlementForBalance
	for _, st := range settlements {
		if st.Status != models.SettlementConfirmed {
			continue
		}
		paid = append(paid, calculator.SettlementForBalance{FromUserID: st.FromUserID, ToUserID: st.ToUserID, Amount: st.Amount})
	}

	balances, debts := calculator.CalculateGroupBalances(forBalance, paid)

	s.logger.Info("GetGroupBalances successful",
		"group_id", group.ID,
		"expenses_count", len(forBalance),
		"settlements_count", len(paid),
		"debts_count", len(debts),
	)
	return connect.NewResponse(toAPIBalances(balances, debts)), nil
}

func (s *GroupService) groupResponse(ctx context.Context, group *models.Group) (*connect.Response[api.GroupResponse], error) {
	members, err := s.store.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GroupResponse{Group: toAPIGroup(group), Members: toAPIMembers(members)}), nil
}

func (s *GroupService) publishMember(ctx context.Context, groupID, userID, op string) {
	publish(ctx, s.publisher, s.logger, realtime.Event{
		Table:   TableGroupMembers,
		Op:      op,
		GroupID: groupID,
		UserID:  userID,
		RowID:   groupID + ":" + userID,
	})
}
