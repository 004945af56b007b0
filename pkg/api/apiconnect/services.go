package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/pkg/api"
)

// Fully-qualified service names.
const (
	AuthServiceName         = "diviso.v1.AuthService"
	GroupServiceName        = "diviso.v1.GroupService"
	ExpenseServiceName      = "diviso.v1.ExpenseService"
	SettlementServiceName   = "diviso.v1.SettlementService"
	NotificationServiceName = "diviso.v1.NotificationService"
	CheckinServiceName      = "diviso.v1.CheckinService"
	PlanServiceName         = "diviso.v1.PlanService"
	CreditServiceName       = "diviso.v1.CreditService"
	RealtimeServiceName     = "diviso.v1.RealtimeService"
)

// Procedure paths as they appear in URLs and in connect.Spec.Procedure.
const (
	AuthServiceRegisterProcedure                         = "/diviso.v1.AuthService/Register"
	AuthServiceLoginProcedure                            = "/diviso.v1.AuthService/Login"
	AuthServiceLogoutProcedure                           = "/diviso.v1.AuthService/Logout"
	AuthServiceGetCurrentUserProcedure                   = "/diviso.v1.AuthService/GetCurrentUser"
	GroupServiceCreateGroupProcedure                     = "/diviso.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure                        = "/diviso.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure                      = "/diviso.v1.GroupService/ListGroups"
	GroupServiceInviteMemberProcedure                    = "/diviso.v1.GroupService/InviteMember"
	GroupServiceRespondInviteProcedure                   = "/diviso.v1.GroupService/RespondInvite"
	GroupServiceArchiveMemberProcedure                   = "/diviso.v1.GroupService/ArchiveMember"
	GroupServiceArchiveGroupProcedure                    = "/diviso.v1.GroupService/ArchiveGroup"
	GroupServiceGetGroupBalancesProcedure                = "/diviso.v1.GroupService/GetGroupBalances"
	ExpenseServiceCreateExpenseProcedure                 = "/diviso.v1.ExpenseService/CreateExpense"
	ExpenseServiceListExpensesProcedure                  = "/diviso.v1.ExpenseService/ListExpenses"
	ExpenseServiceApproveExpenseProcedure                = "/diviso.v1.ExpenseService/ApproveExpense"
	SettlementServiceCreateSettlementProcedure           = "/diviso.v1.SettlementService/CreateSettlement"
	SettlementServiceRespondSettlementProcedure          = "/diviso.v1.SettlementService/RespondSettlement"
	SettlementServiceListSettlementsProcedure            = "/diviso.v1.SettlementService/ListSettlements"
	NotificationServiceListNotificationsProcedure        = "/diviso.v1.NotificationService/ListNotifications"
	NotificationServiceMarkNotificationReadProcedure     = "/diviso.v1.NotificationService/MarkNotificationRead"
	NotificationServiceListBalanceNotificationsProcedure = "/diviso.v1.NotificationService/ListBalanceNotifications"
	NotificationServiceMarkBalancePaidProcedure          = "/diviso.v1.NotificationService/MarkBalancePaid"
	CheckinServiceGetCheckinStatusProcedure              = "/diviso.v1.CheckinService/GetCheckinStatus"
	CheckinServiceProcessCheckinProcedure                = "/diviso.v1.CheckinService/ProcessCheckin"
	PlanServiceCreatePlanProcedure                       = "/diviso.v1.PlanService/CreatePlan"
	PlanServiceGetPlanProcedure                          = "/diviso.v1.PlanService/GetPlan"
	PlanServiceListPlansProcedure                        = "/diviso.v1.PlanService/ListPlans"
	PlanServiceUpdatePlanStatusProcedure                 = "/diviso.v1.PlanService/UpdatePlanStatus"
	PlanServiceConvertPlanToGroupProcedure               = "/diviso.v1.PlanService/ConvertPlanToGroup"
	PlanServiceLinkPlanToGroupProcedure                  = "/diviso.v1.PlanService/LinkPlanToGroup"
	CreditServiceListPackagesProcedure                   = "/diviso.v1.CreditService/ListPackages"
	CreditServiceCreatePurchaseProcedure                 = "/diviso.v1.CreditService/CreatePurchase"
	CreditServiceGetPurchaseProcedure                    = "/diviso.v1.CreditService/GetPurchase"
	RealtimeServiceWatchProcedure                        = "/diviso.v1.RealtimeService/Watch"
)

// AuthServiceHandler is implemented by the server. It covers registration and sessions.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error)
	Logout(context.Context, *connect.Request[api.Empty]) (*connect.Response[api.Empty], error)
	GetCurrentUser(context.Context, *connect.Request[api.Empty]) (*connect.Response[api.GetCurrentUserResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from svc. It returns the path to
// mount it on.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...))
	mux.Handle(AuthServiceLogoutProcedure, connect.NewUnaryHandler(AuthServiceLogoutProcedure, svc.Logout, opts...))
	mux.Handle(AuthServiceGetCurrentUserProcedure, connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...))
	return "/" + AuthServiceName + "/", mux
}

// AuthServiceClient calls AuthService.
type AuthServiceClient struct {
	register       *connect.Client[api.RegisterRequest, api.AuthResponse]
	login          *connect.Client[api.LoginRequest, api.AuthResponse]
	logout         *connect.Client[api.Empty, api.Empty]
	getCurrentUser *connect.Client[api.Empty, api.GetCurrentUserResponse]
}

// NewAuthServiceClient creates a client for the server at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	opts = clientOptions(opts)
	return &AuthServiceClient{
		register:       connect.NewClient[api.RegisterRequest, api.AuthResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:          connect.NewClient[api.LoginRequest, api.AuthResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		logout:         connect.NewClient[api.Empty, api.Empty](httpClient, baseURL+AuthServiceLogoutProcedure, opts...),
		getCurrentUser: connect.NewClient[api.Empty, api.GetCurrentUserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Logout(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.Empty], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

// GroupServiceHandler is implemented by the server. It covers groups, membership and balances.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.GroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GroupRequest]) (*connect.Response[api.GroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.Empty]) (*connect.Response[api.ListGroupsResponse], error)
	InviteMember(context.Context, *connect.Request[api.InviteMemberRequest]) (*connect.Response[api.MemberResponse], error)
	RespondInvite(context.Context, *connect.Request[api.RespondInviteRequest]) (*connect.Response[api.MemberResponse], error)
	ArchiveMember(context.Context, *connect.Request[api.ArchiveMemberRequest]) (*connect.Response[api.Empty], error)
	ArchiveGroup(context.Context, *connect.Request[api.GroupRequest]) (*connect.Response[api.Empty], error)
	GetGroupBalances(context.Context, *connect.Request[api.GroupRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from svc. It returns the path to
// mount it on.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupServiceGetGroupProcedure, connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(GroupServiceListGroupsProcedure, connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(GroupServiceInviteMemberProcedure, connect.NewUnaryHandler(GroupServiceInviteMemberProcedure, svc.InviteMember, opts...))
	mux.Handle(GroupServiceRespondInviteProcedure, connect.NewUnaryHandler(GroupServiceRespondInviteProcedure, svc.RespondInvite, opts...))
	mux.Handle(GroupServiceArchiveMemberProcedure, connect.NewUnaryHandler(GroupServiceArchiveMemberProcedure, svc.ArchiveMember, opts...))
	mux.Handle(GroupServiceArchiveGroupProcedure, connect.NewUnaryHandler(GroupServiceArchiveGroupProcedure, svc.ArchiveGroup, opts...))
	mux.Handle(GroupServiceGetGroupBalancesProcedure, connect.NewUnaryHandler(GroupServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...))
	return "/" + GroupServiceName + "/", mux
}

// GroupServiceClient calls GroupService.
type GroupServiceClient struct {
	createGroup      *connect.Client[api.CreateGroupRequest, api.GroupResponse]
	getGroup         *connect.Client[api.GroupRequest, api.GroupResponse]
	listGroups       *connect.Client[api.Empty, api.ListGroupsResponse]
	inviteMember     *connect.Client[api.InviteMemberRequest, api.MemberResponse]
	respondInvite    *connect.Client[api.RespondInviteRequest, api.MemberResponse]
	archiveMember    *connect.Client[api.ArchiveMemberRequest, api.Empty]
	archiveGroup     *connect.Client[api.GroupRequest, api.Empty]
	getGroupBalances *connect.Client[api.GroupRequest, api.GetGroupBalancesResponse]
}

// NewGroupServiceClient creates a client for the server at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = clientOptions(opts)
	return &GroupServiceClient{
		createGroup:      connect.NewClient[api.CreateGroupRequest, api.GroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:         connect.NewClient[api.GroupRequest, api.GroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:       connect.NewClient[api.Empty, api.ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		inviteMember:     connect.NewClient[api.InviteMemberRequest, api.MemberResponse](httpClient, baseURL+GroupServiceInviteMemberProcedure, opts...),
		respondInvite:    connect.NewClient[api.RespondInviteRequest, api.MemberResponse](httpClient, baseURL+GroupServiceRespondInviteProcedure, opts...),
		archiveMember:    connect.NewClient[api.ArchiveMemberRequest, api.Empty](httpClient, baseURL+GroupServiceArchiveMemberProcedure, opts...),
		archiveGroup:     connect.NewClient[api.GroupRequest, api.Empty](httpClient, baseURL+GroupServiceArchiveGroupProcedure, opts...),
		getGroupBalances: connect.NewClient[api.GroupRequest, api.GetGroupBalancesResponse](httpClient, baseURL+GroupServiceGetGroupBalancesProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) InviteMember(ctx context.Context, req *connect.Request[api.InviteMemberRequest]) (*connect.Response[api.MemberResponse], error) {
	return c.inviteMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RespondInvite(ctx context.Context, req *connect.Request[api.RespondInviteRequest]) (*connect.Response[api.MemberResponse], error) {
	return c.respondInvite.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ArchiveMember(ctx context.Context, req *connect.Request[api.ArchiveMemberRequest]) (*connect.Response[api.Empty], error) {
	return c.archiveMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ArchiveGroup(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.Empty], error) {
	return c.archiveGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

// ExpenseServiceHandler is implemented by the server. It covers expenses and approvals.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.GroupRequest]) (*connect.Response[api.ListExpensesResponse], error)
	ApproveExpense(context.Context, *connect.Request[api.ExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from svc. It returns the path to
// mount it on.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(ExpenseServiceCreateExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(ExpenseServiceListExpensesProcedure, connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(ExpenseServiceApproveExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceApproveExpenseProcedure, svc.ApproveExpense, opts...))
	return "/" + ExpenseServiceName + "/", mux
}

// ExpenseServiceClient calls ExpenseService.
type ExpenseServiceClient struct {
	createExpense  *connect.Client[api.CreateExpenseRequest, api.ExpenseResponse]
	listExpenses   *connect.Client[api.GroupRequest, api.ListExpensesResponse]
	approveExpense *connect.Client[api.ExpenseRequest, api.ExpenseResponse]
}

// NewExpenseServiceClient creates a client for the server at baseURL.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		createExpense:  connect.NewClient[api.CreateExpenseRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		listExpenses:   connect.NewClient[api.GroupRequest, api.ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		approveExpense: connect.NewClient[api.ExpenseRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceApproveExpenseProcedure, opts...),
	}
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ApproveExpense(ctx context.Context, req *connect.Request[api.ExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.approveExpense.CallUnary(ctx, req)
}

// SettlementServiceHandler is implemented by the server. It covers recorded payments between members.
type SettlementServiceHandler interface {
	CreateSettlement(context.Context, *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.SettlementResponse], error)
	RespondSettlement(context.Context, *connect.Request[api.RespondSettlementRequest]) (*connect.Response[api.SettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.GroupRequest]) (*connect.Response[api.ListSettlementsResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler from svc. It returns the path to
// mount it on.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(SettlementServiceCreateSettlementProcedure, connect.NewUnaryHandler(SettlementServiceCreateSettlementProcedure, svc.CreateSettlement, opts...))
	mux.Handle(SettlementServiceRespondSettlementProcedure, connect.NewUnaryHandler(SettlementServiceRespondSettlementProcedure, svc.RespondSettlement, opts...))
	mux.Handle(SettlementServiceListSettlementsProcedure, connect.NewUnaryHandler(SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts...))
	return "/" + SettlementServiceName + "/", mux
}

// SettlementServiceClient calls SettlementService.
type SettlementServiceClient struct {
	createSettlement  *connect.Client[api.CreateSettlementRequest, api.SettlementResponse]
	respondSettlement *connect.Client[api.RespondSettlementRequest, api.SettlementResponse]
	listSettlements   *connect.Client[api.GroupRequest, api.ListSettlementsResponse]
}

// NewSettlementServiceClient creates a client for the server at baseURL.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SettlementServiceClient {
	opts = clientOptions(opts)
	return &SettlementServiceClient{
		createSettlement:  connect.NewClient[api.CreateSettlementRequest, api.SettlementResponse](httpClient, baseURL+SettlementServiceCreateSettlementProcedure, opts...),
		respondSettlement: connect.NewClient[api.RespondSettlementRequest, api.SettlementResponse](httpClient, baseURL+SettlementServiceRespondSettlementProcedure, opts...),
		listSettlements:   connect.NewClient[api.GroupRequest, api.ListSettlementsResponse](httpClient, baseURL+SettlementServiceListSettlementsProcedure, opts...),
	}
}

func (c *SettlementServiceClient) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.SettlementResponse], error) {
	return c.createSettlement.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) RespondSettlement(ctx context.Context, req *connect.Request[api.RespondSettlementRequest]) (*connect.Response[api.SettlementResponse], error) {
	return c.respondSettlement.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

// NotificationServiceHandler is implemented by the server. It covers the inbox and balance notifications.
type NotificationServiceHandler interface {
	ListNotifications(context.Context, *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error)
	MarkNotificationRead(context.Context, *connect.Request[api.NotificationRequest]) (*connect.Response[api.Empty], error)
	ListBalanceNotifications(context.Context, *connect.Request[api.ListBalanceNotificationsRequest]) (*connect.Response[api.ListBalanceNotificationsResponse], error)
	MarkBalancePaid(context.Context, *connect.Request[api.MarkBalancePaidRequest]) (*connect.Response[api.BalanceNotificationResponse], error)
}

// NewNotificationServiceHandler builds an HTTP handler from svc. It returns the path to
// mount it on.
func NewNotificationServiceHandler(svc NotificationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(NotificationServiceListNotificationsProcedure, connect.NewUnaryHandler(NotificationServiceListNotificationsProcedure, svc.ListNotifications, opts...))
	mux.Handle(NotificationServiceMarkNotificationReadProcedure, connect.NewUnaryHandler(NotificationServiceMarkNotificationReadProcedure, svc.MarkNotificationRead, opts...))
	mux.Handle(NotificationServiceListBalanceNotificationsProcedure, connect.NewUnaryHandler(NotificationServiceListBalanceNotificationsProcedure, svc.ListBalanceNotifications, opts...))
	mux.Handle(NotificationServiceMarkBalancePaidProcedure, connect.NewUnaryHandler(NotificationServiceMarkBalancePaidProcedure, svc.MarkBalancePaid, opts...))
	return "/" + NotificationServiceName + "/", mux
}

// NotificationServiceClient calls NotificationService.
type NotificationServiceClient struct {
	listNotifications        *connect.Client[api.ListNotificationsRequest, api.ListNotificationsResponse]
	markNotificationRead     *connect.Client[api.NotificationRequest, api.Empty]
	listBalanceNotifications *connect.Client[api.ListBalanceNotificationsRequest, api.ListBalanceNotificationsResponse]
	markBalancePaid          *connect.Client[api.MarkBalancePaidRequest, api.BalanceNotificationResponse]
}

// NewNotificationServiceClient creates a client for the server at baseURL.
func NewNotificationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *NotificationServiceClient {
	opts = clientOptions(opts)
	return &NotificationServiceClient{
		listNotifications:        connect.NewClient[api.ListNotificationsRequest, api.ListNotificationsResponse](httpClient, baseURL+NotificationServiceListNotificationsProcedure, opts...),
		markNotificationRead:     connect.NewClient[api.NotificationRequest, api.Empty](httpClient, baseURL+NotificationServiceMarkNotificationReadProcedure, opts...),
		listBalanceNotifications: connect.NewClient[api.ListBalanceNotificationsRequest, api.ListBalanceNotificationsResponse](httpClient, baseURL+NotificationServiceListBalanceNotificationsProcedure, opts...),
		markBalancePaid:          connect.NewClient[api.MarkBalancePaidRequest, api.BalanceNotificationResponse](httpClient, baseURL+NotificationServiceMarkBalancePaidProcedure, opts...),
	}
}

func (c *NotificationServiceClient) ListNotifications(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	return c.listNotifications.CallUnary(ctx, req)
}

func (c *NotificationServiceClient) MarkNotificationRead(ctx context.Context, req *connect.Request[api.NotificationRequest]) (*connect.Response[api.Empty], error) {
	return c.markNotificationRead.CallUnary(ctx, req)
}

func (c *NotificationServiceClient) ListBalanceNotifications(ctx context.Context, req *connect.Request[api.ListBalanceNotificationsRequest]) (*connect.Response[api.ListBalanceNotificationsResponse], error) {
	return c.listBalanceNotifications.CallUnary(ctx, req)
}

func (c *NotificationServiceClient) MarkBalancePaid(ctx context.Context, req *connect.Request[api.MarkBalancePaidRequest]) (*connect.Response[api.BalanceNotificationResponse], error) {
	return c.markBalancePaid.CallUnary(ctx, req)
}

// CheckinServiceHandler is implemented by the server. It covers daily check-in streaks.
type CheckinServiceHandler interface {
	GetCheckinStatus(context.Context, *connect.Request[api.Empty]) (*connect.Response[api.CheckinStatusResponse], error)
	ProcessCheckin(context.Context, *connect.Request[api.Empty]) (*connect.Response[api.CheckinResponse], error)
}

// NewCheckinServiceHandler builds an HTTP handler from svc. It returns the path to
// mount it on.
func NewCheckinServiceHandler(svc CheckinServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(CheckinServiceGetCheckinStatusProcedure, connect.NewUnaryHandler(CheckinServiceGetCheckinStatusProcedure, svc.GetCheckinStatus, opts...))
	mux.Handle(CheckinServiceProcessCheckinProcedure, connect.NewUnaryHandler(CheckinServiceProcessCheckinProcedure, svc.ProcessCheckin, opts...))
	return "/" + CheckinServiceName + "/", mux
}

// CheckinServiceClient calls CheckinService.
type CheckinServiceClient struct {
	getCheckinStatus *connect.Client[api.Empty, api.CheckinStatusResponse]
	processCheckin   *connect.Client[api.Empty, api.CheckinResponse]
}

// NewCheckinServiceClient creates a client for the server at baseURL.
func NewCheckinServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CheckinServiceClient {
	opts = clientOptions(opts)
	return &CheckinServiceClient{
		getCheckinStatus: connect.NewClient[api.Empty, api.CheckinStatusResponse](httpClient, baseURL+CheckinServiceGetCheckinStatusProcedure, opts...),
		processCheckin:   connect.NewClient[api.Empty, api.CheckinResponse](httpClient, baseURL+CheckinServiceProcessCheckinProcedure, opts...),
	}
}

func (c *CheckinServiceClient) GetCheckinStatus(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.CheckinStatusResponse], error) {
	return c.getCheckinStatus.CallUnary(ctx, req)
}

func (c *CheckinServiceClient) ProcessCheckin(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.CheckinResponse], error) {
	return c.processCheckin.CallUnary(ctx, req)
}

// PlanServiceHandler is implemented by the server. It covers trip and event plans.
type PlanServiceHandler interface {
	CreatePlan(context.Context, *connect.Request[api.CreatePlanRequest]) (*connect.Response[api.PlanResponse], error)
	GetPlan(context.Context, *connect.Request[api.PlanRequest]) (*connect.Response[api.PlanResponse], error)
	ListPlans(context.Context, *connect.Request[api.Empty]) (*connect.Response[api.ListPlansResponse], error)
	UpdatePlanStatus(context.Context, *connect.Request[api.UpdatePlanStatusRequest]) (*connect.Response[api.PlanResponse], error)
	ConvertPlanToGroup(context.Context, *connect.Request[api.PlanRequest]) (*connect.Response[api.ConvertPlanToGroupResponse], error)
	LinkPlanToGroup(context.Context, *connect.Request[api.LinkPlanToGroupRequest]) (*connect.Response[api.PlanResponse], error)
}

// NewPlanServiceHandler builds an HTTP handler from svc. It returns the path to
// mount it on.
func NewPlanServiceHandler(svc PlanServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(PlanServiceCreatePlanProcedure, connect.NewUnaryHandler(PlanServiceCreatePlanProcedure, svc.CreatePlan, opts...))
	mux.Handle(PlanServiceGetPlanProcedure, connect.NewUnaryHandler(PlanServiceGetPlanProcedure, svc.GetPlan, opts...))
	mux.Handle(PlanServiceListPlansProcedure, connect.NewUnaryHandler(PlanServiceListPlansProcedure, svc.ListPlans, opts...))
	mux.Handle(PlanServiceUpdatePlanStatusProcedure, connect.NewUnaryHandler(PlanServiceUpdatePlanStatusProcedure, svc.UpdatePlanStatus, opts...))
	mux.Handle(PlanServiceConvertPlanToGroupProcedure, connect.NewUnaryHandler(PlanServiceConvertPlanToGroupProcedure, svc.ConvertPlanToGroup, opts...))
	mux.Handle(PlanServiceLinkPlanToGroupProcedure, connect.NewUnaryHandler(PlanServiceLinkPlanToGroupProcedure, svc.LinkPlanToGroup, opts...))
	return "/" + PlanServiceName + "/", mux
}

// PlanServiceClient calls PlanService.
type PlanServiceClient struct {
	createPlan         *connect.Client[api.CreatePlanRequest, api.PlanResponse]
	getPlan            *connect.Client[api.PlanRequest, api.PlanResponse]
	listPlans          *connect.Client[api.Empty, api.ListPlansResponse]
	updatePlanStatus   *connect.Client[api.UpdatePlanStatusRequest, api.PlanResponse]
	convertPlanToGroup *connect.Client[api.PlanRequest, api.ConvertPlanToGroupResponse]
	linkPlanToGroup    *connect.Client[api.LinkPlanToGroupRequest, api.PlanResponse]
}

// NewPlanServiceClient creates a client for the server at baseURL.
func NewPlanServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlanServiceClient {
	opts = clientOptions(opts)
	return &PlanServiceClient{
		createPlan:         connect.NewClient[api.CreatePlanRequest, api.PlanResponse](httpClient, baseURL+PlanServiceCreatePlanProcedure, opts...),
		getPlan:            connect.NewClient[api.PlanRequest, api.PlanResponse](httpClient, baseURL+PlanServiceGetPlanProcedure, opts...),
		listPlans:          connect.NewClient[api.Empty, api.ListPlansResponse](httpClient, baseURL+PlanServiceListPlansProcedure, opts...),
		updatePlanStatus:   connect.NewClient[api.UpdatePlanStatusRequest, api.PlanResponse](httpClient, baseURL+PlanServiceUpdatePlanStatusProcedure, opts...),
		convertPlanToGroup: connect.NewClient[api.PlanRequest, api.ConvertPlanToGroupResponse](httpClient, baseURL+PlanServiceConvertPlanToGroupProcedure, opts...),
		linkPlanToGroup:    connect.NewClient[api.LinkPlanToGroupRequest, api.PlanResponse](httpClient, baseURL+PlanServiceLinkPlanToGroupProcedure, opts...),
	}
}

func (c *PlanServiceClient) CreatePlan(ctx context.Context, req *connect.Request[api.CreatePlanRequest]) (*connect.Response[api.PlanResponse], error) {
	return c.createPlan.CallUnary(ctx, req)
}

func (c *PlanServiceClient) GetPlan(ctx context.Context, req *connect.Request[api.PlanRequest]) (*connect.Response[api.PlanResponse], error) {
	return c.getPlan.CallUnary(ctx, req)
}

func (c *PlanServiceClient) ListPlans(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListPlansResponse], error) {
	return c.listPlans.CallUnary(ctx, req)
}

func (c *PlanServiceClient) UpdatePlanStatus(ctx context.Context, req *connect.Request[api.UpdatePlanStatusRequest]) (*connect.Response[api.PlanResponse], error) {
	return c.updatePlanStatus.CallUnary(ctx, req)
}

func (c *PlanServiceClient) ConvertPlanToGroup(ctx context.Context, req *connect.Request[api.PlanRequest]) (*connect.Response[api.ConvertPlanToGroupResponse], error) {
	return c.convertPlanToGroup.CallUnary(ctx, req)
}

func (c *PlanServiceClient) LinkPlanToGroup(ctx context.Context, req *connect.Request[api.LinkPlanToGroupRequest]) (*connect.Response[api.PlanResponse], error) {
	return c.linkPlanToGroup.CallUnary(ctx, req)
}

// CreditServiceHandler is implemented by the server. It covers credit packages and purchases.
type CreditServiceHandler interface {
	ListPackages(context.Context, *connect.Request[api.Empty]) (*connect.Response[api.ListPackagesResponse], error)
	CreatePurchase(context.Context, *connect.Request[api.CreatePurchaseRequest]) (*connect.Response[api.PurchaseResponse], error)
	GetPurchase(context.Context, *connect.Request[api.PurchaseRequest]) (*connect.Response[api.PurchaseResponse], error)
}

// NewCreditServiceHandler builds an HTTP handler from svc. It returns the path to
// mount it on.
func NewCreditServiceHandler(svc CreditServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(CreditServiceListPackagesProcedure, connect.NewUnaryHandler(CreditServiceListPackagesProcedure, svc.ListPackages, opts...))
	mux.Handle(CreditServiceCreatePurchaseProcedure, connect.NewUnaryHandler(CreditServiceCreatePurchaseProcedure, svc.CreatePurchase, opts...))
	mux.Handle(CreditServiceGetPurchaseProcedure, connect.NewUnaryHandler(CreditServiceGetPurchaseProcedure, svc.GetPurchase, opts...))
	return "/" + CreditServiceName + "/", mux
}

// CreditServiceClient calls CreditService.
type CreditServiceClient struct {
	listPackages   *connect.Client[api.Empty, api.ListPackagesResponse]
	createPurchase *connect.Client[api.CreatePurchaseRequest, api.PurchaseResponse]
	getPurchase    *connect.Client[api.PurchaseRequest, api.PurchaseResponse]
}

// NewCreditServiceClient creates a client for the server at baseURL.
func NewCreditServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CreditServiceClient {
	opts = clientOptions(opts)
	return &CreditServiceClient{
		listPackages:   connect.NewClient[api.Empty, api.ListPackagesResponse](httpClient, baseURL+CreditServiceListPackagesProcedure, opts...),
		createPurchase: connect.NewClient[api.CreatePurchaseRequest, api.PurchaseResponse](httpClient, baseURL+CreditServiceCreatePurchaseProcedure, opts...),
		getPurchase:    connect.NewClient[api.PurchaseRequest, api.PurchaseResponse](httpClient, baseURL+CreditServiceGetPurchaseProcedure, opts...),
	}
}

func (c *CreditServiceClient) ListPackages(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListPackagesResponse], error) {
	return c.listPackages.CallUnary(ctx, req)
}

func (c *CreditServiceClient) CreatePurchase(ctx context.Context, req *connect.Request[api.CreatePurchaseRequest]) (*connect.Response[api.PurchaseResponse], error) {
	return c.createPurchase.CallUnary(ctx, req)
}

func (c *CreditServiceClient) GetPurchase(ctx context.Context, req *connect.Request[api.PurchaseRequest]) (*connect.Response[api.PurchaseResponse], error) {
	return c.getPurchase.CallUnary(ctx, req)
}

// RealtimeServiceHandler is implemented by the server. It covers row-change streams.
type RealtimeServiceHandler interface {
	Watch(context.Context, *connect.Request[api.WatchRequest], *connect.ServerStream[api.ChangeEvent]) error
}

// NewRealtimeServiceHandler builds an HTTP handler from svc. It returns the path to
// mount it on.
func NewRealtimeServiceHandler(svc RealtimeServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(RealtimeServiceWatchProcedure, connect.NewServerStreamHandler(RealtimeServiceWatchProcedure, svc.Watch, opts...))
	return "/" + RealtimeServiceName + "/", mux
}

// RealtimeServiceClient calls RealtimeService.
type RealtimeServiceClient struct {
	watch *connect.Client[api.WatchRequest, api.ChangeEvent]
}

// NewRealtimeServiceClient creates a client for the server at baseURL.
func NewRealtimeServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RealtimeServiceClient {
	opts = clientOptions(opts)
	return &RealtimeServiceClient{
		watch: connect.NewClient[api.WatchRequest, api.ChangeEvent](httpClient, baseURL+RealtimeServiceWatchProcedure, opts...),
	}
}

func (c *RealtimeServiceClient) Watch(ctx context.Context, req *connect.Request[api.WatchRequest]) (*connect.ServerStreamForClient[api.ChangeEvent], error) {
	return c.watch.CallServerStream(ctx, req)
}
