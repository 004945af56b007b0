package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/diviso/diviso/internal/auth"
	"github.com/diviso/diviso/internal/checkin"
	"github.com/diviso/diviso/internal/lock"
	"github.com/diviso/diviso/internal/middleware"
	"github.com/diviso/diviso/internal/notify"
	"github.com/diviso/diviso/internal/phone"
	"github.com/diviso/diviso/internal/quota"
	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/internal/storage/sqlite"
	"github.com/diviso/diviso/pkg/api"
	"github.com/diviso/diviso/pkg/api/apiconnect"
	"github.com/diviso/diviso/pkg/logging"
)

// testEnv is a full server over a temp database with one client per service.
type testEnv struct {
	store    *sqlite.SQLiteStore
	registry *realtime.Registry

	auth          *apiconnect.AuthServiceClient
	groups        *apiconnect.GroupServiceClient
	expenses      *apiconnect.ExpenseServiceClient
	settlements   *apiconnect.SettlementServiceClient
	notifications *apiconnect.NotificationServiceClient
	checkins      *apiconnect.CheckinServiceClient
	plans         *apiconnect.PlanServiceClient
	credits       *apiconnect.CreditServiceClient
	realtime      *apiconnect.RealtimeServiceClient
}

var userSeq atomic.Int64

// testUser is a registered account and its session token.
type testUser struct {
	ID    string
	Name  string
	Token string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	logger := logging.Discard()
	registry := realtime.NewRegistry(16, logger)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store, phone.NewNormalizer("SA"))
	quotas := quota.NewChecker(store, time.UTC)
	notifier := notify.New(store, registry, logger)
	locker := lock.NewLocal()

	opts := connect.WithInterceptors(
		middleware.NewLoggingInterceptor(logger),
		middleware.RequireAuth(jwtManager, apiconnect.AuthServiceRegisterProcedure, apiconnect.AuthServiceLoginProcedure),
		middleware.ValidationInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, logger), opts))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store, quotas, notifier, registry, logger), opts))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(store, quotas, notifier, registry, locker, logger), opts))
	mux.Handle(apiconnect.NewSettlementServiceHandler(NewSettlementService(store, notifier, registry, logger), opts))
	mux.Handle(apiconnect.NewNotificationServiceHandler(NewNotificationService(store, registry, logger), opts))
	mux.Handle(apiconnect.NewCheckinServiceHandler(NewCheckinService(checkin.NewService(store, time.UTC, logger), store), opts))
	mux.Handle(apiconnect.NewPlanServiceHandler(NewPlanService(store, quotas, registry, logger), opts))
	mux.Handle(apiconnect.NewCreditServiceHandler(NewCreditService(store, logger), opts))
	mux.Handle(apiconnect.NewRealtimeServiceHandler(NewRealtimeService(registry, store, logger), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	client := server.Client()
	return &testEnv{
		store:         store,
		registry:      registry,
		auth:          apiconnect.NewAuthServiceClient(client, server.URL),
		groups:        apiconnect.NewGroupServiceClient(client, server.URL),
		expenses:      apiconnect.NewExpenseServiceClient(client, server.URL),
		settlements:   apiconnect.NewSettlementServiceClient(client, server.URL),
		notifications: apiconnect.NewNotificationServiceClient(client, server.URL),
		checkins:      apiconnect.NewCheckinServiceClient(client, server.URL),
		plans:         apiconnect.NewPlanServiceClient(client, server.URL),
		credits:       apiconnect.NewCreditServiceClient(client, server.URL),
		realtime:      apiconnect.NewRealtimeServiceClient(client, server.URL),
	}
}

// register creates an account with a unique email.
func (e *testEnv) register(t *testing.T, name string) testUser {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       fmt.Sprintf("user%d@example.com", userSeq.Add(1)),
		DisplayName: name,
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("Register %s failed: %v", name, err)
	}
	return testUser{ID: resp.Msg.User.ID, Name: name, Token: resp.Msg.Token}
}

// createGroup creates a group owned by owner with every member invited and
// accepted.
func (e *testEnv) createGroup(t *testing.T, owner testUser, members ...testUser) *api.Group {
	t.Helper()
	ctx := context.Background()
	resp, err := e.groups.CreateGroup(ctx, authed(owner, &api.CreateGroupRequest{Name: "Riyadh trip"}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	group := resp.Msg.Group
	for _, m := range members {
		if _, err := e.groups.InviteMember(ctx, authed(owner, &api.InviteMemberRequest{GroupID: group.ID, UserID: m.ID})); err != nil {
			t.Fatalf("InviteMember %s failed: %v", m.Name, err)
		}
		if _, err := e.groups.RespondInvite(ctx, authed(m, &api.RespondInviteRequest{GroupID: group.ID, Accept: true})); err != nil {
			t.Fatalf("RespondInvite %s failed: %v", m.Name, err)
		}
	}
	return group
}

// authed wraps msg in a request carrying u's bearer token.
func authed[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.Token)
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected %v, got %v (%v)", want, got, err)
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
