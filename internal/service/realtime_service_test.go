package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/pkg/api"
)

// waitForChannels polls until the registry has n open channels.
func waitForChannels(t *testing.T, env *testEnv, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for env.registry.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d realtime channels, have %d", n, env.registry.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRealtimeService_Watch(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	group := env.createGroup(t, alice, bob)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := env.realtime.Watch(ctx, authed(alice, &api.WatchRequest{GroupID: group.ID, Tables: []string{TableExpenses}}))
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer stream.Close()

	if !stream.Receive() {
		t.Fatalf("expected a subscribed marker, stream ended: %v", stream.Err())
	}
	if got := stream.Msg(); got.Op != realtime.OpSubscribed || got.GroupID != group.ID || got.UserID != alice.ID {
		t.Fatalf("first message = %+v, want subscribed marker", got)
	}
	if env.registry.Len() != 1 {
		t.Fatalf("expected 1 realtime channel once subscribed, have %d", env.registry.Len())
	}

	created, err := env.expenses.CreateExpense(context.Background(), authed(bob, &api.CreateExpenseRequest{
		GroupID: group.ID, Amount: d("15"), Description: "Juice",
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	if !stream.Receive() {
		t.Fatalf("expected an event, stream ended: %v", stream.Err())
	}
	ev := stream.Msg()
	if ev.Table != TableExpenses || ev.Op != "INSERT" || ev.RowID != created.Msg.Expense.ID || ev.GroupID != group.ID {
		t.Errorf("unexpected event: %+v", ev)
	}

	// Closing the stream releases the channel.
	cancel()
	stream.Close()
	waitForChannels(t, env, 0)
}

func TestRealtimeService_WatchErrors(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "Alice")
	eve := env.register(t, "Eve")
	group := env.createGroup(t, alice)

	tests := []struct {
		name   string
		caller testUser
		req    *api.WatchRequest
		want   connect.Code
	}{
		{"not a member", eve, &api.WatchRequest{GroupID: group.ID}, connect.CodePermissionDenied},
		{"unknown table", alice, &api.WatchRequest{GroupID: group.ID, Tables: []string{"users"}}, connect.CodeInvalidArgument},
		{"no token", testUser{}, &api.WatchRequest{GroupID: group.ID}, connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			req := connect.NewRequest(tt.req)
			if tt.caller.Token != "" {
				req = authed(tt.caller, tt.req)
			}
			stream, err := env.realtime.Watch(ctx, req)
			if err == nil {
				defer stream.Close()
				if stream.Receive() {
					t.Fatalf("expected no events, got %+v", stream.Msg())
				}
				err = stream.Err()
			}
			assertCode(t, err, tt.want)
		})
	}
	if env.registry.Len() != 0 {
		t.Errorf("rejected watches must not open channels, have %d", env.registry.Len())
	}
}
