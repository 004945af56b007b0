package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/internal/storage"
	"github.com/diviso/diviso/internal/validate"
	"github.com/diviso/diviso/pkg/api"
)

// RealtimeService streams row changes from the registry.
type RealtimeService struct {
	registry *realtime.Registry
	groups   storage.GroupStore
	logger   *slog.Logger
}

// NewRealtimeService creates a RealtimeService.
func NewRealtimeService(registry *realtime.Registry, groups storage.GroupStore, logger *slog.Logger) *RealtimeService {
	return &RealtimeService{registry: registry, groups: groups, logger: orDefault(logger)}
}

// Watch streams matching events until the client disconnects. The first
// message is an OpSubscribed marker. Subscribers with the same
// (user, group, tables) key share one registry channel.
func (s *RealtimeService) Watch(ctx context.Context, req *connect.Request[api.WatchRequest], stream *connect.ServerStream[api.ChangeEvent]) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	if err := validate.Struct(req.Msg); err != nil {
		return err
	}
	if req.Msg.GroupID != "" {
		if _, err := requireMember(ctx, s.groups, req.Msg.GroupID, userID); err != nil {
			return err
		}
	}

	listener := s.registry.Acquire(realtime.Subscription{
		UserID:  userID,
		GroupID: req.Msg.GroupID,
		Tables:  req.Msg.Tables,
	})
	defer s.registry.Release(listener)

	// The first message flushes the response headers, so the client's Watch
	// returns as soon as the channel is open.
	if err := stream.Send(&api.ChangeEvent{Op: realtime.OpSubscribed, GroupID: req.Msg.GroupID, UserID: userID}); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	s.logger.Debug("realtime watch started", "user_id", userID, "group_id", req.Msg.GroupID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-listener.C():
			if !ok {
				return nil
			}
			if err := stream.Send(&api.ChangeEvent{
				Table:   ev.Table,
				Op:      ev.Op,
				GroupID: ev.GroupID,
				UserID:  ev.UserID,
				RowID:   ev.RowID,
			}); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
