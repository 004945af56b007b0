package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/checkin"
	"github.com/diviso/diviso/internal/storage"
	"github.com/diviso/diviso/pkg/api"
)

// CheckinService implements the Connect CheckinService.
type CheckinService struct {
	checkins *checkin.Service
	users    storage.UserStore
}

// NewCheckinService creates a CheckinService.
func NewCheckinService(checkins *checkin.Service, users storage.UserStore) *CheckinService {
	return &CheckinService{checkins: checkins, users: users}
}

// GetCheckinStatus returns the caller's streak and weekly progress.
func (s *CheckinService) GetCheckinStatus(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.CheckinStatusResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.checkins.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CheckinStatusResponse{
		CurrentStreak:  st.CurrentStreak,
		CheckedInToday: st.CheckedInToday,
		Week:           toAPIWeek(st.Week),
	}), nil
}

// ProcessCheckin records today's check-in and grants its reward.
func (s *CheckinService) ProcessCheckin(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.CheckinResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.checkins.Process(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CheckinResponse{
		AlreadyCheckedIn: res.AlreadyCheckedIn,
		Streak:           res.Streak,
		Reward:           res.Reward,
		Credits:          user.Credits,
		Week:             toAPIWeek(res.Week),
	}), nil
}
