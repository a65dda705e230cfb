package service

import (
	"context"

	"github.com/google/uuid"

	"campustrade/pkg/domain/model"
)

func requireStaff(ctx context.Context, repos model.RepositoryProvider, userID uuid.UUID) error {
	user, err := repos.Users().Find(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsStaff {
		return model.ErrStaffOnly
	}
	return nil
}
