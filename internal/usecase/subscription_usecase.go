package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
)

type SubscriptionUsecase struct {
	repo domain.SubscriptionRepository
}

func NewSubscriptionUsecase(repo domain.SubscriptionRepository) *SubscriptionUsecase {
	return &SubscriptionUsecase{repo: repo}
}

// GetSubscription returns the user's billing state, provisioning the free
// plan on first contact.
func (u *SubscriptionUsecase) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := u.repo.FindByUser(ctx, userID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		if err := u.provisionFree(ctx, userID); err != nil {
			return nil, err
		}
		return u.repo.FindByUser(ctx, userID)
	}
	return sub, err
}

func (u *SubscriptionUsecase) ChangePlan(ctx context.Context, userID string, plan domain.Plan) (*domain.Subscription, error) {
	limit, ok := domain.PlanLimit(plan)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPlan, plan)
	}

	if _, err := u.GetSubscription(ctx, userID); err != nil {
		return nil, err
	}

	if err := u.repo.ChangePlan(ctx, userID, plan, limit); err != nil {
		return nil, err
	}

	return u.repo.FindByUser(ctx, userID)
}

func (u *SubscriptionUsecase) AddCredits(ctx context.Context, userID string, credits int) (*domain.Subscription, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("%w: credits must be positive", domain.ErrInvalidPlan)
	}

	if _, err := u.GetSubscription(ctx, userID); err != nil {
		return nil, err
	}

	if err := u.repo.AddCredits(ctx, userID, credits); err != nil {
		return nil, err
	}

	return u.repo.FindByUser(ctx, userID)
}

// Reserve admits count images against the user's allowance, provisioning
// the free plan for unknown users first. The reservation itself is a
// single conditional update in the repository.
func (u *SubscriptionUsecase) Reserve(ctx context.Context, userID string, count int) (*domain.Admission, error) {
	sub, err := u.repo.Consume(ctx, userID, count)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		if err := u.provisionFree(ctx, userID); err != nil {
			return nil, err
		}
		sub, err = u.repo.Consume(ctx, userID, count)
	}
	if err != nil {
		return nil, err
	}

	admission := &domain.Admission{
		Remaining:  sub.Remaining(),
		LowBalance: !sub.Unlimited() && sub.Remaining() == 0,
	}

	if admission.LowBalance {
		zlog.Logger.Warn().
			Str("user_id", userID).
			Msg("quota balance drained by this batch")
	}

	return admission, nil
}

// Release hands a reservation back after the admitted batch failed to
// materialize, so the user is not billed for work that never ran.
func (u *SubscriptionUsecase) Release(ctx context.Context, userID string, count int) error {
	if err := u.repo.Refund(ctx, userID, count); err != nil {
		return err
	}

	zlog.Logger.Info().
		Str("user_id", userID).
		Int("count", count).
		Msg("quota reservation released")
	return nil
}

func (u *SubscriptionUsecase) provisionFree(ctx context.Context, userID string) error {
	limit, _ := domain.PlanLimit(domain.PlanFree)
	now := time.Now()

	return u.repo.Create(ctx, &domain.Subscription{
		UserID:         userID,
		Plan:           domain.PlanFree,
		ImagesPerMonth: limit,
		PeriodStart:    now,
		UpdatedAt:      now,
	})
}
