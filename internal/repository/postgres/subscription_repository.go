package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/domain"
)

type subscriptionRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewSubscriptionRepository(db *dbpg.DB, strategy retry.Strategy) domain.SubscriptionRepository {
	return &subscriptionRepository{
		db:       db,
		strategy: strategy,
	}
}

const subscriptionColumns = `
	user_id, plan, images_per_month, images_used, credits, period_start, updated_at
`

func (r *subscriptionRepository) FindByUser(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`

	row := r.db.Master.QueryRowContext(ctx, query, userID)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to find subscription")
		return nil, fmt.Errorf("find subscription: %w", err)
	}

	return sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			user_id, plan, images_per_month, images_used, credits, period_start, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		sub.UserID,
		sub.Plan,
		sub.ImagesPerMonth,
		sub.ImagesUsed,
		sub.Credits,
		sub.PeriodStart,
		sub.UpdatedAt,
	)

	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", sub.UserID).Msg("failed to create subscription")
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) ChangePlan(ctx context.Context, userID string, plan domain.Plan, imagesPerMonth int) error {
	query := `
		UPDATE subscriptions
		SET plan = $2, images_per_month = $3, updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, userID, plan, imagesPerMonth)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to change plan")
		return fmt.Errorf("change plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSubscriptionNotFound
	}

	zlog.Logger.Info().Str("user_id", userID).Str("plan", string(plan)).Msg("plan changed")
	return nil
}

func (r *subscriptionRepository) AddCredits(ctx context.Context, userID string, credits int) error {
	query := `
		UPDATE subscriptions
		SET credits = credits + $2, updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, userID, credits)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to add credits")
		return fmt.Errorf("add credits: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

// Consume reserves count images in a single conditional UPDATE, so of any
// set of racing batches only those the remaining balance actually covers
// get through. Unlimited plans (negative allowance) track usage but never
// reject.
func (r *subscriptionRepository) Consume(ctx context.Context, userID string, count int) (*domain.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET images_used = images_used + $2, updated_at = NOW()
		WHERE user_id = $1
		  AND (images_per_month < 0 OR images_used + $2 <= images_per_month + credits)
		RETURNING ` + subscriptionColumns

	row := r.db.Master.QueryRowContext(ctx, query, userID, count)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		// Distinguish a missing row from an exhausted balance.
		if _, findErr := r.FindByUser(ctx, userID); findErr != nil {
			return nil, findErr
		}
		return nil, domain.ErrInsufficientQuota
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to consume quota")
		return nil, fmt.Errorf("consume quota: %w", err)
	}

	zlog.Logger.Info().
		Str("user_id", userID).
		Int("count", count).
		Int("images_used", sub.ImagesUsed).
		Msg("quota consumed")
	return sub, nil
}

// Refund undoes a Consume whose batch never materialized. Credits are
// never decremented by Consume, so handing back usage is enough.
func (r *subscriptionRepository) Refund(ctx context.Context, userID string, count int) error {
	query := `
		UPDATE subscriptions
		SET images_used = GREATEST(images_used - $2, 0), updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, userID, count)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to refund quota")
		return fmt.Errorf("refund quota: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var sub domain.Subscription

	err := row.Scan(
		&sub.UserID,
		&sub.Plan,
		&sub.ImagesPerMonth,
		&sub.ImagesUsed,
		&sub.Credits,
		&sub.PeriodStart,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &sub, nil
}
