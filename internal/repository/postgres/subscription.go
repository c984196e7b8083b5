package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/payschedule/internal/domain/subscription"
	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/logger"
	"github.com/flexprice/payschedule/internal/postgres"
	"github.com/flexprice/payschedule/internal/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// uniqueViolation is the postgres error code for duplicate keys
const uniqueViolation = "23505"

// subscriptionRow is the stored form of a subscription. Filter columns are
// denormalized from the document on every write.
type subscriptionRow struct {
	ID              string     `db:"id"`
	Key             string     `db:"subscription_key"`
	Source          string     `db:"source"`
	SourceID        string     `db:"source_id"`
	Status          string     `db:"status"`
	NextPaymentDate *time.Time `db:"next_payment_date"`
	Document        []byte     `db:"document"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func toRow(sub *subscription.Subscription) (*subscriptionRow, error) {
	doc, err := json.Marshal(sub)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not encode subscription").
			Mark(ierr.ErrSystem)
	}
	return &subscriptionRow{
		ID:              sub.ID,
		Key:             sub.Key,
		Source:          sub.Source,
		SourceID:        sub.SourceID,
		Status:          string(sub.Status),
		NextPaymentDate: sub.NextPaymentDate(),
		Document:        doc,
		CreatedAt:       sub.CreatedAt,
		UpdatedAt:       sub.UpdatedAt,
	}, nil
}

func (r *subscriptionRow) toDomain() (*subscription.Subscription, error) {
	var sub subscription.Subscription
	if err := json.Unmarshal(r.Document, &sub); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Stored subscription %s is corrupt", r.ID).
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	row, err := toRow(sub)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO subscriptions (
			id,
			subscription_key,
			source,
			source_id,
			status,
			next_payment_date,
			document,
			created_at,
			updated_at
		) VALUES (
			:id,
			:subscription_key,
			:source,
			:source_id,
			:status,
			:next_payment_date,
			:document,
			:created_at,
			:updated_at
		)
	`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ierr.WithError(err).
				WithHint("A subscription with this id or key already exists").
				WithReportableDetails(map[string]any{
					"id":  sub.ID,
					"key": sub.Key,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}

	r.logger.Debugw("created subscription", "subscription_id", sub.ID, "key", sub.Key)
	return nil
}

func (r *subscriptionRepository) get(ctx context.Context, column, value string) (*subscription.Subscription, error) {
	var row subscriptionRow
	query := `SELECT * FROM subscriptions WHERE ` + column + ` = $1`
	if _, ok := postgres.GetTx(ctx); ok {
		// rows read inside a transaction are about to be mutated
		query += ` FOR UPDATE`
	}
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription %s not found", value).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return row.toDomain()
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	return r.get(ctx, "id", id)
}

func (r *subscriptionRepository) GetByKey(ctx context.Context, key string) (*subscription.Subscription, error) {
	return r.get(ctx, "subscription_key", key)
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	row, err := toRow(sub)
	if err != nil {
		return err
	}

	query := `
		UPDATE subscriptions
		SET
			source = :source,
			source_id = :source_id,
			status = :status,
			next_payment_date = :next_payment_date,
			document = :document,
			updated_at = :updated_at
		WHERE
			id = :id
	`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, row)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewErrorf("subscription %s not found", sub.ID).
			WithHintf("Subscription %s not found", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete subscription").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewErrorf("subscription %s not found", id).
			WithHintf("Subscription %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// whereClause builds the filter conditions with ? placeholders
func whereClause(filter *types.SubscriptionFilter) (string, []interface{}) {
	conditions := []string{"1 = 1"}
	args := []interface{}{}

	if filter == nil {
		return strings.Join(conditions, " AND "), args
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, "status = ANY(?)")
		args = append(args, pq.Array(statuses))
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.SourceID != "" {
		conditions = append(conditions, "source_id = ?")
		args = append(args, filter.SourceID)
	}
	if filter.NextPaymentBefore != nil {
		conditions = append(conditions, "next_payment_date IS NOT NULL AND next_payment_date <= ?")
		args = append(args, *filter.NextPaymentBefore)
	}
	return strings.Join(conditions, " AND "), args
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	where, args := whereClause(filter)
	query := `SELECT * FROM subscriptions WHERE ` + where + ` ORDER BY next_payment_date ASC NULLS LAST, id ASC`
	if filter != nil && filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter != nil && filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	var rows []subscriptionRow
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}

	subs := make([]*subscription.Subscription, 0, len(rows))
	for i := range rows {
		sub, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	where, args := whereClause(filter)
	var count int
	query := sqlx.Rebind(sqlx.DOLLAR, `SELECT COUNT(*) FROM subscriptions WHERE `+where)
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}
