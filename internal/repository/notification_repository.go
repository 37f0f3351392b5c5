package repository

import (
	"context"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/db"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
)

type NotificationRepository struct {
	DB *db.Postgres
}

type CreateNotificationInput struct {
	AccountID *int64
	Title     string
	Message   string
	Type      domain.NotificationType
	Created   time.Time
}

func (r NotificationRepository) Create(ctx context.Context, in CreateNotificationInput) (*domain.Notification, error) {
	createdAt := in.Created
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var n domain.Notification
	var notifType string
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO notifications (account_id, title, message, type, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, account_id, title, message, type, created_at, read_at
	`, in.AccountID, in.Title, in.Message, string(in.Type), createdAt).Scan(
		&n.ID, &n.AccountID, &n.Title, &n.Message, &notifType, &n.CreatedAt, &n.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(notifType)
	return &n, nil
}

// List returns broadcast notifications (nil account) and those addressed to
// the given account.
func (r NotificationRepository) List(ctx context.Context, accountID int64, limit int) ([]domain.Notification, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, account_id, title, message, type, created_at, read_at
		FROM notifications
		WHERE deleted_at IS NULL AND (account_id IS NULL OR account_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var notifType string
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Message, &notifType, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		n.Type = domain.NotificationType(notifType)
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE notifications
		SET read_at=now()
		WHERE id=$1 AND deleted_at IS NULL AND read_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
