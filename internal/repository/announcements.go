package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

func (r *Repository) CreateAnnouncement(announcement *domain.Announcement) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO announcements (title, message, sent_by, recipient_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sent_at
	`

	args := []any{announcement.Title, announcement.Message, announcement.SentBy, announcement.RecipientCount}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&announcement.ID, &announcement.SentAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllAnnouncements() ([]*domain.Announcement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT an.id, an.title, an.message, an.sent_by, an.recipient_count, an.sent_at, u.id, u.name, u.email
		FROM announcements an
		JOIN users u ON an.sent_by = u.id
		ORDER BY an.sent_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := make([]*domain.Announcement, 0)
	for rows.Next() {
		an := &domain.Announcement{Sender: &domain.UserSummary{}}
		dst := []any{&an.ID, &an.Title, &an.Message, &an.SentBy, &an.RecipientCount, &an.SentAt, &an.Sender.ID, &an.Sender.Name, &an.Sender.Email}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		announcements = append(announcements, an)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return announcements, nil
}

func (r *Repository) DeleteAnnouncement(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `DELETE FROM announcements WHERE id = $1`

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
