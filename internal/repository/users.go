package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

func (r *Repository) CreateUser(user *domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO users (name, email, password_hash, role, is_verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_banned, created_at, version
	`

	args := []any{user.Name, user.Email, user.PasswordHash, user.Role, user.IsVerified}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsBanned, &user.CreatedAt, &user.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetUserByID(id int64) (*domain.User, error) {
	query := `
		SELECT name, email, password_hash, role, is_verified, is_banned, created_at, version
		FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsVerified, &user.IsBanned, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByEmail(email string) (*domain.User, error) {
	query := `
		SELECT id, name, password_hash, role, is_verified, is_banned, created_at, version
		FROM users WHERE email = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		Email: email,
	}

	dst := []any{&user.ID, &user.Name, &user.PasswordHash, &user.Role, &user.IsVerified, &user.IsBanned, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) UpdateUser(user *domain.User) error {
	query := `
		UPDATE users
		SET
			name = $1,
			email = $2,
			password_hash = $3,
			role = $4,
			is_verified = $5,
			is_banned = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{user.Name, user.Email, user.PasswordHash, user.Role, user.IsVerified, user.IsBanned, user.ID, user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.CreatedAt, &user.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllUsers() ([]*domain.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, is_verified, is_banned, created_at, version
		FROM users
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsVerified, &user.IsBanned, &user.CreatedAt, &user.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// 删除用户并级联删除其发布的职位和提交的申请
func (r *Repository) DeleteUser(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先删除该用户提交的申请，以及该用户发布的职位收到的申请
	query := `
		DELETE FROM applications
		WHERE user_id = $1 OR job_id IN (SELECT id FROM jobs WHERE created_by = $1)
	`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return err
	}

	// 职位的 requirements 和 skills 通过外键的 ON DELETE CASCADE 一并删除
	query = `DELETE FROM jobs WHERE created_by = $1`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return err
	}

	// 该用户（管理员）发布过的公告
	query = `DELETE FROM announcements WHERE sent_by = $1`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return err
	}

	query = `DELETE FROM users WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) CheckEmailIfExists(email string) (bool, error) {
	isExists := false

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}

// 获取所有未被封禁的用户，用于公告的邮件群发
func (r *Repository) GetAnnouncementRecipients() ([]*domain.UserSummary, error) {
	query := `
		SELECT id, name, email FROM users WHERE is_banned = FALSE
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := make([]*domain.UserSummary, 0)
	for rows.Next() {
		recipient := &domain.UserSummary{}
		if err := rows.Scan(&recipient.ID, &recipient.Name, &recipient.Email); err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recipients, nil
}
