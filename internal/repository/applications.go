package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

var applicationSortColumns = map[string]string{
	"appliedAt": "a.applied_at",
	"updatedAt": "a.updated_at",
	"status":    "a.status",
}

func buildApplicationOrderBy(sortBy string) string {
	direction := "ASC"
	if len(sortBy) > 0 && sortBy[0] == '-' {
		direction = "DESC"
		sortBy = sortBy[1:]
	}

	column, ok := applicationSortColumns[sortBy]
	if !ok {
		return "a.applied_at DESC"
	}

	return fmt.Sprintf("%s %s", column, direction)
}

func (r *Repository) CreateApplication(application *domain.Application) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO applications (job_id, user_id, status, cover_letter, resume)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, applied_at, updated_at, version
	`

	args := []any{application.JobID, application.UserID, application.Status, application.CoverLetter, application.Resume}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&application.ID, &application.AppliedAt, &application.UpdatedAt, &application.Version); err != nil {
		return err
	}

	return nil
}

const applicationColumns = `
	a.id, a.job_id, a.user_id, a.status, a.cover_letter, a.resume,
	a.notes, a.interview_date, a.feedback, a.applied_at, a.updated_at, a.version
`

func scanApplication(dst interface{ Scan(...any) error }, a *domain.Application) error {
	return dst.Scan(
		&a.ID, &a.JobID, &a.UserID, &a.Status, &a.CoverLetter, &a.Resume,
		&a.Notes, &a.InterviewDate, &a.Feedback, &a.AppliedAt, &a.UpdatedAt, &a.Version,
	)
}

func (r *Repository) GetApplicationByID(id int64) (*domain.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + applicationColumns + ` FROM applications a WHERE a.id = $1`

	application := &domain.Application{}
	if err := scanApplication(r.dbpool.QueryRowContext(ctx, query, id), application); err != nil {
		return nil, err
	}

	return application, nil
}

// 某个用户提交的所有申请，附带职位摘要
func (r *Repository) GetApplicationsByUser(userID int64, filter *domain.ApplicationFilter) ([]*domain.Application, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	where := "WHERE a.user_id = $1"
	args := []any{userID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND a.status = $%d", len(args))
	}

	var total int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM applications a %s`, where)
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	query = fmt.Sprintf(`
		SELECT %s, j.id, j.title, j.company_name, j.location, j.type, j.status
		FROM applications a
		JOIN jobs j ON a.job_id = j.id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, applicationColumns, where, buildApplicationOrderBy(filter.SortBy), len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	applications := make([]*domain.Application, 0)
	for rows.Next() {
		a := &domain.Application{Job: &domain.JobSummary{}}
		dst := []any{
			&a.ID, &a.JobID, &a.UserID, &a.Status, &a.CoverLetter, &a.Resume,
			&a.Notes, &a.InterviewDate, &a.Feedback, &a.AppliedAt, &a.UpdatedAt, &a.Version,
			&a.Job.ID, &a.Job.Title, &a.Job.CompanyName, &a.Job.Location, &a.Job.Type, &a.Job.Status,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, 0, err
		}
		applications = append(applications, a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return applications, total, nil
}

// 某个职位收到的所有申请，附带申请人摘要
func (r *Repository) GetApplicationsByJob(jobID int64, filter *domain.ApplicationFilter) ([]*domain.Application, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	where := "WHERE a.job_id = $1"
	args := []any{jobID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND a.status = $%d", len(args))
	}

	var total int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM applications a %s`, where)
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	query = fmt.Sprintf(`
		SELECT %s, u.id, u.name, u.email
		FROM applications a
		JOIN users u ON a.user_id = u.id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, applicationColumns, where, buildApplicationOrderBy(filter.SortBy), len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	applications := make([]*domain.Application, 0)
	for rows.Next() {
		a := &domain.Application{Applicant: &domain.UserSummary{}}
		dst := []any{
			&a.ID, &a.JobID, &a.UserID, &a.Status, &a.CoverLetter, &a.Resume,
			&a.Notes, &a.InterviewDate, &a.Feedback, &a.AppliedAt, &a.UpdatedAt, &a.Version,
			&a.Applicant.ID, &a.Applicant.Name, &a.Applicant.Email,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, 0, err
		}
		applications = append(applications, a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return applications, total, nil
}

// 管理后台的申请列表，附带职位和申请人摘要
func (r *Repository) GetAllApplications() ([]*domain.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT ` + applicationColumns + `,
			j.id, j.title, j.company_name, j.location, j.type, j.status,
			u.id, u.name, u.email
		FROM applications a
		JOIN jobs j ON a.job_id = j.id
		JOIN users u ON a.user_id = u.id
		ORDER BY a.applied_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applications := make([]*domain.Application, 0)
	for rows.Next() {
		a := &domain.Application{Job: &domain.JobSummary{}, Applicant: &domain.UserSummary{}}
		dst := []any{
			&a.ID, &a.JobID, &a.UserID, &a.Status, &a.CoverLetter, &a.Resume,
			&a.Notes, &a.InterviewDate, &a.Feedback, &a.AppliedAt, &a.UpdatedAt, &a.Version,
			&a.Job.ID, &a.Job.Title, &a.Job.CompanyName, &a.Job.Location, &a.Job.Type, &a.Job.Status,
			&a.Applicant.ID, &a.Applicant.Name, &a.Applicant.Email,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		applications = append(applications, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return applications, nil
}

func (r *Repository) UpdateApplication(application *domain.Application) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE applications
		SET
			status = $1,
			cover_letter = $2,
			resume = $3,
			notes = $4,
			interview_date = $5,
			feedback = $6,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING applied_at, updated_at, version
	`

	args := []any{
		application.Status, application.CoverLetter, application.Resume,
		application.Notes, application.InterviewDate, application.Feedback,
		application.ID, application.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&application.AppliedAt, &application.UpdatedAt, &application.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteApplication(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `DELETE FROM applications WHERE id = $1`

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
