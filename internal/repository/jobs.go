package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

// 列表接口允许的排序字段，防止 query string 中的内容被直接拼进 SQL
var jobSortColumns = map[string]string{
	"createdAt": "created_at",
	"salary":    "salary",
	"title":     "title",
	"deadline":  "deadline",
}

func buildJobOrderBy(sortBy string) string {
	direction := "ASC"
	if strings.HasPrefix(sortBy, "-") {
		direction = "DESC"
		sortBy = strings.TrimPrefix(sortBy, "-")
	}

	column, ok := jobSortColumns[sortBy]
	if !ok {
		return "created_at DESC"
	}

	return fmt.Sprintf("%s %s", column, direction)
}

func buildJobWhere(filter *domain.JobFilter) (string, []any) {
	conditions := make([]string, 0)
	args := make([]any, 0)

	addCondition := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern)
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(`(
			j.title ILIKE $%[1]d
			OR j.description ILIKE $%[1]d
			OR j.company_name ILIKE $%[1]d
			OR EXISTS (SELECT 1 FROM job_requirements fr WHERE fr.job_id = j.id AND fr.requirement ILIKE $%[1]d)
			OR EXISTS (SELECT 1 FROM job_skills fs WHERE fs.job_id = j.id AND fs.skill ILIKE $%[1]d)
		)`, n))
	}
	if filter.Location != "" {
		addCondition("j.location = $%d", filter.Location)
	}
	if filter.Type != "" {
		addCondition("j.type = $%d", filter.Type)
	}
	if filter.Category != "" {
		addCondition("j.category = $%d", filter.Category)
	}
	if filter.ExperienceLevel != "" {
		addCondition("j.experience_level = $%d", filter.ExperienceLevel)
	}
	if filter.Remote != nil {
		addCondition("j.remote = $%d", *filter.Remote)
	}
	if filter.SalaryGTE != nil {
		addCondition("j.salary >= $%d", *filter.SalaryGTE)
	}
	if filter.SalaryLTE != nil {
		addCondition("j.salary <= $%d", *filter.SalaryLTE)
	}
	if filter.Status != "" {
		addCondition("j.status = $%d", filter.Status)
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *Repository) CreateJob(job *domain.Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO jobs (
			title, description, location, type, category, salary,
			company_name, company_description, company_website,
			created_by, status, deadline, experience_level, remote
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, version
	`

	args := []any{
		job.Title, job.Description, job.Location, job.Type, job.Category, job.Salary,
		job.Company.Name, job.Company.Description, job.Company.Website,
		job.CreatedBy, job.Status, job.Deadline, job.ExperienceLevel, job.Remote,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&job.ID, &job.CreatedAt, &job.Version); err != nil {
		return err
	}

	if err := insertJobChildren(ctx, tx, job); err != nil {
		return err
	}

	return tx.Commit()
}

func insertJobChildren(ctx context.Context, tx *sql.Tx, job *domain.Job) error {
	query := `INSERT INTO job_requirements (job_id, requirement) VALUES ($1, $2)`
	for _, requirement := range job.Requirements {
		if _, err := tx.ExecContext(ctx, query, job.ID, requirement); err != nil {
			return err
		}
	}

	query = `INSERT INTO job_skills (job_id, skill) VALUES ($1, $2)`
	for _, skill := range job.Skills {
		if _, err := tx.ExecContext(ctx, query, job.ID, skill); err != nil {
			return err
		}
	}

	return nil
}

const jobColumns = `
	j.id, j.title, j.description, j.location, j.type, j.category, j.salary,
	j.company_name, j.company_description, j.company_website,
	j.created_by, j.status, j.deadline, j.experience_level, j.remote, j.created_at, j.version
`

func scanJob(dst interface{ Scan(...any) error }, job *domain.Job) error {
	return dst.Scan(
		&job.ID, &job.Title, &job.Description, &job.Location, &job.Type, &job.Category, &job.Salary,
		&job.Company.Name, &job.Company.Description, &job.Company.Website,
		&job.CreatedBy, &job.Status, &job.Deadline, &job.ExperienceLevel, &job.Remote, &job.CreatedAt, &job.Version,
	)
}

func (r *Repository) GetJobByID(id int64) (*domain.Job, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + jobColumns + ` FROM jobs j WHERE j.id = $1`

	job := &domain.Job{}
	if err := scanJob(r.dbpool.QueryRowContext(ctx, query, id), job); err != nil {
		return nil, err
	}

	if err := r.fillJobChildren(ctx, []*domain.Job{job}); err != nil {
		return nil, err
	}

	// 填充发布者摘要
	query = `SELECT name, email FROM users WHERE id = $1`
	creator := &domain.User{ID: job.CreatedBy}
	if err := r.dbpool.QueryRowContext(ctx, query, job.CreatedBy).Scan(&creator.Name, &creator.Email); err != nil {
		// 发布者可能已被管理员删除，此时职位详情仍然可以返回
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	} else {
		job.Creator = creator
	}

	// 填充申请摘要
	query = `
		SELECT a.id, a.status, a.applied_at, u.id, u.name, u.email
		FROM applications a
		JOIN users u ON a.user_id = u.id
		WHERE a.job_id = $1
		ORDER BY a.applied_at DESC
	`
	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	job.Applications = make([]*domain.ApplicationSummary, 0)
	for rows.Next() {
		summary := &domain.ApplicationSummary{Applicant: &domain.UserSummary{}}
		dst := []any{&summary.ID, &summary.Status, &summary.AppliedAt, &summary.Applicant.ID, &summary.Applicant.Name, &summary.Applicant.Email}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		job.Applications = append(job.Applications, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return job, nil
}

// 给查出来的职位补上 requirements 和 skills
func (r *Repository) fillJobChildren(ctx context.Context, jobs []*domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	jobsMap := make(map[int64]*domain.Job, len(jobs))
	placeholders := make([]string, 0, len(jobs))
	args := make([]any, 0, len(jobs))
	for i, job := range jobs {
		job.Requirements = make([]string, 0)
		job.Skills = make([]string, 0)
		jobsMap[job.ID] = job
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, job.ID)
	}
	inClause := strings.Join(placeholders, ", ")

	query := fmt.Sprintf(`SELECT job_id, requirement FROM job_requirements WHERE job_id IN (%s) ORDER BY id`, inClause)
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var jobID int64
		var requirement string
		if err := rows.Scan(&jobID, &requirement); err != nil {
			return err
		}
		jobsMap[jobID].Requirements = append(jobsMap[jobID].Requirements, requirement)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	query = fmt.Sprintf(`SELECT job_id, skill FROM job_skills WHERE job_id IN (%s) ORDER BY id`, inClause)
	rows, err = r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var jobID int64
		var skill string
		if err := rows.Scan(&jobID, &skill); err != nil {
			return err
		}
		jobsMap[jobID].Skills = append(jobsMap[jobID].Skills, skill)
	}

	return rows.Err()
}

// 按条件分页查询职位，返回当前页的职位和满足条件的总数
func (r *Repository) GetJobs(filter *domain.JobFilter) ([]*domain.Job, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	where, args := buildJobWhere(filter)

	var total int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM jobs j %s`, where)
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	query = fmt.Sprintf(
		`SELECT %s FROM jobs j %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		jobColumns, where, buildJobOrderBy(filter.SortBy), len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, offset)

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := make([]*domain.Job, 0)
	for rows.Next() {
		job := &domain.Job{}
		if err := scanJob(rows, job); err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.fillJobChildren(ctx, jobs); err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

func (r *Repository) UpdateJob(job *domain.Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE jobs
		SET
			title = $1,
			description = $2,
			location = $3,
			type = $4,
			category = $5,
			salary = $6,
			company_name = $7,
			company_description = $8,
			company_website = $9,
			status = $10,
			deadline = $11,
			experience_level = $12,
			remote = $13,
			version = version + 1
		WHERE id = $14 AND version = $15
		RETURNING created_at, version
	`

	args := []any{
		job.Title, job.Description, job.Location, job.Type, job.Category, job.Salary,
		job.Company.Name, job.Company.Description, job.Company.Website,
		job.Status, job.Deadline, job.ExperienceLevel, job.Remote,
		job.ID, job.Version,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&job.CreatedAt, &job.Version); err != nil {
		return err
	}

	// requirements 和 skills 直接整体替换
	if _, err := tx.ExecContext(ctx, `DELETE FROM job_requirements WHERE job_id = $1`, job.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM job_skills WHERE job_id = $1`, job.ID); err != nil {
		return err
	}
	if err := insertJobChildren(ctx, tx, job); err != nil {
		return err
	}

	return tx.Commit()
}

// 删除职位并级联删除其收到的申请
func (r *Repository) DeleteJob(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE job_id = $1`, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}

// 按类别统计开放职位的数量和薪资分布
func (r *Repository) GetJobStats() ([]*domain.JobCategoryStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT category, COUNT(*), AVG(salary), MIN(salary), MAX(salary)
		FROM jobs
		WHERE status = 'open'
		GROUP BY category
		ORDER BY COUNT(*) DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]*domain.JobCategoryStats, 0)
	for rows.Next() {
		s := &domain.JobCategoryStats{}
		if err := rows.Scan(&s.Category, &s.Count, &s.AvgSalary, &s.MinSalary, &s.MaxSalary); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *Repository) getGroupCounts(ctx context.Context, column string) ([]*domain.GroupCount, error) {
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM jobs GROUP BY %[1]s ORDER BY COUNT(*) DESC`, column)

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]*domain.GroupCount, 0)
	for rows.Next() {
		c := &domain.GroupCount{}
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// 管理后台的仪表盘统计
func (r *Repository) GetDashboardStats() (*domain.DashboardStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	stats := &domain.DashboardStats{}

	if err := r.dbpool.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&stats.TotalJobs); err != nil {
		return nil, err
	}
	if err := r.dbpool.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`).Scan(&stats.TotalApplications); err != nil {
		return nil, err
	}

	var err error
	if stats.JobsByCategory, err = r.getGroupCounts(ctx, "category"); err != nil {
		return nil, err
	}
	if stats.JobsByType, err = r.getGroupCounts(ctx, "type"); err != nil {
		return nil, err
	}

	query := `SELECT ` + jobColumns + ` FROM jobs j ORDER BY j.created_at DESC LIMIT 5`
	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats.RecentJobs = make([]*domain.Job, 0)
	for rows.Next() {
		job := &domain.Job{}
		if err := scanJob(rows, job); err != nil {
			return nil, err
		}
		stats.RecentJobs = append(stats.RecentJobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.fillJobChildren(ctx, stats.RecentJobs); err != nil {
		return nil, err
	}

	return stats, nil
}
