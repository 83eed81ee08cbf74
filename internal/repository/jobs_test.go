package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

func TestBuildJobOrderBy(t *testing.T) {
	tests := []struct {
		sortBy string
		want   string
	}{
		{"salary", "salary ASC"},
		{"-salary", "salary DESC"},
		{"createdAt", "created_at ASC"},
		{"-createdAt", "created_at DESC"},
		{"deadline", "deadline ASC"},
		// 不在白名单中的字段回退到默认排序
		{"password_hash", "created_at DESC"},
		{"id; DROP TABLE jobs", "created_at DESC"},
		{"", "created_at DESC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, buildJobOrderBy(tt.sortBy), "sortBy=%q", tt.sortBy)
	}
}

func TestBuildJobWhere(t *testing.T) {
	where, args := buildJobWhere(&domain.JobFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	salaryGTE := int64(10000)
	salaryLTE := int64(30000)
	remote := true
	where, args = buildJobWhere(&domain.JobFilter{
		Search:          "后端",
		Location:        "广州",
		Type:            "full-time",
		Category:        "后端开发",
		ExperienceLevel: "senior",
		Remote:          &remote,
		SalaryGTE:       &salaryGTE,
		SalaryLTE:       &salaryLTE,
		Status:          "open",
	})

	assert.Contains(t, where, "WHERE")
	assert.Contains(t, where, "ILIKE")
	assert.Contains(t, where, "j.salary >= $7")
	assert.Contains(t, where, "j.salary <= $8")
	// search 占一个参数，其余八个条件各占一个
	assert.Len(t, args, 9)
	assert.Equal(t, "%后端%", args[0])
}

func TestGetJobs(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	salary := int64(25000)
	deadline := time.Now().Add(30 * 24 * time.Hour)
	jobRows := sqlmock.NewRows([]string{
		"id", "title", "description", "location", "type", "category", "salary",
		"company_name", "company_description", "company_website",
		"created_by", "status", "deadline", "experience_level", "remote", "created_at", "version",
	}).AddRow(
		int64(1), "后端开发工程师", "职位描述", "广州", "full-time", "后端开发", salary,
		"示例科技有限公司", nil, nil,
		int64(2), "open", deadline, "mid", false, time.Now(), int32(1),
	)
	mock.ExpectQuery("FROM jobs j").WillReturnRows(jobRows)

	mock.ExpectQuery("FROM job_requirements").
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "requirement"}).AddRow(int64(1), "本科及以上学历"))
	mock.ExpectQuery("FROM job_skills").
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "skill"}).AddRow(int64(1), "Go").AddRow(int64(1), "PostgreSQL"))

	jobs, total, err := repo.GetJobs(&domain.JobFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, jobs, 1)
	assert.Equal(t, "后端开发工程师", jobs[0].Title)
	assert.Equal(t, []string{"本科及以上学历"}, jobs[0].Requirements)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, jobs[0].Skills)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 删除职位必须连同其收到的申请一起删除
func TestDeleteJob(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM applications").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM jobs").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteJob(5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
