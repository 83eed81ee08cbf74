package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

func TestBuildApplicationOrderBy(t *testing.T) {
	tests := []struct {
		sortBy string
		want   string
	}{
		{"appliedAt", "a.applied_at ASC"},
		{"-appliedAt", "a.applied_at DESC"},
		{"status", "a.status ASC"},
		{"resume", "a.applied_at DESC"},
		{"", "a.applied_at DESC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, buildApplicationOrderBy(tt.sortBy), "sortBy=%q", tt.sortBy)
	}
}

func TestCreateApplication(t *testing.T) {
	repo, mock := newTestRepository(t)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO applications").
		WithArgs(int64(2), int64(3), "pending", nil, "https://example.com/resume.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"id", "applied_at", "updated_at", "version"}).
			AddRow(int64(1), now, now, int32(1)))

	application := &domain.Application{
		JobID:  2,
		UserID: 3,
		Status: domain.ApplicationStatusPending,
		Resume: "https://example.com/resume.pdf",
	}

	require.NoError(t, repo.CreateApplication(application))
	assert.Equal(t, int64(1), application.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 版本不匹配时更新不到任何行，返回 sql.ErrNoRows
func TestUpdateApplicationVersionConflict(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("UPDATE applications").
		WillReturnRows(sqlmock.NewRows([]string{"applied_at", "updated_at", "version"}))

	application := &domain.Application{
		ID:      1,
		Status:  domain.ApplicationStatusReviewing,
		Resume:  "https://example.com/resume.pdf",
		Version: 1,
	}

	assert.ErrorIs(t, repo.UpdateApplication(application), sql.ErrNoRows)
}

func TestDeleteApplication(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec("DELETE FROM applications").WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteApplication(9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApplicationsByUser(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("SELECT COUNT").WithArgs(int64(3), "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "job_id", "user_id", "status", "cover_letter", "resume",
		"notes", "interview_date", "feedback", "applied_at", "updated_at", "version",
		"j_id", "j_title", "j_company_name", "j_location", "j_type", "j_status",
	}).AddRow(
		int64(1), int64(2), int64(3), "pending", nil, "https://example.com/resume.pdf",
		nil, nil, nil, now, now, int32(1),
		int64(2), "后端开发工程师", "示例科技有限公司", "广州", "full-time", "open",
	)
	mock.ExpectQuery("JOIN jobs j").WillReturnRows(rows)

	applications, total, err := repo.GetApplicationsByUser(3, &domain.ApplicationFilter{
		Status: "pending",
		Page:   1,
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, applications, 1)
	require.NotNil(t, applications[0].Job)
	assert.Equal(t, "后端开发工程师", applications[0].Job.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
