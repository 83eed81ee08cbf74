package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

func TestCreateUser(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("张伟", "zhangwei@example.com", "hash", "user", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_banned", "created_at", "version"}).
			AddRow(int64(1), false, time.Now(), int32(1)))

	user := &domain.User{
		Name:         "张伟",
		Email:        "zhangwei@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
	}

	require.NoError(t, repo.CreateUser(user))
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, int32(1), user.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail(t *testing.T) {
	repo, mock := newTestRepository(t)

	rows := sqlmock.NewRows([]string{"id", "name", "password_hash", "role", "is_verified", "is_banned", "created_at", "version"}).
		AddRow(int64(3), "李娜", "hash", "employer", true, false, time.Now(), int32(2))
	mock.ExpectQuery("FROM users WHERE email").WithArgs("lina@example.com").WillReturnRows(rows)

	user, err := repo.GetUserByEmail("lina@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "lina@example.com", user.Email)
	assert.Equal(t, domain.RoleEmployer, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmailNotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("FROM users WHERE email").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByEmail("nobody@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCheckEmailIfExists(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("SELECT EXISTS").WithArgs("zhangwei@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.CheckEmailIfExists("zhangwei@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

// 删除用户必须在一个事务中清掉其申请、职位和公告
func TestDeleteUser(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM applications").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM jobs").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM announcements").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM users").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteUser(1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserRollsBackOnError(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM applications").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	assert.Error(t, repo.DeleteUser(1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAnnouncementRecipients(t *testing.T) {
	repo, mock := newTestRepository(t)

	rows := sqlmock.NewRows([]string{"id", "name", "email"}).
		AddRow(int64(1), "张伟", "zhangwei@example.com").
		AddRow(int64(2), "李娜", "lina@example.com")
	mock.ExpectQuery("is_banned = FALSE").WillReturnRows(rows)

	recipients, err := repo.GetAnnouncementRecipients()
	require.NoError(t, err)
	require.Len(t, recipients, 2)
	assert.Equal(t, "lina@example.com", recipients[1].Email)
}
