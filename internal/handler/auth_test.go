package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func TestPurposeTokenRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	token, err := h.signPurposeToken(42, "verify_email", time.Hour)
	require.NoError(t, err)

	userID, err := h.parsePurposeToken(token, "verify_email")
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	// 验证邮箱的令牌不能用来重置密码
	_, err = h.parsePurposeToken(token, "reset_password")
	assert.Error(t, err)
}

// 注册成功后应当写入用户、在 redis 中记录一次性令牌并投递验证邮件
func TestRegister(t *testing.T) {
	h, mock, publisher, store := newTestHandlerWithStubs(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("lihua@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("李华", "lihua@example.com", sqlmock.AnyArg(), "user", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_banned", "created_at", "version"}).
			AddRow(int64(1), false, time.Now(), int32(1)))

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"name":"李华","email":"lihua@example.com","password":"test1234"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "注册成功，请查收验证邮件", resp.Message)

	// 一次性令牌已写入 redis，且可以按用途解析
	token, ok := store.values["verify_email_1"]
	require.True(t, ok)
	userID, err := h.parsePurposeToken(token, "verify_email")
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)

	// 验证邮件已投递到消息队列
	require.Len(t, publisher.published, 1)

	var mailMessage domain.MailMessage
	require.NoError(t, json.Unmarshal(publisher.published[0].Body, &mailMessage))
	assert.Equal(t, "verify_email", mailMessage.Type)
	assert.Equal(t, "lihua@example.com", mailMessage.To)

	data := mailMessage.Data.(map[string]any)
	assert.Contains(t, data["verifyUrl"], token)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// 邮箱已被注册时不应当写入用户或发送邮件
func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock, publisher, _ := newTestHandlerWithStubs(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("lihua@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"name":"李华","email":"lihua@example.com","password":"test1234"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, publisher.published)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func userRowForLogin(t *testing.T, password string, isVerified bool, isBanned bool) *sqlmock.Rows {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return sqlmock.NewRows([]string{"id", "name", "password_hash", "role", "is_verified", "is_banned", "created_at", "version"}).
		AddRow(int64(1), "张伟", string(hash), "user", isVerified, isBanned, time.Now(), int32(1))
}

func doLogin(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("FROM users WHERE email").
		WillReturnRows(userRowForLogin(t, "test1234", true, false))

	rec := doLogin(h, `{"email":"zhangwei@example.com","password":"test1234"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)

	data := resp.Data.(map[string]any)
	assert.NotEmpty(t, data["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("FROM users WHERE email").
		WillReturnRows(userRowForLogin(t, "test1234", true, false))

	rec := doLogin(h, `{"email":"zhangwei@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "fail", resp.Status)
	// 不能泄露邮箱是否存在
	assert.Equal(t, "邮箱不存在或密码错误", resp.Message)
}

func TestLoginUnknownEmail(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("FROM users WHERE email").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "password_hash", "role", "is_verified", "is_banned", "created_at", "version"}))

	rec := doLogin(h, `{"email":"nobody@example.com","password":"test1234"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "邮箱不存在或密码错误", resp.Message)
}

func TestLoginBannedUser(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("FROM users WHERE email").
		WillReturnRows(userRowForLogin(t, "test1234", true, true))

	rec := doLogin(h, `{"email":"zhangwei@example.com","password":"test1234"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginUnverifiedUser(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("FROM users WHERE email").
		WillReturnRows(userRowForLogin(t, "test1234", false, false))

	rec := doLogin(h, `{"email":"zhangwei@example.com","password":"test1234"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsInvalidBody(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doLogin(h, `{"email":"not-an-email","password":"test1234"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
