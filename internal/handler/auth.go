package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type AuthClaims struct {
	Role string `json:"role,omitempty"`
	// 单一用途令牌（verify_email / reset_password）会带上 purpose，
	// 这类令牌不允许作为会话令牌使用
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

func (h *Handler) signSessionToken(user *domain.User) (string, error) {
	expiration := time.Now().Add(time.Duration(h.config.JWT.SessionExpiration) * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	})

	return token.SignedString([]byte(h.config.JWT.Secret))
}

func (h *Handler) signPurposeToken(userID int64, purpose string, expiration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   strconv.FormatInt(userID, 10),
		},
	})

	return token.SignedString([]byte(h.config.JWT.Secret))
}

func (h *Handler) parsePurposeToken(tokenString string, purpose string) (int64, error) {
	claims := &AuthClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.config.JWT.Secret), nil
	}); err != nil {
		return 0, err
	}

	if claims.Purpose != purpose {
		return 0, errors.New("令牌用途不匹配")
	}

	return strconv.ParseInt(claims.Subject, 10, 64)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"omitempty,oneof=user employer"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Role == "" {
		req.Role = string(domain.RoleUser)
	}

	exists, err := h.repository.CheckEmailIfExists(req.Email)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if exists {
		h.conflict(w, r, "邮箱已被注册")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         domain.Role(req.Role),
	}

	if err := h.repository.CreateUser(user); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "users_email_key":
			h.conflict(w, r, "邮箱已被注册")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 生成验证邮箱所需的令牌，并存入 redis 保证其只能被使用一次
	tokenString, err := h.signPurposeToken(user.ID, "verify_email", time.Duration(h.config.JWT.VerifyEmailExpiration)*time.Hour)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := h.redisOperationContext()
	defer cancel()

	if err := h.redisClient.Set(ctx, fmt.Sprintf("verify_email_%d", user.ID), tokenString, time.Duration(h.config.JWT.VerifyEmailExpiration)*time.Hour).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: "verify_email",
		To:   user.Email,
		Data: domain.VerifyEmailMailData{
			Name:      user.Name,
			VerifyURL: fmt.Sprintf("%s/verify-email?token=%s", h.config.Frontend.BaseURL, tokenString),
		},
	}

	if err := h.publishMailMessage(mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusCreated, "注册成功，请查收验证邮件", user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 验证邮箱和密码
	user, err := h.repository.GetUserByEmail(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.unauthorized(w, r, "邮箱不存在或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.unauthorized(w, r, "邮箱不存在或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if user.IsBanned {
		h.forbidden(w, r, "账号已被封禁")
		return
	}

	if !user.IsVerified {
		h.unauthorized(w, r, "请先验证邮箱")
		return
	}

	ss, err := h.signSessionToken(user)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "登录成功", map[string]any{
		"token": ss,
		"user":  user,
	})
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	tokenString := chi.URLParam(r, "token")

	userID, err := h.parsePurposeToken(tokenString, "verify_email")
	if err != nil {
		h.failResponse(w, r, http.StatusBadRequest, "无效或已过期的令牌")
		return
	}

	// 校验令牌是否被使用过
	ctx, cancel := h.redisOperationContext()
	defer cancel()

	key := fmt.Sprintf("verify_email_%d", userID)
	stored, err := h.redisClient.Get(ctx, key).Result()
	if err != nil || stored != tokenString {
		h.failResponse(w, r, http.StatusBadRequest, "无效或已过期的令牌")
		return
	}

	user, err := h.repository.GetUserByID(userID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	user.IsVerified = true
	if err := h.repository.UpdateUser(user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.redisClient.Del(ctx, key).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "邮箱验证成功", nil)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.repository.GetUserByEmail(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 这里虽然已经知道了用户不存在，但是为了安全起见，还是告诉客户端邮件已发送，以防止接口被滥用
			h.successResponse(w, r, http.StatusOK, "重置密码邮件已发送", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	tokenString, err := h.signPurposeToken(user.ID, "reset_password", time.Duration(h.config.JWT.ResetPasswordExpiration)*time.Hour)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := h.redisOperationContext()
	defer cancel()

	if err := h.redisClient.Set(ctx, fmt.Sprintf("reset_password_%d", user.ID), tokenString, time.Duration(h.config.JWT.ResetPasswordExpiration)*time.Hour).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: "reset_password",
		To:   user.Email,
		Data: domain.ResetPasswordMailData{
			Name:       user.Name,
			ResetURL:   fmt.Sprintf("%s/reset-password?token=%s", h.config.Frontend.BaseURL, tokenString),
			Expiration: h.config.JWT.ResetPasswordExpiration * 60, // 邮件中显示的过期时间以分钟为单位
		},
	}

	if err := h.publishMailMessage(mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "重置密码邮件已发送", nil)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	tokenString := chi.URLParam(r, "token")

	var req struct {
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	userID, err := h.parsePurposeToken(tokenString, "reset_password")
	if err != nil {
		h.failResponse(w, r, http.StatusBadRequest, "无效或已过期的令牌")
		return
	}

	ctx, cancel := h.redisOperationContext()
	defer cancel()

	key := fmt.Sprintf("reset_password_%d", userID)
	stored, err := h.redisClient.Get(ctx, key).Result()
	if err != nil || stored != tokenString {
		h.failResponse(w, r, http.StatusBadRequest, "无效或已过期的令牌")
		return
	}

	user, err := h.repository.GetUserByID(userID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user.PasswordHash = string(hashedPassword)
	if err := h.repository.UpdateUser(user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.redisClient.Del(ctx, key).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "重置密码成功", nil)
}

// 用于前端校验令牌是否仍然有效
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "获取登录状态成功", map[string]any{
		"id":   sub,
		"role": h.myRole(r),
	})
}
