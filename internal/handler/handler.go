package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/config"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/repository"
)

// MailPublisher 是 *amqp.Channel 中发布消息所需的能力子集
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// TokenStore 是 *redis.Client 中一次性令牌读写所需的能力子集
type TokenStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel MailPublisher
	redisClient TokenStore

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh MailPublisher, rdb TokenStore) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) redisOperationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Minute)
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	if len(h.config.CORS.AllowedOrigins) > 0 {
		h.Mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: h.config.CORS.AllowCredentials,
		}))
	}

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/verify-email/{token}", h.VerifyEmail)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password/{token}", h.ResetPassword)
		r.With(h.auth).Get("/me", h.Me)
	})

	// 职位的浏览接口不需要登录
	h.Mux.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.GetAllJobs)
		r.Get("/stats", h.GetJobStats)

		r.With(h.auth, h.RequiredRole([]domain.Role{domain.RoleEmployer, domain.RoleAdmin})).Post("/", h.CreateJob)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.jobInfo)
			r.Get("/", h.GetJob)
			r.With(h.auth).Patch("/", h.UpdateJob)
			r.With(h.auth).Delete("/", h.DeleteJob)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/users/me", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyProfile)
			r.Patch("/", h.UpdateMyProfile)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/applications", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleUser}), h.myInfo).Post("/job/{jobId}", h.ApplyForJob)
			r.With(h.RequiredRole([]domain.Role{domain.RoleUser})).Get("/my-applications", h.GetMyApplications)
			r.With(h.RequiredRole([]domain.Role{domain.RoleEmployer, domain.RoleAdmin})).Get("/job/{jobId}", h.GetJobApplications)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.applicationInfo)
				r.With(h.RequiredRole([]domain.Role{domain.RoleEmployer, domain.RoleAdmin})).Patch("/status", h.UpdateApplicationStatus)
				r.With(h.RequiredRole([]domain.Role{domain.RoleUser})).Patch("/", h.UpdateApplication)
				r.With(h.RequiredRole([]domain.Role{domain.RoleUser})).Delete("/", h.WithdrawApplication)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))

			r.Get("/users", h.AdminGetAllUsers)
			r.Route("/users/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.AdminGetUser)
				r.Delete("/", h.AdminDeleteUser)
				r.Patch("/ban", h.AdminToggleUserBan)
			})

			r.Get("/jobs", h.AdminGetAllJobs)
			r.With(h.jobInfo).Delete("/jobs/{id}", h.AdminDeleteJob)

			r.Get("/applications", h.AdminGetAllApplications)
			r.With(h.applicationInfo).Delete("/applications/{id}", h.AdminDeleteApplication)

			r.Get("/announcements", h.AdminGetAllAnnouncements)
			r.With(h.myInfo).Post("/announcements", h.AdminCreateAnnouncement)
			r.Delete("/announcements/{id}", h.AdminDeleteAnnouncement)

			r.Get("/dashboard", h.AdminGetDashboardStats)
		})
	})
}
