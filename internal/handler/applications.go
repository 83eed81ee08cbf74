package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

func (h *Handler) parseApplicationFilter(r *http.Request) *domain.ApplicationFilter {
	query := r.URL.Query()

	filter := &domain.ApplicationFilter{
		Status: query.Get("status"),
		SortBy: query.Get("sort"),
		Page:   1,
		Limit:  h.config.Pagination.DefaultLimit,
	}

	if page := parseIntQuery(r, "page"); page != nil && *page > 0 {
		filter.Page = int(*page)
	}
	if limit := parseIntQuery(r, "limit"); limit != nil && *limit > 0 {
		filter.Limit = int(*limit)
	}
	if filter.Limit > h.config.Pagination.MaxLimit {
		filter.Limit = h.config.Pagination.MaxLimit
	}

	return filter
}

func (h *Handler) loadJobByParam(w http.ResponseWriter, r *http.Request, param string) (*domain.Job, bool) {
	jobIDParam := chi.URLParam(r, param)
	jobID, err := strconv.ParseInt(jobIDParam, 10, 64)
	if err != nil {
		h.failResponse(w, r, http.StatusBadRequest, "职位ID无效")
		return nil, false
	}

	job, err := h.repository.GetJobByID(jobID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "职位不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	return job, true
}

func (h *Handler) ApplyForJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJobByParam(w, r, "jobId")
	if !ok {
		return
	}

	if job.Status != domain.JobStatusOpen {
		h.failResponse(w, r, http.StatusBadRequest, "该职位已停止接收申请")
		return
	}
	if job.Deadline != nil && job.Deadline.Before(time.Now()) {
		h.failResponse(w, r, http.StatusBadRequest, "该职位的申请截止时间已过")
		return
	}

	var req struct {
		CoverLetter *string `json:"coverLetter"`
		Resume      string  `json:"resume" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 申请人只能是当前登录用户
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	application := &domain.Application{
		JobID:       job.ID,
		UserID:      myInfo.ID,
		Status:      domain.ApplicationStatusPending,
		CoverLetter: req.CoverLetter,
		Resume:      req.Resume,
	}

	if err := h.repository.CreateApplication(application); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "applications_job_id_user_id_key":
			h.conflict(w, r, "您已申请过该职位")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, http.StatusCreated, "申请成功", application)
}

func (h *Handler) GetMyApplications(w http.ResponseWriter, r *http.Request) {
	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	filter := h.parseApplicationFilter(r)

	applications, total, err := h.repository.GetApplicationsByUser(sub, filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.pagedResponse(w, r, "获取我的申请成功", applications, len(applications), total, filter.Limit, filter.Page)
}

// 只有职位的发布者和管理员可以查看该职位收到的申请
func (h *Handler) GetJobApplications(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJobByParam(w, r, "jobId")
	if !ok {
		return
	}

	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if job.CreatedBy != sub && h.myRole(r) != domain.RoleAdmin {
		h.forbidden(w, r, "只有职位的发布者和管理员可以查看申请")
		return
	}

	filter := h.parseApplicationFilter(r)

	applications, total, err := h.repository.GetApplicationsByJob(job.ID, filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.pagedResponse(w, r, "获取职位申请成功", applications, len(applications), total, filter.Limit, filter.Page)
}

func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	application := r.Context().Value(ApplicationInfoCtx).(*domain.Application)

	job, err := h.repository.GetJobByID(application.JobID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if job.CreatedBy != sub && h.myRole(r) != domain.RoleAdmin {
		h.forbidden(w, r, "只有职位的发布者和管理员可以处理申请")
		return
	}

	var req struct {
		Status        string     `json:"status" validate:"required,oneof=pending reviewing shortlisted interview accepted rejected"`
		Feedback      *string    `json:"feedback"`
		Notes         *string    `json:"notes"`
		InterviewDate *time.Time `json:"interviewDate"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	newStatus := domain.ApplicationStatus(req.Status)
	if !application.Status.CanTransitionTo(newStatus) {
		h.failResponse(w, r, http.StatusBadRequest, fmt.Sprintf("申请状态不能从 %s 变为 %s", application.Status, newStatus))
		return
	}

	application.Status = newStatus
	if req.Feedback != nil {
		application.Feedback = req.Feedback
	}
	if req.Notes != nil {
		application.Notes = req.Notes
	}
	if req.InterviewDate != nil {
		application.InterviewDate = req.InterviewDate
	}

	if err := h.repository.UpdateApplication(application); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.failResponse(w, r, http.StatusBadRequest, "更新申请状态失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 给申请人发送状态变更通知，通知失败不影响本次更新
	if err := h.notifyApplicant(application, job); err != nil {
		slog.Error("无法发送申请状态变更通知", "applicationId", application.ID, "error", err)
	}

	h.successResponse(w, r, http.StatusOK, "更新申请状态成功", application)
}

func (h *Handler) notifyApplicant(application *domain.Application, job *domain.Job) error {
	applicant, err := h.repository.GetUserByID(application.UserID)
	if err != nil {
		return err
	}

	feedback := ""
	if application.Feedback != nil {
		feedback = *application.Feedback
	}

	return h.publishMailMessage(domain.MailMessage{
		Type: "application_status",
		To:   applicant.Email,
		Data: domain.ApplicationStatusMailData{
			Name:     applicant.Name,
			JobTitle: job.Title,
			Status:   string(application.Status),
			Feedback: feedback,
		},
	})
}

// 申请人可以在任何状态下修改求职信和简历
func (h *Handler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	application := r.Context().Value(ApplicationInfoCtx).(*domain.Application)

	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if application.UserID != sub {
		h.forbidden(w, r, "只有申请人可以修改申请")
		return
	}

	var req struct {
		CoverLetter *string `json:"coverLetter"`
		Resume      *string `json:"resume" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.CoverLetter != nil {
		application.CoverLetter = req.CoverLetter
	}
	if req.Resume != nil {
		application.Resume = *req.Resume
	}

	if err := h.repository.UpdateApplication(application); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.failResponse(w, r, http.StatusBadRequest, "更新申请失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, http.StatusOK, "更新申请成功", application)
}

// 撤回即删除申请记录，撤回后可以重新申请
func (h *Handler) WithdrawApplication(w http.ResponseWriter, r *http.Request) {
	application := r.Context().Value(ApplicationInfoCtx).(*domain.Application)

	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if application.UserID != sub {
		h.forbidden(w, r, "只有申请人可以撤回申请")
		return
	}

	if err := h.repository.DeleteApplication(application.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.noContent(w)
}
