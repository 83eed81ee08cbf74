package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/utils"
)

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title        string   `json:"title" validate:"required,min=5,max=100"`
		Description  string   `json:"description" validate:"required"`
		Location     string   `json:"location" validate:"required"`
		Type         string   `json:"type" validate:"required,oneof=full-time part-time contract freelance internship"`
		Category     string   `json:"category" validate:"required"`
		Salary       *int64   `json:"salary" validate:"omitempty,gte=0"`
		Requirements []string `json:"requirements" validate:"required,min=1,dive,required"`
		Skills       []string `json:"skills" validate:"required,min=1,dive,required"`
		Company      struct {
			Name        string  `json:"name" validate:"required"`
			Description *string `json:"description"`
			Website     *string `json:"website" validate:"omitempty,url"`
		} `json:"company"`
		Deadline        *time.Time `json:"deadline"`
		ExperienceLevel string     `json:"experienceLevel" validate:"required,oneof=entry mid senior lead"`
		Remote          bool       `json:"remote"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	job := &domain.Job{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Type:         domain.JobType(req.Type),
		Category:     req.Category,
		Salary:       req.Salary,
		Requirements: req.Requirements,
		Skills:       req.Skills,
		Company: domain.Company{
			Name:        req.Company.Name,
			Description: req.Company.Description,
			Website:     req.Company.Website,
		},
		CreatedBy:       sub,
		Status:          domain.JobStatusOpen,
		Deadline:        req.Deadline,
		ExperienceLevel: domain.ExperienceLevel(req.ExperienceLevel),
		Remote:          req.Remote,
	}

	if err := utils.ValidateJobDeadline(job); err != nil {
		h.failResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repository.CreateJob(job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusCreated, "发布职位成功", job)
}

func parseIntQuery(r *http.Request, key string) *int64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func parseBoolQuery(r *http.Request, key string) *bool {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil
	}
	return &b
}

// 把 query string 解析成职位列表的查询条件，page 和 limit 有下限和上限保护
func (h *Handler) parseJobFilter(r *http.Request) *domain.JobFilter {
	query := r.URL.Query()

	filter := &domain.JobFilter{
		Search:          query.Get("search"),
		Location:        query.Get("location"),
		Type:            query.Get("type"),
		Category:        query.Get("category"),
		ExperienceLevel: query.Get("experienceLevel"),
		Remote:          parseBoolQuery(r, "remote"),
		SalaryGTE:       parseIntQuery(r, "salary[gte]"),
		SalaryLTE:       parseIntQuery(r, "salary[lte]"),
		Status:          query.Get("status"),
		SortBy:          query.Get("sort"),
		Page:            1,
		Limit:           h.config.Pagination.DefaultLimit,
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

func (h *Handler) GetAllJobs(w http.ResponseWriter, r *http.Request) {
	filter := h.parseJobFilter(r)

	jobs, total, err := h.repository.GetJobs(filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.pagedResponse(w, r, "获取职位列表成功", jobs, len(jobs), total, filter.Limit, filter.Page)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobInfoCtx).(*domain.Job)
	h.successResponse(w, r, http.StatusOK, "获取职位详情成功", job)
}

// 只有职位的发布者和管理员可以修改职位，createdBy 和申请列表不允许直接修改
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobInfoCtx).(*domain.Job)

	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if job.CreatedBy != sub && h.myRole(r) != domain.RoleAdmin {
		h.forbidden(w, r, "只有职位的发布者和管理员可以修改职位")
		return
	}

	var req struct {
		Title        *string  `json:"title" validate:"omitempty,min=5,max=100"`
		Description  *string  `json:"description"`
		Location     *string  `json:"location"`
		Type         *string  `json:"type" validate:"omitempty,oneof=full-time part-time contract freelance internship"`
		Category     *string  `json:"category"`
		Salary       *int64   `json:"salary" validate:"omitempty,gte=0"`
		Requirements []string `json:"requirements" validate:"omitempty,min=1,dive,required"`
		Skills       []string `json:"skills" validate:"omitempty,min=1,dive,required"`
		Company      *struct {
			Name        string  `json:"name" validate:"required"`
			Description *string `json:"description"`
			Website     *string `json:"website" validate:"omitempty,url"`
		} `json:"company"`
		Status          *string    `json:"status" validate:"omitempty,oneof=open closed"`
		Deadline        *time.Time `json:"deadline"`
		ExperienceLevel *string    `json:"experienceLevel" validate:"omitempty,oneof=entry mid senior lead"`
		Remote          *bool      `json:"remote"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Location != nil {
		job.Location = *req.Location
	}
	if req.Type != nil {
		job.Type = domain.JobType(*req.Type)
	}
	if req.Category != nil {
		job.Category = *req.Category
	}
	if req.Salary != nil {
		job.Salary = req.Salary
	}
	if req.Requirements != nil {
		job.Requirements = req.Requirements
	}
	if req.Skills != nil {
		job.Skills = req.Skills
	}
	if req.Company != nil {
		job.Company = domain.Company{
			Name:        req.Company.Name,
			Description: req.Company.Description,
			Website:     req.Company.Website,
		}
	}
	if req.Status != nil {
		job.Status = domain.JobStatus(*req.Status)
	}
	if req.Deadline != nil {
		job.Deadline = req.Deadline
	}
	if req.ExperienceLevel != nil {
		job.ExperienceLevel = domain.ExperienceLevel(*req.ExperienceLevel)
	}
	if req.Remote != nil {
		job.Remote = *req.Remote
	}

	// 更新后的职位仍然必须保留至少一条任职要求和一项技能
	if err := utils.ValidateJobRequirements(job); err != nil {
		h.failResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repository.UpdateJob(job); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.failResponse(w, r, http.StatusBadRequest, "更新职位失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, http.StatusOK, "更新职位成功", job)
}

// 删除职位会连同其收到的申请一起删除
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobInfoCtx).(*domain.Job)

	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if job.CreatedBy != sub && h.myRole(r) != domain.RoleAdmin {
		h.forbidden(w, r, "只有职位的发布者和管理员可以删除职位")
		return
	}

	if err := h.repository.DeleteJob(job.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.noContent(w)
}

func (h *Handler) GetJobStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repository.GetJobStats()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "获取职位统计成功", stats)
}
