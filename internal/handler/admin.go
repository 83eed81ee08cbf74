package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

func (h *Handler) AdminGetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.listResponse(w, r, "获取用户列表成功", users, len(users))
}

func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, http.StatusOK, "获取用户信息成功", user)
}

// 删除用户会级联删除其发布的职位和提交的申请
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	// 禁止管理员删除自己
	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if user.ID == sub {
		h.failResponse(w, r, http.StatusBadRequest, "不能删除自己的账号")
		return
	}

	if err := h.repository.DeleteUser(user.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.noContent(w)
}

func (h *Handler) AdminToggleUserBan(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	sub, err := h.mySub(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if user.ID == sub {
		h.failResponse(w, r, http.StatusBadRequest, "不能封禁自己的账号")
		return
	}

	user.IsBanned = !user.IsBanned
	if err := h.repository.UpdateUser(user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.failResponse(w, r, http.StatusBadRequest, "操作失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	msg := "封禁用户成功"
	if !user.IsBanned {
		msg = "解封用户成功"
	}
	h.successResponse(w, r, http.StatusOK, msg, user)
}

func (h *Handler) AdminGetAllJobs(w http.ResponseWriter, r *http.Request) {
	// 管理后台的职位列表不做筛选，直接按时间倒序分页
	filter := h.parseJobFilter(r)
	filter.Search = ""
	filter.SortBy = "-createdAt"

	jobs, total, err := h.repository.GetJobs(filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.pagedResponse(w, r, "获取职位列表成功", jobs, len(jobs), total, filter.Limit, filter.Page)
}

func (h *Handler) AdminDeleteJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobInfoCtx).(*domain.Job)

	if err := h.repository.DeleteJob(job.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.noContent(w)
}

func (h *Handler) AdminGetAllApplications(w http.ResponseWriter, r *http.Request) {
	applications, err := h.repository.GetAllApplications()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.listResponse(w, r, "获取申请列表成功", applications, len(applications))
}

func (h *Handler) AdminDeleteApplication(w http.ResponseWriter, r *http.Request) {
	application := r.Context().Value(ApplicationInfoCtx).(*domain.Application)

	if err := h.repository.DeleteApplication(application.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.noContent(w)
}

func (h *Handler) AdminGetAllAnnouncements(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.repository.GetAllAnnouncements()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.listResponse(w, r, "获取公告列表成功", announcements, len(announcements))
}

// 给所有未被封禁的用户群发公告邮件，只要有一封发送成功就会保存公告，
// 个别收件人失败不会使整个操作失败
func (h *Handler) AdminCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Title   string `json:"title" validate:"required"`
		Message string `json:"message" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	recipients, err := h.repository.GetAnnouncementRecipients()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if len(recipients) == 0 {
		h.failResponse(w, r, http.StatusBadRequest, "没有可以接收公告的用户")
		return
	}

	// 并发把每个收件人的邮件投递到消息队列中，统计每个收件人的成功 / 失败
	var wg sync.WaitGroup
	var mu sync.Mutex
	sent := 0
	failed := 0

	for _, recipient := range recipients {
		wg.Add(1)
		go func(recipient *domain.UserSummary) {
			defer wg.Done()

			err := h.publishMailMessage(domain.MailMessage{
				Type: "announcement",
				To:   recipient.Email,
				Data: domain.AnnouncementMailData{
					Name:    recipient.Name,
					Title:   req.Title,
					Message: req.Message,
				},
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
			} else {
				sent++
			}
		}(recipient)
	}
	wg.Wait()

	if sent == 0 {
		h.internalServerError(w, r, errors.New("公告邮件全部发送失败"))
		return
	}

	announcement := &domain.Announcement{
		Title:          req.Title,
		Message:        req.Message,
		SentBy:         myInfo.ID,
		RecipientCount: int32(sent),
	}

	if err := h.repository.CreateAnnouncement(announcement); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, Response{
		Status:  "success",
		Message: "公告发送成功",
		Data: map[string]any{
			"announcement": announcement,
			"emailsSent":   sent,
			"failedCount":  failed,
		},
	})
}

func (h *Handler) AdminDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	announcementIDParam := chi.URLParam(r, "id")
	announcementID, err := strconv.ParseInt(announcementIDParam, 10, 64)
	if err != nil {
		h.failResponse(w, r, http.StatusBadRequest, "公告ID无效")
		return
	}

	if err := h.repository.DeleteAnnouncement(announcementID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.noContent(w)
}

func (h *Handler) AdminGetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repository.GetDashboardStats()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "获取仪表盘统计成功", stats)
}
