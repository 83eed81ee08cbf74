package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

func TestParseJobFilter(t *testing.T) {
	h, _ := newTestHandler(t)

	t.Run("默认值", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		filter := h.parseJobFilter(req)

		assert.Equal(t, 1, filter.Page)
		assert.Equal(t, h.config.Pagination.DefaultLimit, filter.Limit)
		assert.Empty(t, filter.Search)
		assert.Nil(t, filter.Remote)
	})

	t.Run("完整的查询条件", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/jobs?search=后端&location=广州&type=full-time&category=后端开发&experienceLevel=senior&remote=true&salary%5Bgte%5D=10000&salary%5Blte%5D=30000&status=open&sort=-salary&page=2&limit=20", nil)
		filter := h.parseJobFilter(req)

		assert.Equal(t, "后端", filter.Search)
		assert.Equal(t, "广州", filter.Location)
		assert.Equal(t, "full-time", filter.Type)
		assert.Equal(t, "senior", filter.ExperienceLevel)
		require.NotNil(t, filter.Remote)
		assert.True(t, *filter.Remote)
		require.NotNil(t, filter.SalaryGTE)
		assert.Equal(t, int64(10000), *filter.SalaryGTE)
		require.NotNil(t, filter.SalaryLTE)
		assert.Equal(t, int64(30000), *filter.SalaryLTE)
		assert.Equal(t, "-salary", filter.SortBy)
		assert.Equal(t, 2, filter.Page)
		assert.Equal(t, 20, filter.Limit)
	})

	t.Run("limit 超过上限时被截断", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/jobs?limit=10000", nil)
		filter := h.parseJobFilter(req)

		assert.Equal(t, h.config.Pagination.MaxLimit, filter.Limit)
	})

	t.Run("非法的 page 和 limit 回退到默认值", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/jobs?page=-1&limit=abc", nil)
		filter := h.parseJobFilter(req)

		assert.Equal(t, 1, filter.Page)
		assert.Equal(t, h.config.Pagination.DefaultLimit, filter.Limit)
	})

	t.Run("非法的 remote 被忽略", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/jobs?remote=maybe", nil)
		filter := h.parseJobFilter(req)

		assert.Nil(t, filter.Remote)
	})
}

func patchJobRequest(t *testing.T, job *domain.Job, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPatch, "/jobs/2", strings.NewReader(body))
	ctx := context.WithValue(req.Context(), JobInfoCtx, job)
	ctx = context.WithValue(ctx, SubCtxKey, "5")
	ctx = context.WithValue(ctx, RoleCtxKey, "employer")
	return req.WithContext(ctx)
}

// 更新职位时传入空数组不允许清空任职要求或技能
func TestUpdateJobRejectsEmptyRequirements(t *testing.T) {
	h, mock := newTestHandler(t)

	job := &domain.Job{
		ID:           2,
		Title:        "资深后端开发工程师",
		CreatedBy:    5,
		Status:       domain.JobStatusOpen,
		Requirements: []string{"熟悉 Go"},
		Skills:       []string{"Go"},
	}

	rec := httptest.NewRecorder()
	h.UpdateJob(rec, patchJobRequest(t, job, `{"requirements":[],"skills":[]}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "fail", resp.Status)
	assert.Contains(t, resp.Message, "任职要求")

	// 没有触发任何数据库写入
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateJobRejectsEmptySkills(t *testing.T) {
	h, mock := newTestHandler(t)

	job := &domain.Job{
		ID:           2,
		Title:        "资深后端开发工程师",
		CreatedBy:    5,
		Status:       domain.JobStatusOpen,
		Requirements: []string{"熟悉 Go"},
		Skills:       []string{"Go"},
	}

	rec := httptest.NewRecorder()
	h.UpdateJob(rec, patchJobRequest(t, job, `{"skills":[]}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Message, "技能")

	assert.NoError(t, mock.ExpectationsWereMet())
}
