package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
	}
}

// 统一的响应信封：status 为 success / fail / error 三者之一，
// 列表接口额外带上分页信息
type Response struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Data        any    `json:"data,omitempty"`
	Results     *int   `json:"results,omitempty"`
	Total       *int64 `json:"total,omitempty"`
	TotalPages  *int   `json:"totalPages,omitempty"`
	CurrentPage *int   `json:"currentPage,omitempty"`
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, code int, msg string, data any) {
	h.writeJSON(w, r, code, Response{
		Status:  "success",
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) listResponse(w http.ResponseWriter, r *http.Request, msg string, data any, results int) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Status:  "success",
		Message: msg,
		Data:    data,
		Results: &results,
	})
}

func (h *Handler) pagedResponse(w http.ResponseWriter, r *http.Request, msg string, data any, results int, total int64, limit int, page int) {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	h.writeJSON(w, r, http.StatusOK, Response{
		Status:      "success",
		Message:     msg,
		Data:        data,
		Results:     &results,
		Total:       &total,
		TotalPages:  &totalPages,
		CurrentPage: &page,
	})
}

func (h *Handler) noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) failResponse(w http.ResponseWriter, r *http.Request, code int, msg string) {
	h.writeJSON(w, r, code, Response{
		Status:  "fail",
		Message: msg,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.failResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.failResponse(w, r, http.StatusBadRequest, validationErrors[0].Translate(h.translator))
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	h.failResponse(w, r, http.StatusUnauthorized, msg)
}

func (h *Handler) forbidden(w http.ResponseWriter, r *http.Request, msg string) {
	h.failResponse(w, r, http.StatusForbidden, msg)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	h.failResponse(w, r, http.StatusNotFound, msg)
}

func (h *Handler) conflict(w http.ResponseWriter, r *http.Request, msg string) {
	h.failResponse(w, r, http.StatusConflict, msg)
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)

	// 生产环境下不向客户端透露内部错误的细节
	msg := "服务器内部错误"
	if h.config.Environment != "production" && err != nil {
		msg = err.Error()
	}

	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Status:  "error",
		Message: msg,
	})
}
