package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key the request id middleware fills.
const RequestIDKey = "request_id"

// APIResponse is the envelope every endpoint answers with.
type APIResponse[T any] struct {
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data,omitempty"`
	Meta      any       `json:"meta,omitempty"`
	Error     any       `json:"error,omitempty"`
}

// Success writes a 2xx envelope (200 when status is 0) and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta any) APIResponse[T] {
	return write(ctx, APIResponse[T]{
		Status:  orStatus(status, http.StatusOK),
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

// Error writes a failure envelope (400 when status is 0). details usually
// maps field names to messages.
func Error[T any](ctx *gin.Context, status int, message string, details any) APIResponse[T] {
	return write(ctx, APIResponse[T]{
		Status:  orStatus(status, http.StatusBadRequest),
		Message: message,
		Error:   details,
	})
}

func write[T any](ctx *gin.Context, resp APIResponse[T]) APIResponse[T] {
	resp.Timestamp = time.Now().UTC()
	resp.RequestID = ctx.GetString(RequestIDKey)
	ctx.JSON(resp.Status, resp)
	return resp
}

func orStatus(status, fallback int) int {
	if status == 0 {
		return fallback
	}
	return status
}

// Pagination is the meta block of every paged listing.
type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

func NewPagination(page, perPage, total int) Pagination {
	if page < 1 {
		page = 1
	}
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: page < pages,
	}
}
