package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/zenplan-api/internal/application"
	"github.com/oksasatya/zenplan-api/internal/domain/entity"
	"github.com/oksasatya/zenplan-api/pkg/response"
)

// ListHandler serves the /list routes. The owner always comes from the
// verified identity; any user id in the body is ignored.
type ListHandler struct {
	Svc    *application.ListService
	Logger *logrus.Logger
}

func NewListHandler(svc *application.ListService, logger *logrus.Logger) *ListHandler {
	return &ListHandler{Svc: svc, Logger: logger}
}

type createActivityRequest struct {
	Title       string `json:"title" binding:"required,notblank,max=200"`
	Category    string `json:"category" binding:"required,category"`
	Time        string `json:"time" binding:"required,datetime_any"`
	Description string `json:"description" binding:"max=2000"`
	Note        string `json:"note" binding:"max=2000"`
}

type editActivityRequest struct {
	Title       *string `json:"title" binding:"omitempty,notblank,max=200"`
	Category    *string `json:"category" binding:"omitempty,category"`
	Time        *string `json:"time" binding:"omitempty,datetime_any"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Note        *string `json:"note" binding:"omitempty,max=2000"`
}

// ActivityResponse is the wire form of an activity.
type ActivityResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Time        time.Time `json:"time"`
	Description string    `json:"description"`
	Note        string    `json:"note"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type completeAllResponse struct {
	Count      int                `json:"count"`
	Activities []ActivityResponse `json:"activities"`
}

func toActivityResponse(a entity.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          a.ID,
		Title:       a.Title,
		Category:    a.Category.String(),
		Time:        a.Time,
		Description: a.Description,
		Note:        a.Note,
		Completed:   a.Completed,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toActivityResponses(items []entity.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toActivityResponse(a))
	}
	return out
}

func (h *ListHandler) Get(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	items, err := h.Svc.List(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toActivityResponses(items), "activities fetched", map[string]any{"count": len(items)})
}

func (h *ListHandler) Create(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req createActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.Svc.Create(c.Request.Context(), id.UserID, application.CreateActivityInput{
		Title:       req.Title,
		Category:    req.Category,
		Time:        req.Time,
		Description: req.Description,
		Note:        req.Note,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toActivityResponse(*a), "activity created", nil)
}

func (h *ListHandler) Edit(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req editActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.Svc.Edit(c.Request.Context(), id.UserID, c.Param("id"), application.EditActivityInput{
		Title:       req.Title,
		Category:    req.Category,
		Time:        req.Time,
		Description: req.Description,
		Note:        req.Note,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toActivityResponse(*a), "activity updated", nil)
}

func (h *ListHandler) Delete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	activityID := c.Param("id")
	if err := h.Svc.Delete(c.Request.Context(), id.UserID, activityID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": activityID}, "activity deleted", nil)
}

func (h *ListHandler) Toggle(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	a, err := h.Svc.Toggle(c.Request.Context(), id.UserID, c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toActivityResponse(*a), "activity toggled", nil)
}

func (h *ListHandler) CompleteAll(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	items, err := h.Svc.CompleteAll(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, completeAllResponse{
		Count:      len(items),
		Activities: toActivityResponses(items),
	}, "activities completed", nil)
}

// Search: GET /list/search?q=walk&size=10
func (h *ListHandler) Search(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	items, err := h.Svc.Search(c.Request.Context(), id.UserID, c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toActivityResponses(items), "search results", map[string]any{"count": len(items)})
}
