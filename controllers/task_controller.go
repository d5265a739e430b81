package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/middleware"
	"github.com/vnkhanh/chapter-server/models"
	"github.com/vnkhanh/chapter-server/tasks"
)

// GET /api/tasks/my?include_completed=&page=&limit=
func ListMyTasks(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	q := config.DB.Model(&models.PendingTask{}).Where("assigned_to = ?", u.ID)
	if c.Query("include_completed") != "true" {
		q = q.Where("completed_at IS NULL")
	}
	if taskType := c.Query("task_type"); taskType != "" {
		q = q.Where("task_type = ?", taskType)
	}

	var total int64
	q.Count(&total)

	var rows []models.PendingTask
	if err := q.Order("due_at IS NULL, due_at ASC, id ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, t := range rows {
		var meta map[string]interface{}
		if t.MetadataJSON != "" {
			json.Unmarshal([]byte(t.MetadataJSON), &meta)
		}
		out = append(out, gin.H{
			"id":           t.ID,
			"task_type":    t.TaskType,
			"related_type": t.RelatedType,
			"related_id":   t.RelatedID,
			"urgency":      t.Urgency,
			"due_at":       t.DueAt,
			"metadata":     meta,
			"completed_at": t.CompletedAt,
			"created_at":   t.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": out,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// PUT /api/tasks/:id/complete
// Đóng task của chính mình; task đã đóng rồi thì vẫn trả 200 (idempotent).
func CompleteTask(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "ID không hợp lệ"})
		return
	}

	var t models.PendingTask
	if err := config.DB.First(&t, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Task không tồn tại"})
		return
	}
	if t.AssignedTo != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Task không thuộc về bạn"})
		return
	}

	if err := tasks.Complete(config.DB, t.ID, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể hoàn thành task"})
		return
	}

	config.DB.First(&t, t.ID)
	c.JSON(http.StatusOK, gin.H{"task": t})
}
