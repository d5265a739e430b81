package controllers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/scheduler"
)

// POST /api/internal/sweep
// Endpoint cho cron ngoài (Render Cron Job) gọi sweep thủ công; bảo vệ bằng
// header X-Cron-Secret. Body có thể truyền "now" (RFC3339) để chạy lại một
// mốc cũ — sweep idempotent nên gọi trùng vô hại.
func RunSweepNow(c *gin.Context) {
	secret := os.Getenv("CRON_SECRET")
	if secret == "" || c.GetHeader("X-Cron-Secret") != secret {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	var req struct {
		Now *string `json:"now"`
	}
	c.ShouldBindJSON(&req)

	now := time.Now()
	if req.Now != nil {
		t, err := time.Parse(time.RFC3339, *req.Now)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "now phải theo RFC3339"})
			return
		}
		now = t
	}

	sweeper := &scheduler.Sweeper{DB: config.DB, Notifier: newNotifier()}
	res, err := sweeper.RunSweep(now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Sweep lỗi: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": res})
}
