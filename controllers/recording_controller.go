package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/meetings"
	"github.com/vnkhanh/chapter-server/middleware"
	"github.com/vnkhanh/chapter-server/models"
	"github.com/vnkhanh/chapter-server/utils"
)

// POST /api/meetings/:id/recordings (multipart, field "file")
// Blob lên supabase storage, metadata vào bảng recordings.
func UploadMeetingRecording(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	// Chỉ nhận recording khi buổi họp đang diễn ra hoặc vừa xong, chưa chốt validation
	allowed := m.Status == meetings.StatusInProgress ||
		(m.Status == meetings.StatusCompleted &&
			(m.ValidationStatus == meetings.ValidationAwaitingLeader ||
				m.ValidationStatus == meetings.ValidationAwaitingAdmin))
	if !allowed {
		c.JSON(http.StatusConflict, gin.H{
			"message": "Meeting không ở trạng thái nhận recording",
			"code":    "invalid_transition",
		})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Thiếu file upload"})
		return
	}

	fileID := uuid.New().String()
	folder := fmt.Sprintf("meeting_%d", m.ID)
	objectKey, publicURL, err := utils.UploadRecording(fh, fh.Filename, fileID, folder, "")
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"message": "Upload lên storage thất bại"})
		return
	}

	rec := models.Recording{
		MeetingID:  m.ID,
		UploadedBy: u.ID,
		ObjectKey:  objectKey,
		PublicURL:  publicURL,
	}
	if err := config.DB.Create(&rec).Error; err != nil {
		// DB lỗi thì dọn blob vừa đẩy lên, tránh file mồ côi
		utils.RemoveRecordings([]string{objectKey})
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể lưu recording"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recording": rec})
}

// GET /api/meetings/:id/recordings
func ListMeetingRecordings(c *gin.Context) {
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var recs []models.Recording
	if err := config.DB.Where("meeting_id = ?", m.ID).Order("created_at").Find(&recs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recordings": recs})
}
