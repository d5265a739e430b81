package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/meetings"
	"github.com/vnkhanh/chapter-server/middleware"
	"github.com/vnkhanh/chapter-server/models"
)

// POST /api/meetings/:id/start
// Leader bấm start và chỉ định scribe (mặc định chính leader).
func StartMeeting(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req struct {
		ScribeID *uint `json:"scribe_id"`
	}
	// body rỗng vẫn hợp lệ
	c.ShouldBindJSON(&req)

	scribeID := u.ID
	if req.ScribeID != nil {
		var count int64
		config.DB.Model(&models.ChapterMember{}).
			Where("chapter_id = ? AND user_id = ?", m.ChapterID, *req.ScribeID).
			Count(&count)
		if count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Scribe phải là thành viên chapter"})
			return
		}
		scribeID = *req.ScribeID
	}

	res, err := meetings.Start(config.DB, m.ID, scribeID, time.Now())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meeting":    res.Meeting,
		"late_start": res.LateStart,
	})
}

// POST /api/meetings/:id/advance
// Scribe đóng section hiện tại và mở section kế. Gate chặn nếu còn attendee
// đã check-in chưa nộp artifact của section đang mở.
func AdvanceSection(c *gin.Context) {
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	res, err := meetings.Advance(config.DB, m.ID, time.Now())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meeting": res.Meeting,
		"from":    res.From,
		"to":      res.To,
		"skipped": res.Skipped,
	})
}

// requireCheckedIn: artifact chỉ nhận từ attendee đã check-in, và chỉ khi
// meeting đang mở đúng section đó.
func requireCheckedIn(c *gin.Context, m *models.Meeting, userID uint, section string) bool {
	if m.Status != meetings.StatusInProgress || m.CurrentSection != section {
		c.JSON(http.StatusConflict, gin.H{
			"message": "Meeting không ở section này",
			"code":    "invalid_transition",
		})
		return false
	}
	var att models.Attendance
	err := config.DB.Where("meeting_id = ? AND user_id = ? AND checked_in_at IS NOT NULL", m.ID, userID).
		First(&att).Error
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Bạn chưa check-in buổi họp này", "code": "precondition_failed"})
		return false
	}
	return true
}

// POST /api/meetings/:id/lightning
func SubmitLightning(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req struct {
		Content string `json:"content" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if !requireCheckedIn(c, &m, u.ID, meetings.SectionLightning) {
		return
	}

	// Nộp lại thì ghi đè nội dung cũ
	var existing models.LightningUpdate
	err := config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, u.ID).First(&existing).Error
	if err == nil {
		config.DB.Model(&existing).Update("content", req.Content)
		c.JSON(http.StatusOK, gin.H{"lightning_update": existing})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	lu := models.LightningUpdate{MeetingID: m.ID, UserID: u.ID, Content: req.Content}
	if err := config.DB.Create(&lu).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể lưu lightning update"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lightning_update": lu})
}

// POST /api/meetings/:id/curriculum-response
func SubmitCurriculumResponse(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req struct {
		Content string `json:"content" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if m.CurriculumModuleID == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Buổi họp không có curriculum module", "code": "invalid_transition"})
		return
	}
	if !requireCheckedIn(c, &m, u.ID, meetings.SectionCurriculum) {
		return
	}

	var existing models.CurriculumResponse
	err := config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, u.ID).First(&existing).Error
	if err == nil {
		config.DB.Model(&existing).Updates(map[string]interface{}{
			"content":   req.Content,
			"module_id": m.CurriculumModuleID,
		})
		c.JSON(http.StatusOK, gin.H{"curriculum_response": existing})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	cr := models.CurriculumResponse{
		MeetingID: m.ID,
		UserID:    u.ID,
		ModuleID:  m.CurriculumModuleID,
		Content:   req.Content,
	}
	if err := config.DB.Create(&cr).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể lưu curriculum response"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"curriculum_response": cr})
}

// POST /api/meetings/:id/feedback
func SubmitFeedback(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req struct {
		Rating               int    `json:"rating" binding:"required,min=1,max=5"`
		MostValuableMemberID *uint  `json:"most_valuable_member_id"`
		Comment              string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if !requireCheckedIn(c, &m, u.ID, meetings.SectionClosing) {
		return
	}

	if req.MostValuableMemberID != nil {
		var count int64
		config.DB.Model(&models.ChapterMember{}).
			Where("chapter_id = ? AND user_id = ?", m.ChapterID, *req.MostValuableMemberID).
			Count(&count)
		if count == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Thành viên được bình chọn không thuộc chapter"})
			return
		}
	}

	var existing models.Feedback
	err := config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, u.ID).First(&existing).Error
	if err == nil {
		config.DB.Model(&existing).Updates(map[string]interface{}{
			"rating":                   req.Rating,
			"most_valuable_member_id":  req.MostValuableMemberID,
			"comment":                  req.Comment,
		})
		c.JSON(http.StatusOK, gin.H{"feedback": existing})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	fb := models.Feedback{
		MeetingID:            m.ID,
		UserID:               u.ID,
		Rating:               req.Rating,
		MostValuableMemberID: req.MostValuableMemberID,
		Comment:              req.Comment,
	}
	if err := config.DB.Create(&fb).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể lưu feedback"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback": fb})
}

// PUT /api/meetings/:id/validate/leader
func ValidateAsLeader(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req struct {
		Notes string `json:"notes"`
	}
	c.ShouldBindJSON(&req)

	updated, err := meetings.ValidateLeader(config.DB, m.ID, u.ID, req.Notes, time.Now())
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting": updated})
}

// PUT /api/meetings/:id/validate/admin
func ValidateAsAdmin(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req struct {
		Approve *bool  `json:"approve" binding:"required"`
		Notes   string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var m models.Meeting
	if err := config.DB.First(&m, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Meeting không tồn tại"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	updated, err := meetings.ValidateAdmin(config.DB, m.ID, u.ID, *req.Approve, req.Notes, time.Now())
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting": updated})
}
