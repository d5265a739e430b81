package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/meetings"
	"github.com/vnkhanh/chapter-server/middleware"
	"github.com/vnkhanh/chapter-server/models"
	"github.com/vnkhanh/chapter-server/tasks"
	"github.com/vnkhanh/chapter-server/utils"
)

// respondEngineError map taxonomy lỗi của engine sang HTTP status.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, meetings.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error(), "code": "not_found"})
	case errors.Is(err, meetings.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error(), "code": "unauthorized"})
	case errors.Is(err, meetings.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error(), "code": "invalid_transition"})
	case errors.Is(err, meetings.ErrSectionNotReady):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error(), "code": "section_not_ready"})
	case errors.Is(err, meetings.ErrPreconditionFailed):
		c.JSON(http.StatusPreconditionFailed, gin.H{"message": err.Error(), "code": "precondition_failed"})
	case errors.Is(err, meetings.ErrDependencyFailure):
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error(), "code": "dependency_failure"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi hệ thống"})
	}
}

type TaoMeetingReq struct {
	ChapterID          uint    `json:"chapter_id" binding:"required"`
	ScheduledDate      string  `json:"scheduled_date" binding:"required"` // YYYY-MM-DD
	ScheduledTime      string  `json:"scheduled_time" binding:"required"` // HH:MM
	Location           string  `json:"location"`
	DurationMin        int     `json:"duration_min"`
	RSVPDeadline       *string `json:"rsvp_deadline"` // RFC3339, optional
	CurriculumModuleID *uint   `json:"curriculum_module_id"`
}

// POST /api/meetings
// Tạo meeting + fan-out task respond_to_rsvp cho mọi thành viên chapter.
func CreateMeeting(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req TaoMeetingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	if !utils.ValidDate(req.ScheduledDate) || !utils.ValidTimeOfDay(req.ScheduledTime) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Ngày giờ không hợp lệ (YYYY-MM-DD và HH:MM)"})
		return
	}

	var chapter models.Chapter
	if err := config.DB.First(&chapter, req.ChapterID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Chapter không tồn tại"})
		return
	}
	if !middleware.IsChapterLeader(u.ID, chapter.ID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Chỉ leader của chapter được tạo meeting"})
		return
	}

	if req.CurriculumModuleID != nil {
		var mod models.CurriculumModule
		if err := config.DB.First(&mod, *req.CurriculumModuleID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Curriculum module không tồn tại"})
			return
		}
	}

	var deadline *time.Time
	if req.RSVPDeadline != nil {
		if t, err := time.Parse(time.RFC3339, *req.RSVPDeadline); err == nil {
			deadline = &t
		}
	}
	if req.DurationMin <= 0 {
		req.DurationMin = 90
	}

	m := models.Meeting{
		ChapterID:          chapter.ID,
		ScheduledDate:      req.ScheduledDate,
		ScheduledTime:      req.ScheduledTime,
		Location:           req.Location,
		DurationMin:        req.DurationMin,
		Status:             meetings.StatusScheduled,
		CurrentSection:     meetings.SectionNotStarted,
		RSVPDeadline:       deadline,
		ValidationStatus:   meetings.ValidationNone,
		CurriculumModuleID: req.CurriculumModuleID,
	}
	if err := config.DB.Create(&m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể tạo meeting"})
		return
	}

	dueAt := deadline
	if dueAt == nil {
		if at, err := meetings.ScheduledAt(&m); err == nil {
			dueAt = &at
		}
	}

	// Mỗi thành viên nhận một task RSVP; task lặp lại là no-op.
	var members []models.ChapterMember
	config.DB.Where("chapter_id = ?", chapter.ID).Find(&members)
	tasksCreated := 0
	for _, mem := range members {
		created, err := tasks.Create(config.DB, models.TaskRespondToRSVP, mem.UserID,
			tasks.MeetingRef(m.ID), nil, dueAt)
		if err == nil && created {
			tasksCreated++
		}
	}

	// Chưa chọn module thì leader nhận task chọn curriculum.
	if m.CurriculumModuleID == nil {
		tasks.Create(config.DB, models.TaskSelectCurriculum, u.ID, tasks.MeetingRef(m.ID), nil, dueAt)
	}

	c.JSON(http.StatusCreated, gin.H{
		"meeting":       m,
		"tasks_created": tasksCreated,
	})
}

// GET /api/meetings?chapter_id=&status=&page=&limit=
func ListMeetings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := config.DB.Model(&models.Meeting{})
	if chapterID := c.Query("chapter_id"); chapterID != "" {
		q = q.Where("chapter_id = ?", chapterID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	q.Count(&total)

	var ms []models.Meeting
	if err := q.Order("scheduled_date DESC, scheduled_time DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&ms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meetings": ms,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GET /api/meetings/:id
func GetMeetingDetail(c *gin.Context) {
	id := c.Param("id")

	var m models.Meeting
	if err := config.DB.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Meeting không tồn tại"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	var atts []models.Attendance
	config.DB.Where("meeting_id = ?", m.ID).Find(&atts)

	var logs []models.SectionTimeLog
	config.DB.Where("meeting_id = ?", m.ID).Order("started_at").Find(&logs)

	c.JSON(http.StatusOK, gin.H{
		"meeting":     m,
		"attendances": atts,
		"time_logs":   logs,
	})
}

// PUT /api/meetings/:id/curriculum
// Chọn module cho phần curriculum; đóng task select_curriculum nếu có.
func SelectCurriculum(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req struct {
		ModuleID uint `json:"module_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var mod models.CurriculumModule
	if err := config.DB.First(&mod, req.ModuleID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Curriculum module không tồn tại"})
		return
	}

	// Chỉ đổi được trước khi phần curriculum bắt đầu.
	if m.Status == meetings.StatusInProgress &&
		meetings.SectionIndex(m.CurrentSection) >= meetings.SectionIndex(meetings.SectionCurriculum) {
		c.JSON(http.StatusConflict, gin.H{"message": "Phần curriculum đã bắt đầu, không thể đổi module"})
		return
	}
	if m.Status != meetings.StatusScheduled && m.Status != meetings.StatusInProgress {
		c.JSON(http.StatusConflict, gin.H{"message": "Meeting không còn ở trạng thái cho phép chọn module"})
		return
	}

	if err := config.DB.Model(&models.Meeting{}).
		Where("id = ?", m.ID).
		Update("curriculum_module_id", req.ModuleID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể cập nhật meeting"})
		return
	}

	tasks.CompleteMatching(config.DB, models.TaskSelectCurriculum, u.ID,
		tasks.MeetingRef(m.ID), time.Now())

	c.JSON(http.StatusOK, gin.H{"message": "Đã chọn curriculum module", "module": mod})
}

// PUT /api/meetings/:id/reschedule
// Dời lịch: RSVP cũ bị hủy, thành viên được thông báo và nhận lại task RSVP.
func RescheduleMeeting(c *gin.Context) {
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req struct {
		ScheduledDate string `json:"scheduled_date" binding:"required"`
		ScheduledTime string `json:"scheduled_time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	updated, err := meetings.Reschedule(config.DB, m.ID, req.ScheduledDate, req.ScheduledTime)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	var dueAt *time.Time
	if at, aerr := meetings.ScheduledAt(updated); aerr == nil {
		dueAt = &at
	}

	notifier := newNotifier()
	var members []models.ChapterMember
	config.DB.Where("chapter_id = ?", updated.ChapterID).Find(&members)
	for _, mem := range members {
		tasks.Create(config.DB, models.TaskRespondToRSVP, mem.UserID,
			tasks.MeetingRef(updated.ID), nil, dueAt)
		notifier.Send(notificationMeetingRescheduled(mem.UserID, updated))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Đã dời lịch, thành viên cần RSVP lại",
		"meeting": updated,
	})
}

// DELETE /api/meetings/:id
func DeleteMeeting(c *gin.Context) {
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	if err := meetings.Delete(config.DB, m.ID, time.Now(), utils.RemoveRecordings); err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã xóa meeting và toàn bộ dữ liệu liên quan"})
}

func notificationMeetingRescheduled(userID uint, m *models.Meeting) notificationMsg {
	return notificationMsg{
		UserID:      userID,
		Channel:     models.ChannelEmail,
		Purpose:     "meeting_rescheduled",
		Subject:     fmt.Sprintf("Buổi họp được dời sang %s %s", m.ScheduledDate, m.ScheduledTime),
		Body:        fmt.Sprintf("Buổi họp của chapter được dời sang %s lúc %s. RSVP cũ đã bị hủy, vui lòng xác nhận lại.", m.ScheduledDate, m.ScheduledTime),
		RelatedType: "meeting",
		RelatedID:   m.ID,
	}
}
