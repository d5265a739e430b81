package controllers

import (
	"errors"
	"net/http"
	"strings"
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

type RsvpReq struct {
	Status string  `json:"status" binding:"required"` // yes | no
	Reason *string `json:"reason"`
}

// POST /api/meetings/:id/rsvp
// RSVP "no" bắt buộc có lý do. Submit xong thì task respond_to_rsvp tự đóng.
func SubmitRsvp(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req RsvpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	if req.Status != models.RSVPYes && req.Status != models.RSVPNo {
		c.JSON(http.StatusBadRequest, gin.H{"message": "status phải là yes hoặc no"})
		return
	}
	if req.Status == models.RSVPNo && (req.Reason == nil || strings.TrimSpace(*req.Reason) == "") {
		c.JSON(http.StatusBadRequest, gin.H{"message": "RSVP 'no' bắt buộc có lý do"})
		return
	}

	if m.Status != meetings.StatusScheduled {
		c.JSON(http.StatusConflict, gin.H{"message": "Meeting không còn nhận RSVP", "code": "invalid_transition"})
		return
	}
	now := time.Now()
	if m.RSVPDeadline != nil && now.After(*m.RSVPDeadline) {
		c.JSON(http.StatusConflict, gin.H{"message": "Đã quá hạn RSVP", "code": "invalid_transition"})
		return
	}

	// Upsert attendance: row có thể đã được scheduler tạo lười từ trước.
	var att models.Attendance
	err := config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, u.ID).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		att = models.Attendance{MeetingID: m.ID, UserID: u.ID}
		if cerr := config.DB.Create(&att).Error; cerr != nil {
			// Race với sweep: row vừa được tạo -> đọc lại
			if rerr := config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, u.ID).First(&att).Error; rerr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể lưu RSVP"})
				return
			}
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	updates := map[string]interface{}{
		"rsvp_status": req.Status,
		"rsvp_at":     now,
	}
	if req.Status == models.RSVPNo {
		updates["rsvp_reason"] = req.Reason
	} else {
		updates["rsvp_reason"] = nil
	}
	if err := config.DB.Model(&att).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể lưu RSVP"})
		return
	}

	tasks.CompleteMatching(config.DB, models.TaskRespondToRSVP, u.ID, tasks.MeetingRef(m.ID), now)

	config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, u.ID).First(&att)
	c.JSON(http.StatusOK, gin.H{"attendance": att})
}

type CheckInReq struct {
	AttendanceType string `json:"attendance_type"` // in_person | video, mặc định in_person
}

// POST /api/meetings/:id/checkin
// Check-in mở từ (giờ họp - CHECKIN_WINDOW_MIN). is_late khi meeting đã start
// và check-in trễ hơn actual_start + LATE_GRACE_MIN.
func CheckIn(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req CheckInReq
	c.ShouldBindJSON(&req)
	if req.AttendanceType == "" {
		req.AttendanceType = models.AttendanceInPerson
	}
	if req.AttendanceType != models.AttendanceInPerson && req.AttendanceType != models.AttendanceVideo {
		c.JSON(http.StatusBadRequest, gin.H{"message": "attendance_type phải là in_person hoặc video"})
		return
	}

	if m.Status != meetings.StatusScheduled && m.Status != meetings.StatusInProgress {
		c.JSON(http.StatusConflict, gin.H{"message": "Meeting không còn nhận check-in", "code": "invalid_transition"})
		return
	}

	scheduledAt, err := meetings.ScheduledAt(&m)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Ngày giờ meeting không hợp lệ"})
		return
	}
	now := time.Now()
	if now.Before(scheduledAt.Add(-utils.CheckinWindow())) {
		c.JSON(http.StatusConflict, gin.H{"message": "Chưa tới giờ check-in", "code": "precondition_failed"})
		return
	}

	isLate := false
	if m.ActualStartTime != nil && now.After(m.ActualStartTime.Add(utils.LateGrace())) {
		isLate = true
	}

	var att models.Attendance
	err = config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, u.ID).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		att = models.Attendance{MeetingID: m.ID, UserID: u.ID}
		if cerr := config.DB.Create(&att).Error; cerr != nil {
			if rerr := config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, u.ID).First(&att).Error; rerr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể check-in"})
				return
			}
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	if att.CheckedInAt != nil {
		// Check-in lần hai là no-op, giữ nguyên mốc đầu
		c.JSON(http.StatusOK, gin.H{"attendance": att, "already_checked_in": true})
		return
	}

	if err := config.DB.Model(&att).Updates(map[string]interface{}{
		"checked_in_at":   now,
		"attendance_type": req.AttendanceType,
		"is_late":         isLate,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể check-in"})
		return
	}

	config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, u.ID).First(&att)
	c.JSON(http.StatusOK, gin.H{"attendance": att, "is_late": isLate})
}

type OutreachReq struct {
	UserID uint   `json:"user_id" binding:"required"`
	Notes  string `json:"notes" binding:"required,min=1"`
}

// POST /api/meetings/:id/outreach
// Leader ghi nhận đã liên hệ trực tiếp một thành viên im lặng. Chỉ hợp lệ
// sau khi hệ thống đã gửi reminder cho người đó (outreach luôn sau reminder).
func LogLeaderOutreach(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	m := c.MustGet(middleware.CtxMeeting).(models.Meeting)

	var req OutreachReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var att models.Attendance
	err := config.DB.Where("meeting_id = ? AND user_id = ?", m.ID, req.UserID).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Thành viên chưa có attendance cho buổi họp này"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	if att.ReminderSentAt == nil {
		c.JSON(http.StatusPreconditionFailed, gin.H{
			"message": "Chưa gửi reminder cho thành viên này, không thể ghi outreach",
			"code":    "precondition_failed",
		})
		return
	}

	now := time.Now()
	upd := config.DB.Model(&models.Attendance{}).
		Where("id = ? AND leader_outreach_logged_at IS NULL", att.ID).
		Updates(map[string]interface{}{
			"leader_outreach_logged_at": now,
			"leader_outreach_notes":     req.Notes,
			"leader_outreach_by":        u.ID,
		})
	if upd.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể ghi outreach"})
		return
	}
	if upd.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Outreach đã được ghi trước đó", "code": "invalid_transition"})
		return
	}

	// Đóng task contact của mọi leader (leader nào liên hệ xong thì cả nhóm xong)
	config.DB.Model(&models.PendingTask{}).
		Where("task_type = ? AND related_type = ? AND related_id = ? AND completed_at IS NULL",
			models.TaskContactUnresponsiveMember, "attendance", att.ID).
		Update("completed_at", now)

	config.DB.First(&att, att.ID)
	c.JSON(http.StatusOK, gin.H{"attendance": att})
}
