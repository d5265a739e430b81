package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/models"
)

// IsChapterLeader: user có phải leader/backup leader của chapter không.
func IsChapterLeader(userID, chapterID uint) bool {
	var count int64
	config.DB.Model(&models.ChapterMember{}).
		Where("chapter_id = ? AND user_id = ? AND role IN ?", chapterID, userID,
			[]string{models.RoleLeader, models.RoleBackupLeader}).
		Count(&count)
	return count > 0
}

func loadMeeting(c *gin.Context) (*models.Meeting, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "ID không hợp lệ"})
		return nil, false
	}

	var m models.Meeting
	if e := config.DB.First(&m, id).Error; e != nil {
		if errors.Is(e, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Meeting không tồn tại", "code": "not_found"})
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Không thể đọc meeting"})
		return nil, false
	}
	return &m, true
}

// CheckChapterLeader: nạp meeting vào context & chỉ cho leader/backup leader
// của chapter đi tiếp (xóa, dời lịch, start, leader validation).
func CheckChapterLeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := c.MustGet(CtxUser).(models.User)

		m, ok := loadMeeting(c)
		if !ok {
			return
		}

		if !IsChapterLeader(u.ID, m.ChapterID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Bạn không phải leader của chapter này", "code": "unauthorized"})
			return
		}

		c.Set(CtxMeeting, *m)
		c.Next()
	}
}

// CheckScribe: chỉ scribe của buổi họp được điều khiển section (advance, timer).
func CheckScribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := c.MustGet(CtxUser).(models.User)

		m, ok := loadMeeting(c)
		if !ok {
			return
		}

		if m.ScribeID == nil || *m.ScribeID != u.ID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Chỉ scribe của buổi họp được thao tác", "code": "unauthorized"})
			return
		}

		c.Set(CtxMeeting, *m)
		c.Next()
	}
}

// CheckChapterMember: nạp meeting & yêu cầu caller là thành viên chapter
// (RSVP, check-in, nộp artifact).
func CheckChapterMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := c.MustGet(CtxUser).(models.User)

		m, ok := loadMeeting(c)
		if !ok {
			return
		}

		var count int64
		config.DB.Model(&models.ChapterMember{}).
			Where("chapter_id = ? AND user_id = ?", m.ChapterID, u.ID).
			Count(&count)
		if count == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Bạn không thuộc chapter này", "code": "unauthorized"})
			return
		}

		c.Set(CtxMeeting, *m)
		c.Next()
	}
}
