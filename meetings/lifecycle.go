package meetings

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/models"
	"github.com/vnkhanh/chapter-server/utils"
)

// StartResult trả về cho caller biết buổi họp bắt đầu trễ hay không;
// việc ghi audit log cho late-start là của hệ thống ngoài.
type StartResult struct {
	Meeting   models.Meeting
	LateStart bool
}

// Start: scheduled -> in_progress. Update có điều kiện trên status để hai
// request start đồng thời chỉ có một bên thắng.
func Start(db *gorm.DB, meetingID uint, scribeID uint, now time.Time) (*StartResult, error) {
	var m models.Meeting
	if err := db.First(&m, meetingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.Status != StatusScheduled {
		return nil, ErrInvalidTransition
	}

	scheduledAt, err := ScheduledAt(&m)
	if err != nil {
		return nil, fmt.Errorf("ngày giờ meeting không hợp lệ: %w", err)
	}

	tx := db.Model(&models.Meeting{}).
		Where("id = ? AND status = ?", meetingID, StatusScheduled).
		Updates(map[string]interface{}{
			"status":            StatusInProgress,
			"current_section":   SectionNotStarted,
			"actual_start_time": now,
			"scribe_id":         scribeID,
		})
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		// Bên kia đã start trước; precondition không còn đúng.
		return nil, ErrInvalidTransition
	}

	if err := db.First(&m, meetingID).Error; err != nil {
		return nil, err
	}
	return &StartResult{Meeting: m, LateStart: now.After(scheduledAt)}, nil
}

// AdvanceResult mô tả một bước tiến section.
type AdvanceResult struct {
	Meeting models.Meeting
	From    string
	To      string
	Skipped bool // section vừa đóng bị skip (curriculum không có module)
}

// Advance đóng section hiện tại và mở section kế tiếp. Gate: mọi attendee đã
// check-in phải có artifact của section hiện tại. Update có điều kiện trên
// (status, current_section) là điểm serialize — hai scribe bấm advance cùng
// lúc thì bên thua sẽ nhận ErrInvalidTransition chứ không ghi đè.
func Advance(db *gorm.DB, meetingID uint, now time.Time) (*AdvanceResult, error) {
	var m models.Meeting
	if err := db.First(&m, meetingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.Status != StatusInProgress {
		return nil, ErrInvalidTransition
	}

	from := m.CurrentSection
	to, ok := NextSection(from)
	if !ok {
		return nil, ErrInvalidTransition
	}

	gate, err := SectionGate(db, &m, from)
	if err != nil {
		return nil, err
	}
	if !gate.Satisfied() {
		return nil, fmt.Errorf("%w: còn %d attendee chưa nộp", ErrSectionNotReady, len(gate.Missing))
	}

	res := &AdvanceResult{From: from, To: to, Skipped: gate.Skip}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"current_section": to}
		if to == SectionCompleted {
			updates["status"] = StatusCompleted
			updates["completed_at"] = now
			updates["validation_status"] = ValidationAwaitingLeader
		}

		upd := tx.Model(&models.Meeting{}).
			Where("id = ? AND status = ? AND current_section = ?", meetingID, StatusInProgress, from).
			Updates(updates)
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			// Một advance khác đã thắng; precondition re-check thất bại.
			return ErrInvalidTransition
		}

		if err := closeSectionLog(tx, meetingID, from, now, gate.Skip); err != nil {
			return err
		}
		if to != SectionCompleted {
			return tx.Create(&models.SectionTimeLog{
				MeetingID: meetingID,
				Section:   to,
				StartedAt: now,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.First(&m, meetingID).Error; err != nil {
		return nil, err
	}
	res.Meeting = m
	return res, nil
}

// closeSectionLog chốt time log toàn-chapter đang mở của section vừa đóng.
// overtime chỉ >0 khi thời lượng vượt budget cấu hình của section đó.
func closeSectionLog(tx *gorm.DB, meetingID uint, section string, now time.Time, skipped bool) error {
	if section == SectionNotStarted {
		return nil
	}
	var logRow models.SectionTimeLog
	err := tx.Where("meeting_id = ? AND section = ? AND user_id IS NULL AND ended_at IS NULL", meetingID, section).
		First(&logRow).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	duration := int(now.Sub(logRow.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	overtime := 0
	if budget := int(utils.SectionBudget(section).Seconds()); budget > 0 && duration > budget {
		overtime = duration - budget
	}
	return tx.Model(&logRow).Updates(map[string]interface{}{
		"ended_at":         now,
		"duration_seconds": duration,
		"overtime_seconds": overtime,
		"skipped":          skipped,
	}).Error
}

// ValidateLeader: awaiting_leader -> awaiting_admin, chỉ leader/backup của chapter
// (đã được middleware xác thực) và chỉ khi đang chờ leader.
func ValidateLeader(db *gorm.DB, meetingID uint, leaderID uint, notes string, now time.Time) (*models.Meeting, error) {
	upd := db.Model(&models.Meeting{}).
		Where("id = ? AND validation_status = ?", meetingID, ValidationAwaitingLeader).
		Updates(map[string]interface{}{
			"validation_status":       ValidationAwaitingAdmin,
			"leader_validated_at":     now,
			"leader_validated_by":     leaderID,
			"leader_validation_notes": notes,
		})
	if upd.Error != nil {
		return nil, upd.Error
	}
	if upd.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	var m models.Meeting
	if err := db.First(&m, meetingID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ValidateAdmin: awaiting_admin -> approved | rejected. Đây là transition duy nhất
// đưa validation_status về trạng thái cuối.
func ValidateAdmin(db *gorm.DB, meetingID uint, adminID uint, approve bool, notes string, now time.Time) (*models.Meeting, error) {
	next := ValidationApproved
	if !approve {
		next = ValidationRejected
	}
	upd := db.Model(&models.Meeting{}).
		Where("id = ? AND validation_status = ?", meetingID, ValidationAwaitingAdmin).
		Updates(map[string]interface{}{
			"validation_status":      next,
			"admin_validated_at":     now,
			"admin_validated_by":     adminID,
			"admin_validation_notes": notes,
		})
	if upd.Error != nil {
		return nil, upd.Error
	}
	if upd.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	var m models.Meeting
	if err := db.First(&m, meetingID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Reschedule đổi ngày giờ và xóa mọi attendance chưa check-in: RSVP cũ bị hủy,
// thành viên phải RSVP lại. Thao tác phá hủy, không đảo ngược được.
func Reschedule(db *gorm.DB, meetingID uint, newDate, newTime string) (*models.Meeting, error) {
	var m models.Meeting
	if err := db.First(&m, meetingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.Status != StatusScheduled {
		return nil, ErrInvalidTransition
	}
	if !utils.ValidDate(newDate) || !utils.ValidTimeOfDay(newTime) {
		return nil, fmt.Errorf("%w: ngày giờ mới không hợp lệ", ErrPreconditionFailed)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		upd := tx.Model(&models.Meeting{}).
			Where("id = ? AND status = ?", meetingID, StatusScheduled).
			Updates(map[string]interface{}{
				"scheduled_date": newDate,
				"scheduled_time": newTime,
			})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return tx.Where("meeting_id = ? AND checked_in_at IS NULL", meetingID).
			Delete(&models.Attendance{}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := db.First(&m, meetingID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// BlobRemover xóa blob ngoài (supabase) theo object key; tests truyền stub.
type BlobRemover func(objectKeys []string) error

// Delete xóa meeting kèm toàn bộ dữ liệu con, all-or-nothing, theo thứ tự:
// curriculum responses -> feedback -> lightning -> recordings (kể cả blob) ->
// time logs -> pending tasks -> attendance -> meeting. Lỗi ở bước nào thì
// rollback toàn bộ, không để lại tham chiếu mồ côi.
func Delete(db *gorm.DB, meetingID uint, now time.Time, removeBlobs BlobRemover) error {
	var m models.Meeting
	if err := db.First(&m, meetingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}

	// Meeting đã completed là bất biến, không bao giờ xóa.
	if m.Status == StatusCompleted || m.CompletedAt != nil {
		return ErrInvalidTransition
	}

	// Meeting scheduled chỉ xóa được khi còn cách giờ họp hơn cửa sổ bảo vệ.
	if m.Status == StatusScheduled {
		scheduledAt, err := ScheduledAt(&m)
		if err != nil {
			return fmt.Errorf("ngày giờ meeting không hợp lệ: %w", err)
		}
		if scheduledAt.Sub(now) <= utils.DeleteProtectWindow() {
			return fmt.Errorf("%w: đã quá hạn xóa meeting", ErrPreconditionFailed)
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.CurriculumResponse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.Feedback{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.LightningUpdate{}).Error; err != nil {
			return err
		}

		var keys []string
		if err := tx.Model(&models.Recording{}).
			Where("meeting_id = ?", meetingID).
			Pluck("object_key", &keys).Error; err != nil {
			return err
		}
		if removeBlobs != nil {
			if err := removeBlobs(keys); err != nil {
				return fmt.Errorf("%w: xóa recording thất bại: %v", ErrDependencyFailure, err)
			}
		}
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.Recording{}).Error; err != nil {
			return err
		}

		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.SectionTimeLog{}).Error; err != nil {
			return err
		}

		var attIDs []uint
		if err := tx.Model(&models.Attendance{}).
			Where("meeting_id = ?", meetingID).
			Pluck("id", &attIDs).Error; err != nil {
			return err
		}
		q := tx.Where("related_type = ? AND related_id = ?", "meeting", meetingID)
		if len(attIDs) > 0 {
			q = q.Or("related_type = ? AND related_id IN ?", "attendance", attIDs)
		}
		if err := q.Delete(&models.PendingTask{}).Error; err != nil {
			return err
		}

		if err := tx.Where("meeting_id = ?", meetingID).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Meeting{}, meetingID).Error
	})
}
