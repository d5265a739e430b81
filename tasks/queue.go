// Package tasks: hàng đợi việc-cần-làm dùng chung cho mọi workflow
// (nhắc RSVP, giao leader liên hệ thành viên, chọn curriculum...).
// Mọi nơi cần giao việc cho user đều đi qua đây thay vì tự chế inbox riêng.
package tasks

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/models"
)

// Ref: tham chiếu đa hình tới entity mà task gắn vào.
type Ref struct {
	Type string // meeting | attendance | chapter | ...
	ID   uint
}

func MeetingRef(id uint) Ref    { return Ref{Type: "meeting", ID: id} }
func AttendanceRef(id uint) Ref { return Ref{Type: "attendance", ID: id} }

// Create tạo task mới nếu chưa có task đang mở cùng bộ (type, assignee, related).
// Trùng thì no-op (không phải lỗi) — scheduler chạy lặp lại dựa vào điều này.
// Ngoài check đọc-trước-ghi, partial unique index idx_pending_tasks_open chặn
// nốt race giữa hai sweep chạy song song; insert dính duplicate cũng là no-op.
func Create(db *gorm.DB, taskType string, assignee uint, related Ref, metadata interface{}, dueAt *time.Time) (bool, error) {
	var count int64
	err := db.Model(&models.PendingTask{}).
		Where("task_type = ? AND assigned_to = ? AND related_type = ? AND related_id = ? AND completed_at IS NULL",
			taskType, assignee, related.Type, related.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	metaJSON := ""
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return false, err
		}
		metaJSON = string(b)
	}

	task := models.PendingTask{
		TaskType:     taskType,
		AssignedTo:   assignee,
		RelatedType:  related.Type,
		RelatedID:    related.ID,
		Urgency:      models.UrgencyNormal,
		DueAt:        dueAt,
		MetadataJSON: metaJSON,
	}
	if err := db.Create(&task).Error; err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Complete đóng task theo id; task đã đóng rồi thì no-op.
func Complete(db *gorm.DB, taskID uint, now time.Time) error {
	return db.Model(&models.PendingTask{}).
		Where("id = ? AND completed_at IS NULL", taskID).
		Update("completed_at", now).Error
}

// CompleteMatching đóng task đang mở khớp bộ (type, assignee, related), nếu có.
// Dùng cho side effect kiểu "submit RSVP thì task respond_to_rsvp tự đóng".
func CompleteMatching(db *gorm.DB, taskType string, assignee uint, related Ref, now time.Time) error {
	return db.Model(&models.PendingTask{}).
		Where("task_type = ? AND assigned_to = ? AND related_type = ? AND related_id = ? AND completed_at IS NULL",
			taskType, assignee, related.Type, related.ID).
		Update("completed_at", now).Error
}

// Escalate nâng urgency trên task đang mở khớp bộ; không có task thì thôi.
// Scheduler dùng để đẩy normal -> reminded -> escalated mà không tạo row mới.
func Escalate(db *gorm.DB, taskType string, assignee uint, related Ref, newUrgency string) error {
	return db.Model(&models.PendingTask{}).
		Where("task_type = ? AND assigned_to = ? AND related_type = ? AND related_id = ? AND completed_at IS NULL",
			taskType, assignee, related.Type, related.ID).
		Update("urgency", newUrgency).Error
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "sqlstate 23505")
}
