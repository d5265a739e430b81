package models

import "time"

// SectionTimeLog: một khoảng thời gian được bấm giờ trong buổi họp,
// theo cả chapter (user_id null) hoặc theo từng thành viên.
type SectionTimeLog struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MeetingID uint   `gorm:"column:meeting_id;not null;index" json:"meeting_id"`
	Section   string `gorm:"column:section;size:20;not null" json:"section"`
	UserID    *uint  `gorm:"column:user_id" json:"user_id"`

	StartedAt time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at"`

	DurationSeconds int  `gorm:"column:duration_seconds;default:0" json:"duration_seconds"`
	OvertimeSeconds int  `gorm:"column:overtime_seconds;default:0" json:"overtime_seconds"` // chỉ >0 khi vượt budget cấu hình
	Skipped         bool `gorm:"column:skipped;default:false" json:"skipped"`
}

func (SectionTimeLog) TableName() string {
	return "section_time_logs"
}
