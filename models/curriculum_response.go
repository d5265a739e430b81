package models

import "time"

type CurriculumResponse struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID uint      `gorm:"not null;uniqueIndex:idx_curriculum_meeting_user" json:"meeting_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_curriculum_meeting_user" json:"user_id"`
	ModuleID  *uint     `gorm:"" json:"module_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CurriculumResponse) TableName() string {
	return "curriculum_responses"
}
