package models

import "time"

// CurriculumModule chỉ là bảng tham chiếu; nội dung bài học do hệ thống khác quản lý.
type CurriculumModule struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Summary   string    `gorm:"type:text" json:"summary"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CurriculumModule) TableName() string {
	return "curriculum_modules"
}
