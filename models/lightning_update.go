package models

import "time"

// LightningUpdate: phần chia sẻ nhanh (1 phút) của mỗi thành viên trong vòng lightning.
type LightningUpdate struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID uint      `gorm:"not null;uniqueIndex:idx_lightning_meeting_user" json:"meeting_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_lightning_meeting_user" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (LightningUpdate) TableName() string {
	return "lightning_updates"
}
