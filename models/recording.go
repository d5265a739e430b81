package models

import "time"

// Recording: file ghi âm/ghi hình của buổi họp, blob nằm trên supabase storage.
type Recording struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID  uint      `gorm:"not null;index" json:"meeting_id"`
	UploadedBy uint      `gorm:"not null" json:"uploaded_by"`
	ObjectKey  string    `gorm:"size:255;not null" json:"object_key"`
	PublicURL  string    `gorm:"size:500" json:"public_url"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Recording) TableName() string {
	return "recordings"
}
