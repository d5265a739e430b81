package models

import "time"

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// NotificationLog: nhật ký gửi thông báo, chỉ append, không bao giờ update/xóa.
type NotificationLog struct {
	ID      uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID  uint   `gorm:"column:user_id;not null;index" json:"user_id"`
	Channel string `gorm:"column:channel;size:10;not null" json:"channel"` // email | sms
	Purpose string `gorm:"column:purpose;size:50;not null" json:"purpose"`
	Subject string `gorm:"column:subject;size:255" json:"subject"`
	Body    string `gorm:"column:body;type:text" json:"body"`
	Status  string `gorm:"column:status;size:20;not null" json:"status"` // sent | simulated | failed

	RelatedType string `gorm:"column:related_type;size:30" json:"related_type"`
	RelatedID   uint   `gorm:"column:related_id" json:"related_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}
