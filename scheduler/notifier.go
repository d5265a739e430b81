package scheduler

import (
	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/models"
)

// Notification: một lần gửi tin tới một user qua một kênh.
type Notification struct {
	UserID      uint
	Channel     string // email | sms
	Purpose     string // rsvp_reminder | leader_contact_request | meeting_rescheduled | ...
	Subject     string
	Body        string
	RelatedType string
	RelatedID   uint
}

// Notifier nhận tin và ghi lại lần gửi. Bản mặc định chỉ giả lập (ghi log DB);
// khi nối SMTP/SMS thật chỉ cần thay implementation, engine không đổi.
type Notifier interface {
	Send(n Notification) error
}

// LogNotifier ghi mỗi lần gửi vào notification_logs với status "simulated".
type LogNotifier struct {
	DB *gorm.DB
}

func (l *LogNotifier) Send(n Notification) error {
	return l.DB.Create(&models.NotificationLog{
		UserID:      n.UserID,
		Channel:     n.Channel,
		Purpose:     n.Purpose,
		Subject:     n.Subject,
		Body:        n.Body,
		Status:      "simulated",
		RelatedType: n.RelatedType,
		RelatedID:   n.RelatedID,
	}).Error
}
