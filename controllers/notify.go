package controllers

import (
	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/scheduler"
)

// Controller dùng chung notifier với scheduler; hiện tại mọi thông báo đều
// giả lập qua notification_logs.
type notificationMsg = scheduler.Notification

func newNotifier() scheduler.Notifier {
	return &scheduler.LogNotifier{DB: config.DB}
}
