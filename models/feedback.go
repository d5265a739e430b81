package models

import "time"

// Feedback: artifact của phần closing — đánh giá buổi họp + bình chọn thành viên giá trị nhất.
type Feedback struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID             uint      `gorm:"not null;uniqueIndex:idx_feedback_meeting_user" json:"meeting_id"`
	UserID                uint      `gorm:"not null;uniqueIndex:idx_feedback_meeting_user" json:"user_id"`
	Rating                int       `gorm:"not null" json:"rating"` // 1..5
	MostValuableMemberID  *uint     `gorm:"" json:"most_valuable_member_id"`
	Comment               string    `gorm:"type:text" json:"comment"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}
