package models

import "time"

const (
	RSVPNoResponse = "no_response"
	RSVPYes        = "yes"
	RSVPNo         = "no"
)

const (
	AttendanceInPerson = "in_person"
	AttendanceVideo    = "video"
	AttendanceAbsent   = "absent"
)

// Attendance: quan hệ 1 thành viên - 1 buổi họp, tạo lười (upsert) khi RSVP
// hoặc khi scheduler cần theo dõi người chưa phản hồi.
type Attendance struct {
	ID        uint `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MeetingID uint `gorm:"column:meeting_id;not null;uniqueIndex:idx_attendance_meeting_user" json:"meeting_id"`
	UserID    uint `gorm:"column:user_id;not null;uniqueIndex:idx_attendance_meeting_user" json:"user_id"`

	RSVPStatus string     `gorm:"column:rsvp_status;size:20;default:'no_response'" json:"rsvp_status"` // no_response | yes | no
	RSVPReason *string    `gorm:"column:rsvp_reason;type:text" json:"rsvp_reason"`                     // bắt buộc khi rsvp_status = no
	RSVPAt     *time.Time `gorm:"column:rsvp_at" json:"rsvp_at"`

	CheckedInAt    *time.Time `gorm:"column:checked_in_at" json:"checked_in_at"`
	AttendanceType *string    `gorm:"column:attendance_type;size:20" json:"attendance_type"` // in_person | video | absent
	IsLate         bool       `gorm:"column:is_late;default:false" json:"is_late"`

	// reminder_sent_at ghi tối đa một lần; outreach luôn xảy ra sau reminder.
	ReminderSentAt         *time.Time `gorm:"column:reminder_sent_at" json:"reminder_sent_at"`
	LeaderOutreachLoggedAt *time.Time `gorm:"column:leader_outreach_logged_at" json:"leader_outreach_logged_at"`
	LeaderOutreachNotes    *string    `gorm:"column:leader_outreach_notes;type:text" json:"leader_outreach_notes"`
	LeaderOutreachBy       *uint      `gorm:"column:leader_outreach_by" json:"leader_outreach_by"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Attendance) TableName() string {
	return "attendances"
}
