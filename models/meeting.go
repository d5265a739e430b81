package models

import "time"

type Meeting struct {
	ID        uint `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ChapterID uint `gorm:"column:chapter_id;not null;index" json:"chapter_id"`

	// Ngày và giờ lưu tách riêng (tránh lệch timezone khi migrate);
	// chỉ được ghép bằng utils.CombineDateTime, không tự cộng trừ từng field.
	ScheduledDate string `gorm:"column:scheduled_date;size:10;not null;index" json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string `gorm:"column:scheduled_time;size:5;not null" json:"scheduled_time"`        // HH:MM

	Location    string `gorm:"column:location;size:255" json:"location"`
	DurationMin int    `gorm:"column:duration_min;default:90" json:"duration_min"`

	Status         string `gorm:"column:status;size:20;default:'scheduled';index" json:"status"`               // scheduled | in_progress | completed | incomplete | never_started | timed_out
	CurrentSection string `gorm:"column:current_section;size:20;default:'not_started'" json:"current_section"` // not_started | checkin | lightning | curriculum | closing | completed

	ActualStartTime *time.Time `gorm:"column:actual_start_time" json:"actual_start_time"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at"`
	RSVPDeadline    *time.Time `gorm:"column:rsvp_deadline" json:"rsvp_deadline"`

	ValidationStatus      string     `gorm:"column:validation_status;size:20;default:'none'" json:"validation_status"` // none | awaiting_leader | awaiting_admin | approved | rejected
	LeaderValidatedAt     *time.Time `gorm:"column:leader_validated_at" json:"leader_validated_at"`
	LeaderValidatedBy     *uint      `gorm:"column:leader_validated_by" json:"leader_validated_by"`
	LeaderValidationNotes *string    `gorm:"column:leader_validation_notes;type:text" json:"leader_validation_notes"`
	AdminValidatedAt      *time.Time `gorm:"column:admin_validated_at" json:"admin_validated_at"`
	AdminValidatedBy      *uint      `gorm:"column:admin_validated_by" json:"admin_validated_by"`
	AdminValidationNotes  *string    `gorm:"column:admin_validation_notes;type:text" json:"admin_validation_notes"`

	ScribeID           *uint `gorm:"column:scribe_id" json:"scribe_id"`
	CurriculumModuleID *uint `gorm:"column:curriculum_module_id" json:"curriculum_module_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Chapter     Chapter      `gorm:"foreignKey:ChapterID" json:"-"`
	Attendances []Attendance `gorm:"foreignKey:MeetingID" json:"-"`
}

func (Meeting) TableName() string {
	return "meetings"
}
