package models

import "time"

const (
	TaskRespondToRSVP             = "respond_to_rsvp"
	TaskContactUnresponsiveMember = "contact_unresponsive_member"
	TaskSelectCurriculum          = "select_curriculum"
	TaskBecomeContributingMember  = "become_contributing_member"
)

const (
	UrgencyNormal    = "normal"
	UrgencyReminded  = "reminded"
	UrgencyEscalated = "escalated"
)

// PendingTask: đơn vị việc-cần-làm gán cho một user, dùng chung cho mọi workflow.
// Mỗi bộ (task_type, assigned_to, related_type, related_id) chỉ có tối đa một
// task đang mở — đây là khóa idempotency mà scheduler dựa vào (xem index
// idx_pending_tasks_open trong config.ConnectDB).
type PendingTask struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TaskType   string `gorm:"column:task_type;size:50;not null;index" json:"task_type"`
	AssignedTo uint   `gorm:"column:assigned_to;not null;index" json:"assigned_to"`

	RelatedType string `gorm:"column:related_type;size:30;not null" json:"related_type"` // meeting | attendance | chapter | ...
	RelatedID   uint   `gorm:"column:related_id;not null" json:"related_id"`

	Urgency      string     `gorm:"column:urgency;size:20;default:'normal'" json:"urgency"` // normal | reminded | escalated
	DueAt        *time.Time `gorm:"column:due_at" json:"due_at"`
	MetadataJSON string     `gorm:"column:metadata_json;type:text" json:"-"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PendingTask) TableName() string {
	return "pending_tasks"
}
