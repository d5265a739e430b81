package models

import "time"

const (
	RoleMember       = "member"
	RoleLeader       = "leader"
	RoleBackupLeader = "backup_leader"
)

type ChapterMember struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChapterID uint      `gorm:"not null;uniqueIndex:idx_chapter_member" json:"chapter_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_chapter_member" json:"user_id"`
	Role      string    `gorm:"size:20;default:'member'" json:"role"` // member | leader | backup_leader
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (ChapterMember) TableName() string {
	return "chapter_members"
}
