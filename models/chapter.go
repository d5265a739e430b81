package models

import "time"

type Chapter struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:100;not null" json:"name"`
	City      string    `gorm:"column:city;size:100" json:"city"`
	Timezone  string    `gorm:"column:timezone;size:50;default:'Asia/Ho_Chi_Minh'" json:"timezone"`
	Status    string    `gorm:"column:status;size:20;default:'active'" json:"status"` // active | inactive
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Members  []ChapterMember `gorm:"foreignKey:ChapterID" json:"-"`
	Meetings []Meeting       `gorm:"foreignKey:ChapterID" json:"-"`
}

func (Chapter) TableName() string {
	return "chapters"
}
