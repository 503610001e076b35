package models

import (
	"time"

	"gorm.io/gorm"
)

// Member 会员表（卡券持有人）
type Member struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                           // 主键
	Email       string         `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`            // 邮箱
	DisplayName string         `gorm:"type:varchar(120)" json:"display_name,omitempty"`                // 昵称
	Status      string         `gorm:"type:varchar(24);index;not null;default:'active'" json:"status"` // 状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (Member) TableName() string {
	return "members"
}
