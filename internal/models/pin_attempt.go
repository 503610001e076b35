package models

import (
	"time"
)

// PinAttempt 员工 PIN 校验记录表
// 只插入不更新：锁定判定基于时间窗内的失败记录扫描
type PinAttempt struct {
	ID         uint       `gorm:"primarykey" json:"id"`              // 主键
	EmployeeID uint       `gorm:"index;not null" json:"employee_id"` // 员工ID
	Success    bool       `gorm:"index;not null" json:"success"`     // 是否通过
	LockUntil  *time.Time `gorm:"index" json:"lock_until"`           // 触发锁定时的解锁时间
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`           // 记录时间
}

// TableName 指定表名
func (PinAttempt) TableName() string {
	return "pin_attempts"
}
