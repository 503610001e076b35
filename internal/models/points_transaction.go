package models

import (
	"time"
)

// PointsTransaction 积分流水表
// 追加型账本：会员可用余额为流水的实时求和，无物化余额字段
type PointsTransaction struct {
	ID        uint      `gorm:"primarykey" json:"id"`                        // 主键
	MemberID  uint      `gorm:"index;not null" json:"member_id"`             // 会员ID
	Direction string    `gorm:"type:varchar(8);not null" json:"direction"`   // 方向（in/out）
	Amount    int64     `gorm:"not null" json:"amount"`                      // 积分数（正值）
	Type      string    `gorm:"type:varchar(32);index;not null" json:"type"` // 流水类型
	Reference string    `gorm:"type:varchar(120);index" json:"reference"`    // 业务参考（如 voucher:123）
	Remark    string    `gorm:"type:varchar(200)" json:"remark,omitempty"`   // 备注
	CreatedAt time.Time `gorm:"index" json:"created_at"`                     // 记录时间
}

// TableName 指定表名
func (PointsTransaction) TableName() string {
	return "points_transactions"
}
