package models

import (
	"time"
)

// RedemptionLog 核销审计日志表
// 追加型记录：每次核销尝试（无论成败）各写一行，无更新和删除路径
type RedemptionLog struct {
	ID            uint      `gorm:"primarykey" json:"id"`                    // 主键
	VoucherID     uint      `gorm:"index" json:"voucher_id"`                 // 卡券ID（未命中时为 0）
	OfferID       uint      `gorm:"index" json:"offer_id"`                   // 兑换项目ID
	MemberID      uint      `gorm:"index" json:"member_id"`                  // 持有会员ID
	EmployeeID    uint      `gorm:"index;not null" json:"employee_id"`       // 操作员工ID
	ShopID        uint      `gorm:"index" json:"shop_id"`                    // 门店ID
	Method        string    `gorm:"type:varchar(12);not null" json:"method"` // 核销方式（pin/qr）
	Success       bool      `gorm:"index;not null" json:"success"`           // 是否成功
	FailureReason *string   `gorm:"type:varchar(64)" json:"failure_reason"`  // 失败原因
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                 // 记录时间
}

// TableName 指定表名
func (RedemptionLog) TableName() string {
	return "redemption_logs"
}
