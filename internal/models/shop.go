package models

import (
	"time"

	"gorm.io/gorm"
)

// Shop 商家门店表
type Shop struct {
	ID            uint           `gorm:"primarykey" json:"id"`                               // 主键
	Name          string         `gorm:"type:varchar(120);not null" json:"name"`             // 门店名称
	Slug          string         `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"` // 门店标识
	IsActive      bool           `gorm:"index;not null;default:true" json:"is_active"`       // 是否启用
	SoldCount     int64          `gorm:"not null;default:0" json:"sold_count"`               // 累计售出卡券数
	RedeemedCount int64          `gorm:"not null;default:0" json:"redeemed_count"`           // 累计核销卡券数
	BalancePoints int64          `gorm:"not null;default:0" json:"balance_points"`           // 核销积分结算余额
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                            // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间
}

// TableName 指定表名
func (Shop) TableName() string {
	return "shops"
}
