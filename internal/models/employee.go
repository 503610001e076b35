package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee 门店员工表
type Employee struct {
	ID               uint           `gorm:"primarykey" json:"id"`                           // 主键
	ShopID           uint           `gorm:"index;not null" json:"shop_id"`                  // 所属门店ID
	Name             string         `gorm:"type:varchar(120);not null" json:"name"`         // 姓名
	PinHash          string         `gorm:"type:varchar(200);not null" json:"-"`            // PIN 哈希（bcrypt）
	CanRedeem        bool           `gorm:"not null;default:false" json:"can_redeem"`       // 是否可核销
	CanCreateOffer   bool           `gorm:"not null;default:false" json:"can_create_offer"` // 是否可创建兑换项目
	IsManager        bool           `gorm:"not null;default:false" json:"is_manager"`       // 是否店长
	IsActive         bool           `gorm:"index;not null;default:true" json:"is_active"`   // 是否在职启用
	TotalRedemptions int64          `gorm:"not null;default:0" json:"total_redemptions"`    // 累计核销次数
	LastActiveAt     *time.Time     `gorm:"index" json:"last_active_at"`                    // 最近活跃时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间

	Shop *Shop `gorm:"foreignKey:ShopID" json:"shop,omitempty"` // 门店信息
}

// TableName 指定表名
func (Employee) TableName() string {
	return "employees"
}
