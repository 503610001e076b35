package models

import (
	"time"

	"gorm.io/gorm"
)

// Offer 门店兑换项目表
type Offer struct {
	ID            uint           `gorm:"primarykey" json:"id"`                         // 主键
	ShopID        uint           `gorm:"index;not null" json:"shop_id"`                // 所属门店ID
	Title         string         `gorm:"type:varchar(160);not null" json:"title"`      // 标题
	Description   string         `gorm:"type:text" json:"description,omitempty"`       // 描述
	PricePoints   int64          `gorm:"not null" json:"price_points"`                 // 积分售价
	OriginalPrice *Money         `gorm:"type:decimal(20,2)" json:"original_price"`     // 原价（货币，可选）
	Quota         *int64         `json:"quota,omitempty"`                              // 限量额度（空为不限量）
	SoldCount     int64          `gorm:"not null;default:0" json:"sold_count"`         // 已售数量
	RedeemedCount int64          `gorm:"not null;default:0" json:"redeemed_count"`     // 已核销数量
	ValidFrom     *time.Time     `gorm:"index" json:"valid_from"`                      // 上架开始时间
	ValidUntil    *time.Time     `gorm:"index" json:"valid_until"`                     // 上架结束时间
	IsActive      bool           `gorm:"index;not null;default:true" json:"is_active"` // 是否上架
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                      // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间

	Shop *Shop `gorm:"foreignKey:ShopID" json:"shop,omitempty"` // 门店信息
}

// TableName 指定表名
func (Offer) TableName() string {
	return "offers"
}
