package models

import (
	"time"
)

// Voucher 已售卡券表
// 卡券永不删除：过期是状态流转而非删除；每张卡至多被核销一次。
// PinCode 永久留档；ActivePin 在未过期卡券上持有同值，
// 过期后置空以释放 PIN 占用，唯一索引只约束未过期卡券。
type Voucher struct {
	ID                   uint       `gorm:"primarykey" json:"id"`                                              // 主键
	MemberID             uint       `gorm:"index;not null" json:"member_id"`                                   // 持有会员ID
	OfferID              uint       `gorm:"index;not null" json:"offer_id"`                                    // 兑换项目ID
	Status               string     `gorm:"type:varchar(24);index;not null;default:'purchased'" json:"status"` // 状态
	Settlement           string     `gorm:"type:varchar(24);not null" json:"settlement"`                       // 结算方式（payment/points）
	PricePaid            int64      `gorm:"not null" json:"price_paid"`                                        // 实付积分
	AmountPaid           *Money     `gorm:"type:decimal(20,2)" json:"amount_paid,omitempty"`                   // 实付货币金额（支付结算时）
	PinCode              string     `gorm:"type:varchar(12);index;not null" json:"-"`                          // 核销 PIN（留档）
	ActivePin            *string    `gorm:"type:varchar(12);uniqueIndex" json:"-"`                             // 激活态 PIN 唯一占位
	EncryptedPayload     string     `gorm:"type:text;not null" json:"encrypted_payload"`                       // 可扫码加密载荷
	ExternalPaymentRef   *string    `gorm:"type:varchar(120);uniqueIndex" json:"external_payment_ref"`         // 外部支付参考号
	PurchasedAt          time.Time  `gorm:"index;not null" json:"purchased_at"`                                // 购买时间
	ExpiresAt            time.Time  `gorm:"index;not null" json:"expires_at"`                                  // 过期时间
	RedeemedAt           *time.Time `gorm:"index" json:"redeemed_at"`                                          // 核销时间
	RedeemedByEmployeeID *uint      `gorm:"index" json:"redeemed_by_employee_id"`                              // 核销员工ID
	CreatedAt            time.Time  `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt            time.Time  `gorm:"index" json:"updated_at"`                                           // 更新时间

	Offer  *Offer  `gorm:"foreignKey:OfferID" json:"offer,omitempty"`   // 兑换项目
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"` // 持有会员
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}
