package repository

import "time"

// OfferListFilter 查询兑换项目列表的过滤条件
type OfferListFilter struct {
	Page       int
	PageSize   int
	ShopID     uint
	Search     string
	OnlyActive bool
}

// VoucherListFilter 查询卡券列表的过滤条件
type VoucherListFilter struct {
	Page        int
	PageSize    int
	MemberID    uint
	OfferID     uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RedemptionLogListFilter 查询核销日志列表的过滤条件
type RedemptionLogListFilter struct {
	Page        int
	PageSize    int
	ShopID      uint
	EmployeeID  uint
	VoucherID   uint
	Success     *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
