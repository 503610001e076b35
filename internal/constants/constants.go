package constants

// 卡券状态常量
const (
	VoucherStatusPurchased = "purchased"
	VoucherStatusRedeemed  = "redeemed"
	VoucherStatusExpired   = "expired"
)

// 卡券结算方式常量
const (
	VoucherSettlementPayment = "payment"
	VoucherSettlementPoints  = "points"
)

// 核销方式常量
const (
	RedemptionMethodPin = "pin"
	RedemptionMethodQR  = "qr"
)

// 核销失败原因常量
const (
	RedemptionFailReasonNotFound        = "voucher_not_found"
	RedemptionFailReasonWrongShop       = "wrong_shop"
	RedemptionFailReasonAlreadyRedeemed = "already_redeemed"
	RedemptionFailReasonExpired         = "expired"
	RedemptionFailReasonNotRedeemable   = "not_redeemable"
	RedemptionFailReasonPayloadMismatch = "payload_mismatch"
	RedemptionFailReasonInternalError   = "internal_error"
)

// 员工 PIN 校验结果常量
const (
	PinVerifyResultOK        = "ok"
	PinVerifyResultFail      = "fail"
	PinVerifyResultLockedOut = "locked_out"
)

// 积分流水方向常量
const (
	PointsTxnDirectionIn  = "in"
	PointsTxnDirectionOut = "out"
)

// 积分流水类型常量
const (
	PointsTxnTypeEarn            = "earn"
	PointsTxnTypeVoucherPurchase = "voucher_purchase"
	PointsTxnTypeAdminAdjust     = "admin_adjust"
)

// 会员状态常量
const (
	MemberStatusActive   = "active"
	MemberStatusDisabled = "disabled"
)

// 加密载荷用途常量
const (
	CredentialPurposeVoucher = "voucher_redeem"
	CredentialKeyIDDefault   = "k1"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskRedemptionNotify   = "redemption:notify"
	TaskVoucherExpireSweep = "voucher:expire_sweep"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "ly"
)
