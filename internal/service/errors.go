package service

import "errors"

// 服务层业务错误定义，处理器通过 errors.Is 映射为 HTTP 响应码
var (
	// 通用
	ErrNotFound     = errors.New("记录不存在")
	ErrInvalidInput = errors.New("参数无效")

	// 兑换项目
	ErrOfferNotFound     = errors.New("兑换项目不存在")
	ErrOfferUnavailable  = errors.New("兑换项目不可购买")
	ErrOfferFetchFailed  = errors.New("获取兑换项目失败")
	ErrOfferCreateFailed = errors.New("创建兑换项目失败")
	ErrOfferUpdateFailed = errors.New("更新兑换项目失败")

	// 购买与发卡
	ErrMemberNotFound       = errors.New("会员不存在")
	ErrMemberDisabled       = errors.New("会员已禁用")
	ErrInsufficientBalance  = errors.New("积分余额不足")
	ErrPaymentRefRequired   = errors.New("缺少外部支付参考号")
	ErrPaymentAmountInvalid = errors.New("支付金额无效")
	ErrVoucherIssueFailed   = errors.New("卡券签发失败")
	ErrPointsFetchFailed    = errors.New("获取积分信息失败")

	// 员工认证
	ErrEmployeeNotFound     = errors.New("员工不存在")
	ErrEmployeeInactive     = errors.New("员工已停用")
	ErrEmployeeUnauthorized = errors.New("员工无核销权限")
	ErrEmployeePinIncorrect = errors.New("员工 PIN 错误")
	ErrEmployeeLockedOut    = errors.New("员工已被锁定")
	ErrEmployeeAuthFailed   = errors.New("员工认证失败")

	// 核销
	ErrVoucherNotFound      = errors.New("卡券不存在")
	ErrVoucherWrongShop     = errors.New("卡券不属于本门店")
	ErrVoucherRedeemed      = errors.New("卡券已被核销")
	ErrVoucherExpired       = errors.New("卡券已过期")
	ErrVoucherNotRedeemable = errors.New("卡券当前不可核销")
	ErrPayloadMismatch      = errors.New("凭证载荷与卡券不匹配")
	ErrRedeemFailed         = errors.New("核销失败")

	// 审计日志
	ErrAuditFetchFailed = errors.New("获取核销日志失败")
)
