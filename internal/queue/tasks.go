package queue

import (
	"encoding/json"

	"github.com/loyalty-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskRedemptionNotify 核销回执通知任务
	TaskRedemptionNotify = constants.TaskRedemptionNotify
	// TaskVoucherExpireSweep 卡券过期清扫任务
	TaskVoucherExpireSweep = constants.TaskVoucherExpireSweep
)

// RedemptionNotifyPayload 核销回执通知任务载荷
type RedemptionNotifyPayload struct {
	VoucherID uint `json:"voucher_id"`
}

// VoucherExpireSweepPayload 卡券过期清扫任务载荷
type VoucherExpireSweepPayload struct {
	RequestedAt int64 `json:"requested_at"`
}

// NewRedemptionNotifyTask 创建核销回执通知任务
func NewRedemptionNotifyTask(payload RedemptionNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRedemptionNotify, body), nil
}

// NewVoucherExpireSweepTask 创建卡券过期清扫任务
func NewVoucherExpireSweepTask(payload VoucherExpireSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVoucherExpireSweep, body), nil
}
