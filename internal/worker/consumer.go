package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/provider"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskRedemptionNotify, c.handleRedemptionNotify)
	mux.HandleFunc(queue.TaskVoucherExpireSweep, c.handleVoucherExpireSweep)
}

// handleRedemptionNotify 核销回执通知
// 回执渠道（邮件/推送）尚未接入，当前落一条结构化日志作为回执出口
func (c *Consumer) handleRedemptionNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_redemption_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RedemptionNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_redemption_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.VoucherID == 0 {
		logger.Debugw("worker_redemption_notify_skip_invalid_payload", "voucher_id", payload.VoucherID)
		return nil
	}
	voucher, err := c.VoucherService.GetVoucher(payload.VoucherID)
	if err != nil {
		if errors.Is(err, service.ErrVoucherNotFound) {
			logger.Debugw("worker_redemption_notify_skip_voucher_not_found", "voucher_id", payload.VoucherID)
			return nil
		}
		logger.Warnw("worker_redemption_notify_fetch_failed", "voucher_id", payload.VoucherID, "error", err)
		return err
	}
	offerTitle := ""
	if voucher.Offer != nil {
		offerTitle = voucher.Offer.Title
	}
	logger.Infow("redemption_receipt",
		"voucher_id", voucher.ID,
		"member_id", voucher.MemberID,
		"offer_title", offerTitle,
		"redeemed_at", voucher.RedeemedAt,
	)
	return nil
}

// handleVoucherExpireSweep 卡券过期清扫
func (c *Consumer) handleVoucherExpireSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_voucher_expire_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.VoucherExpireSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_voucher_expire_sweep_unmarshal_failed", "error", err)
		return err
	}
	if c.VoucherService == nil {
		logger.Warnw("worker_voucher_expire_sweep_skip_service_nil")
		return nil
	}
	if _, err := c.VoucherService.ExpireOverdue(time.Now()); err != nil {
		logger.Warnw("worker_voucher_expire_sweep_failed", "error", err)
		return err
	}
	return nil
}
