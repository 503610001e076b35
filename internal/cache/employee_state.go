package cache

import (
	"context"
	"fmt"
	"time"
)

// EmployeeLockState 员工锁定快照
// 仅作加速读取的快照，锁定的权威判定始终走数据库的尝试记录
type EmployeeLockState struct {
	EmployeeID uint  `json:"employee_id"`
	LockUntil  int64 `json:"lock_until"` // Unix 秒
	UpdatedAt  int64 `json:"updated_at"`
}

func employeeLockKey(employeeID uint) string {
	return fmt.Sprintf("lock:employee:%d", employeeID)
}

// SetEmployeeLockState 写入员工锁定快照，TTL 对齐解锁时刻
func SetEmployeeLockState(ctx context.Context, employeeID uint, lockUntil time.Time) error {
	if employeeID == 0 {
		return nil
	}
	ttl := time.Until(lockUntil)
	if ttl <= 0 {
		return nil
	}
	state := &EmployeeLockState{
		EmployeeID: employeeID,
		LockUntil:  lockUntil.Unix(),
		UpdatedAt:  time.Now().Unix(),
	}
	return SetJSON(ctx, employeeLockKey(employeeID), state, ttl)
}

// GetEmployeeLockState 获取员工锁定快照
func GetEmployeeLockState(ctx context.Context, employeeID uint) (*EmployeeLockState, bool, error) {
	if employeeID == 0 {
		return nil, false, nil
	}
	var state EmployeeLockState
	hit, err := GetJSON(ctx, employeeLockKey(employeeID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	if state.LockUntil <= time.Now().Unix() {
		return nil, false, nil
	}
	return &state, true, nil
}

// DelEmployeeLockState 删除员工锁定快照
func DelEmployeeLockState(ctx context.Context, employeeID uint) error {
	if employeeID == 0 {
		return nil
	}
	return Del(ctx, employeeLockKey(employeeID))
}
