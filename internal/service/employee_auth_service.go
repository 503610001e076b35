package service

import (
	"context"
	"time"

	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EmployeeAuthService 员工核销认证服务
// 员工状态在 Open 与 Locked 之间流转：滑动窗口内失败达到阈值即锁定，
// 锁定信息记在触发锁定的那条失败记录上，到期自然解锁
type EmployeeAuthService struct {
	cfg          *config.Config
	employeeRepo repository.EmployeeRepository
	attemptRepo  repository.PinAttemptRepository
}

// NewEmployeeAuthService 创建员工核销认证服务
func NewEmployeeAuthService(cfg *config.Config, employeeRepo repository.EmployeeRepository, attemptRepo repository.PinAttemptRepository) *EmployeeAuthService {
	return &EmployeeAuthService{
		cfg:          cfg,
		employeeRepo: employeeRepo,
		attemptRepo:  attemptRepo,
	}
}

// PinVerifyResult 员工 PIN 校验结果
type PinVerifyResult struct {
	Result            string           // ok / fail / locked_out
	Employee          *models.Employee // 校验通过时返回
	AttemptsRemaining int              // 失败时距离锁定还剩几次
	LockedUntil       *time.Time       // 锁定时的解锁时间
}

// VerifyPin 校验员工核销 PIN
// 员工不存在/停用/无权限直接短路，不做任何哈希比较和失败记账；
// 计数与写入在同一事务内并锁员工行，并发的临界尝试被串行化
func (s *EmployeeAuthService) VerifyPin(employeeID uint, pin string) (*PinVerifyResult, error) {
	if s == nil || s.employeeRepo == nil || s.attemptRepo == nil {
		return nil, ErrEmployeeAuthFailed
	}
	if employeeID == 0 {
		return nil, ErrEmployeeNotFound
	}

	employee, err := s.employeeRepo.GetByID(employeeID)
	if err != nil {
		return nil, ErrEmployeeAuthFailed
	}
	if employee == nil {
		return nil, ErrEmployeeNotFound
	}
	if !employee.IsActive {
		return nil, ErrEmployeeInactive
	}
	if !employee.CanRedeem {
		return nil, ErrEmployeeUnauthorized
	}

	now := time.Now()

	// Redis 快照命中即拒绝，省一次数据库读；未命中仍以数据库记录为准
	if state, hit, _ := cache.GetEmployeeLockState(context.Background(), employeeID); hit && state != nil {
		lockUntil := time.Unix(state.LockUntil, 0)
		return &PinVerifyResult{
			Result:      constants.PinVerifyResultLockedOut,
			LockedUntil: &lockUntil,
		}, nil
	}

	// 生效中的锁定在哈希比较之前拒绝
	latest, err := s.attemptRepo.GetLatest(employeeID)
	if err != nil {
		return nil, ErrEmployeeAuthFailed
	}
	if latest != nil && latest.LockUntil != nil && latest.LockUntil.After(now) {
		return &PinVerifyResult{
			Result:      constants.PinVerifyResultLockedOut,
			LockedUntil: latest.LockUntil,
		}, nil
	}

	pinOK := bcrypt.CompareHashAndPassword([]byte(employee.PinHash), []byte(pin)) == nil

	result := &PinVerifyResult{}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		employeeRepo := s.employeeRepo.WithTx(tx)
		attemptRepo := s.attemptRepo.WithTx(tx)

		// 锁员工行，串行化并发尝试的计数与落库
		locked, err := employeeRepo.GetByIDForUpdate(employeeID)
		if err != nil || locked == nil {
			return ErrEmployeeAuthFailed
		}

		// 拿到行锁后重读最新记录：并发对手可能刚触发了锁定
		latest, err := attemptRepo.GetLatest(employeeID)
		if err != nil {
			return ErrEmployeeAuthFailed
		}
		if latest != nil && latest.LockUntil != nil && latest.LockUntil.After(now) {
			result.Result = constants.PinVerifyResultLockedOut
			result.LockedUntil = latest.LockUntil
			return nil
		}

		attempt := &models.PinAttempt{
			EmployeeID: employeeID,
			Success:    pinOK,
			CreatedAt:  now,
		}

		if pinOK {
			if err := attemptRepo.Create(attempt); err != nil {
				return ErrEmployeeAuthFailed
			}
			result.Result = constants.PinVerifyResultOK
			result.Employee = employee
			return nil
		}

		window := s.lockoutWindow()
		failures, err := attemptRepo.CountRecentFailures(employeeID, now.Add(-window))
		if err != nil {
			return ErrEmployeeAuthFailed
		}

		maxFailures := s.lockoutMaxFailures()
		if failures+1 >= int64(maxFailures) {
			lockUntil := now.Add(s.lockoutDuration())
			attempt.LockUntil = &lockUntil
			if err := attemptRepo.Create(attempt); err != nil {
				return ErrEmployeeAuthFailed
			}
			result.Result = constants.PinVerifyResultLockedOut
			result.LockedUntil = &lockUntil
			return nil
		}

		if err := attemptRepo.Create(attempt); err != nil {
			return ErrEmployeeAuthFailed
		}
		result.Result = constants.PinVerifyResultFail
		result.AttemptsRemaining = maxFailures - int(failures) - 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch result.Result {
	case constants.PinVerifyResultLockedOut:
		if result.LockedUntil != nil {
			// 缓存仅作加速快照，数据库始终是锁定状态的权威来源
			_ = cache.SetEmployeeLockState(context.Background(), employeeID, *result.LockedUntil)
		}
	case constants.PinVerifyResultOK:
		_ = cache.DelEmployeeLockState(context.Background(), employeeID)
	}
	return result, nil
}

func (s *EmployeeAuthService) lockoutWindow() time.Duration {
	minutes := 15
	if s.cfg != nil && s.cfg.Security.EmployeeLockout.WindowMinutes > 0 {
		minutes = s.cfg.Security.EmployeeLockout.WindowMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (s *EmployeeAuthService) lockoutMaxFailures() int {
	if s.cfg != nil && s.cfg.Security.EmployeeLockout.MaxFailures > 0 {
		return s.cfg.Security.EmployeeLockout.MaxFailures
	}
	return 3
}

func (s *EmployeeAuthService) lockoutDuration() time.Duration {
	minutes := 15
	if s.cfg != nil && s.cfg.Security.EmployeeLockout.LockMinutes > 0 {
		minutes = s.cfg.Security.EmployeeLockout.LockMinutes
	}
	return time.Duration(minutes) * time.Minute
}
