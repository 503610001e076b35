package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupEmployeeAuthServiceTest(t *testing.T) (*EmployeeAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:employee_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Shop{},
		&models.Employee{},
		&models.PinAttempt{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewEmployeeAuthService(nil, repository.NewEmployeeRepository(db), repository.NewPinAttemptRepository(db))
	return svc, db
}

func seedAuthEmployee(t *testing.T, db *gorm.DB, pin string, canRedeem, active bool) *models.Employee {
	t.Helper()
	shop := models.Shop{Name: "认证测试店", Slug: fmt.Sprintf("auth-shop-%d", time.Now().UnixNano()), IsActive: true}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin failed: %v", err)
	}
	employee := models.Employee{
		ShopID:    shop.ID,
		Name:      "测试员工",
		PinHash:   string(hash),
		CanRedeem: canRedeem,
		IsActive:  active,
	}
	if err := db.Create(&employee).Error; err != nil {
		t.Fatalf("create employee failed: %v", err)
	}
	// is_active 默认 true，Create 会跳过零值字段，需显式更新
	if !active {
		if err := db.Model(&employee).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate employee failed: %v", err)
		}
	}
	return &employee
}

func TestEmployeeAuthServiceVerifyPinSuccess(t *testing.T) {
	svc, db := setupEmployeeAuthServiceTest(t)
	employee := seedAuthEmployee(t, db, "135790", true, true)

	result, err := svc.VerifyPin(employee.ID, "135790")
	if err != nil {
		t.Fatalf("verify pin failed: %v", err)
	}
	if result.Result != constants.PinVerifyResultOK {
		t.Fatalf("expected ok result, got: %s", result.Result)
	}
	if result.Employee == nil || result.Employee.ID != employee.ID {
		t.Fatalf("expected employee in result: %+v", result)
	}

	var attempt models.PinAttempt
	if err := db.Where("employee_id = ?", employee.ID).First(&attempt).Error; err != nil {
		t.Fatalf("query attempt failed: %v", err)
	}
	if !attempt.Success {
		t.Fatalf("success attempt should be recorded: %+v", attempt)
	}
}

func TestEmployeeAuthServiceVerifyPinLockout(t *testing.T) {
	svc, db := setupEmployeeAuthServiceTest(t)
	employee := seedAuthEmployee(t, db, "135790", true, true)

	// 前两次失败仅递减剩余次数
	for i := 0; i < 2; i++ {
		result, err := svc.VerifyPin(employee.ID, "000000")
		if err != nil {
			t.Fatalf("verify pin failed: %v", err)
		}
		if result.Result != constants.PinVerifyResultFail {
			t.Fatalf("attempt %d: expected fail result, got: %s", i+1, result.Result)
		}
		if result.AttemptsRemaining != 3-(i+1) {
			t.Fatalf("attempt %d: unexpected attempts remaining: %d", i+1, result.AttemptsRemaining)
		}
	}

	// 第三次失败触发锁定
	result, err := svc.VerifyPin(employee.ID, "000000")
	if err != nil {
		t.Fatalf("verify pin failed: %v", err)
	}
	if result.Result != constants.PinVerifyResultLockedOut {
		t.Fatalf("expected locked_out result, got: %s", result.Result)
	}
	if result.LockedUntil == nil || !result.LockedUntil.After(time.Now()) {
		t.Fatalf("expected future lock time: %+v", result.LockedUntil)
	}

	// 锁定期间正确 PIN 也被拒绝
	result, err = svc.VerifyPin(employee.ID, "135790")
	if err != nil {
		t.Fatalf("verify pin failed: %v", err)
	}
	if result.Result != constants.PinVerifyResultLockedOut {
		t.Fatalf("expected locked_out during lock window, got: %s", result.Result)
	}
	if result.Employee != nil {
		t.Fatal("locked result should not carry employee")
	}
}

func TestEmployeeAuthServiceVerifyPinLockExpired(t *testing.T) {
	svc, db := setupEmployeeAuthServiceTest(t)
	employee := seedAuthEmployee(t, db, "135790", true, true)

	// 过期的锁定记录不再生效
	past := time.Now().Add(-time.Minute)
	attempt := models.PinAttempt{
		EmployeeID: employee.ID,
		Success:    false,
		LockUntil:  &past,
		CreatedAt:  time.Now().Add(-20 * time.Minute),
	}
	if err := db.Create(&attempt).Error; err != nil {
		t.Fatalf("create attempt failed: %v", err)
	}

	result, err := svc.VerifyPin(employee.ID, "135790")
	if err != nil {
		t.Fatalf("verify pin failed: %v", err)
	}
	if result.Result != constants.PinVerifyResultOK {
		t.Fatalf("expected ok after lock expiry, got: %s", result.Result)
	}
}

func TestEmployeeAuthServiceVerifyPinShortCircuits(t *testing.T) {
	svc, db := setupEmployeeAuthServiceTest(t)

	_, err := svc.VerifyPin(9999, "135790")
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got: %v", err)
	}

	inactive := seedAuthEmployee(t, db, "135790", true, false)
	_, err = svc.VerifyPin(inactive.ID, "135790")
	if !errors.Is(err, ErrEmployeeInactive) {
		t.Fatalf("expected ErrEmployeeInactive, got: %v", err)
	}

	noRedeem := seedAuthEmployee(t, db, "135790", false, true)
	_, err = svc.VerifyPin(noRedeem.ID, "135790")
	if !errors.Is(err, ErrEmployeeUnauthorized) {
		t.Fatalf("expected ErrEmployeeUnauthorized, got: %v", err)
	}

	// 短路路径不产生失败记账
	var count int64
	if err := db.Model(&models.PinAttempt{}).Count(&count).Error; err != nil {
		t.Fatalf("count attempts failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("short circuits should not record attempts, got: %d", count)
	}
}
