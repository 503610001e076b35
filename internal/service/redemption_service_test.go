package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/credential"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type redemptionTestEnv struct {
	svc      *RedemptionService
	purchase *PurchaseService
	db       *gorm.DB
	shop     *models.Shop
	member   *models.Member
	offer    *models.Offer
	employee *models.Employee
}

func setupRedemptionServiceTest(t *testing.T) *redemptionTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:redemption_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Shop{},
		&models.Member{},
		&models.Employee{},
		&models.Offer{},
		&models.Voucher{},
		&models.RedemptionLog{},
		&models.PointsTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	generator, err := credential.NewGenerator(credential.Options{
		Secret:    "redemption-test-secret",
		KeyID:     "t1",
		PinLength: 4,
	})
	if err != nil {
		t.Fatalf("new generator failed: %v", err)
	}

	voucherRepo := repository.NewVoucherRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	shopRepo := repository.NewShopRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	logRepo := repository.NewRedemptionLogRepository(db)

	svc := NewRedemptionService(voucherRepo, offerRepo, shopRepo, employeeRepo, logRepo, generator, nil)
	purchase := NewPurchaseService(
		nil,
		voucherRepo,
		offerRepo,
		shopRepo,
		repository.NewMemberRepository(db),
		repository.NewPointsRepository(db),
		generator,
	)

	shop := models.Shop{Name: "核销测试店", Slug: fmt.Sprintf("redeem-shop-%d", time.Now().UnixNano()), IsActive: true}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	member := models.Member{
		Email:  fmt.Sprintf("redeem_%d@example.com", time.Now().UnixNano()),
		Status: constants.MemberStatusActive,
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("create member failed: %v", err)
	}
	offer := models.Offer{
		ShopID:      shop.ID,
		Title:       "核销测试券",
		PricePoints: 600,
		IsActive:    true,
	}
	if err := db.Create(&offer).Error; err != nil {
		t.Fatalf("create offer failed: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("246810"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin failed: %v", err)
	}
	employee := models.Employee{
		ShopID:    shop.ID,
		Name:      "核销员",
		PinHash:   string(hash),
		CanRedeem: true,
		IsActive:  true,
	}
	if err := db.Create(&employee).Error; err != nil {
		t.Fatalf("create employee failed: %v", err)
	}

	return &redemptionTestEnv{
		svc:      svc,
		purchase: purchase,
		db:       db,
		shop:     &shop,
		member:   &member,
		offer:    &offer,
		employee: &employee,
	}
}

func (env *redemptionTestEnv) issueVoucher(t *testing.T) *models.Voucher {
	t.Helper()
	voucher, err := env.purchase.ConfirmPayment(PaymentConfirmationInput{
		ExternalPaymentRef: fmt.Sprintf("redeem-pay-%d", time.Now().UnixNano()),
		MemberID:           env.member.ID,
		OfferID:            env.offer.ID,
		AmountPaid:         models.NewMoneyFromDecimal(decimal.RequireFromString("29.90")),
	})
	if err != nil {
		t.Fatalf("issue voucher failed: %v", err)
	}
	return voucher
}

func TestRedemptionServiceRedeemByPin(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	voucher := env.issueVoucher(t)

	outcome, err := env.svc.Redeem(RedeemInput{
		Identifier: voucher.PinCode,
		Method:     constants.RedemptionMethodPin,
		Employee:   env.employee,
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if outcome.Voucher == nil || outcome.Voucher.Status != constants.VoucherStatusRedeemed {
		t.Fatalf("unexpected outcome voucher: %+v", outcome.Voucher)
	}

	var after models.Voucher
	if err := env.db.First(&after, voucher.ID).Error; err != nil {
		t.Fatalf("query voucher failed: %v", err)
	}
	if after.Status != constants.VoucherStatusRedeemed || after.RedeemedAt == nil {
		t.Fatalf("voucher should be redeemed: %+v", after)
	}
	if after.RedeemedByEmployeeID == nil || *after.RedeemedByEmployeeID != env.employee.ID {
		t.Fatalf("unexpected redeeming employee: %+v", after.RedeemedByEmployeeID)
	}

	var offerAfter models.Offer
	if err := env.db.First(&offerAfter, env.offer.ID).Error; err != nil {
		t.Fatalf("query offer failed: %v", err)
	}
	if offerAfter.RedeemedCount != 1 {
		t.Fatalf("expected offer redeemed count 1, got: %d", offerAfter.RedeemedCount)
	}
	var shopAfter models.Shop
	if err := env.db.First(&shopAfter, env.shop.ID).Error; err != nil {
		t.Fatalf("query shop failed: %v", err)
	}
	if shopAfter.RedeemedCount != 1 {
		t.Fatalf("expected shop redeemed count 1, got: %d", shopAfter.RedeemedCount)
	}
	if shopAfter.BalancePoints != voucher.PricePaid {
		t.Fatalf("expected shop balance %d, got: %d", voucher.PricePaid, shopAfter.BalancePoints)
	}
	var employeeAfter models.Employee
	if err := env.db.First(&employeeAfter, env.employee.ID).Error; err != nil {
		t.Fatalf("query employee failed: %v", err)
	}
	if employeeAfter.TotalRedemptions != 1 {
		t.Fatalf("expected employee total redemptions 1, got: %d", employeeAfter.TotalRedemptions)
	}

	var logEntry models.RedemptionLog
	if err := env.db.Where("voucher_id = ? AND success = ?", voucher.ID, true).First(&logEntry).Error; err != nil {
		t.Fatalf("query success log failed: %v", err)
	}
	if logEntry.EmployeeID != env.employee.ID || logEntry.Method != constants.RedemptionMethodPin {
		t.Fatalf("unexpected success log: %+v", logEntry)
	}
}

func TestRedemptionServiceRedeemAlreadyRedeemed(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	voucher := env.issueVoucher(t)

	first, err := env.svc.Redeem(RedeemInput{
		Identifier: voucher.PinCode,
		Method:     constants.RedemptionMethodPin,
		Employee:   env.employee,
	})
	if err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}

	outcome, err := env.svc.Redeem(RedeemInput{
		Identifier: voucher.PinCode,
		Method:     constants.RedemptionMethodPin,
		Employee:   env.employee,
	})
	if !errors.Is(err, ErrVoucherRedeemed) {
		t.Fatalf("expected ErrVoucherRedeemed, got: %v", err)
	}
	if outcome.PriorRedeemedAt == nil {
		t.Fatal("prior redeemed time should be carried")
	}
	if outcome.PriorEmployeeID == nil || *outcome.PriorEmployeeID != env.employee.ID {
		t.Fatalf("unexpected prior employee: %+v", outcome.PriorEmployeeID)
	}

	// 重复核销零副作用
	var offerAfter models.Offer
	if err := env.db.First(&offerAfter, env.offer.ID).Error; err != nil {
		t.Fatalf("query offer failed: %v", err)
	}
	if offerAfter.RedeemedCount != 1 {
		t.Fatalf("redeemed count should stay 1, got: %d", offerAfter.RedeemedCount)
	}
	var after models.Voucher
	if err := env.db.First(&after, voucher.ID).Error; err != nil {
		t.Fatalf("query voucher failed: %v", err)
	}
	if first.Voucher.RedeemedAt == nil || after.RedeemedAt == nil || !after.RedeemedAt.Equal(*first.Voucher.RedeemedAt) {
		t.Fatalf("redeemed time should be unchanged: %+v", after.RedeemedAt)
	}

	var failLog models.RedemptionLog
	if err := env.db.Where("voucher_id = ? AND success = ?", voucher.ID, false).First(&failLog).Error; err != nil {
		t.Fatalf("query failure log failed: %v", err)
	}
	if failLog.FailureReason == nil || *failLog.FailureReason != constants.RedemptionFailReasonAlreadyRedeemed {
		t.Fatalf("unexpected failure reason: %+v", failLog.FailureReason)
	}
}

func TestRedemptionServiceRedeemByQR(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	voucher := env.issueVoucher(t)

	outcome, err := env.svc.Redeem(RedeemInput{
		Identifier: voucher.EncryptedPayload,
		Method:     constants.RedemptionMethodQR,
		Employee:   env.employee,
	})
	if err != nil {
		t.Fatalf("redeem by qr failed: %v", err)
	}
	if outcome.Voucher == nil || outcome.Voucher.ID != voucher.ID {
		t.Fatalf("unexpected outcome voucher: %+v", outcome.Voucher)
	}

	var logEntry models.RedemptionLog
	if err := env.db.Where("voucher_id = ? AND success = ?", voucher.ID, true).First(&logEntry).Error; err != nil {
		t.Fatalf("query success log failed: %v", err)
	}
	if logEntry.Method != constants.RedemptionMethodQR {
		t.Fatalf("unexpected log method: %s", logEntry.Method)
	}
}

func TestRedemptionServiceRedeemTamperedPayload(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	env.issueVoucher(t)

	_, err := env.svc.Redeem(RedeemInput{
		Identifier: "t1.not-a-valid-payload",
		Method:     constants.RedemptionMethodQR,
		Employee:   env.employee,
	})
	if !errors.Is(err, ErrPayloadMismatch) {
		t.Fatalf("expected ErrPayloadMismatch, got: %v", err)
	}
}

func TestRedemptionServiceRedeemWrongShop(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	voucher := env.issueVoucher(t)

	otherShop := models.Shop{Name: "别家门店", Slug: fmt.Sprintf("other-shop-%d", time.Now().UnixNano()), IsActive: true}
	if err := env.db.Create(&otherShop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	outsider := models.Employee{
		ShopID:    otherShop.ID,
		Name:      "外店员工",
		PinHash:   "hash",
		CanRedeem: true,
		IsActive:  true,
	}
	if err := env.db.Create(&outsider).Error; err != nil {
		t.Fatalf("create employee failed: %v", err)
	}

	_, err := env.svc.Redeem(RedeemInput{
		Identifier: voucher.PinCode,
		Method:     constants.RedemptionMethodPin,
		Employee:   &outsider,
	})
	if !errors.Is(err, ErrVoucherWrongShop) {
		t.Fatalf("expected ErrVoucherWrongShop, got: %v", err)
	}

	var after models.Voucher
	if err := env.db.First(&after, voucher.ID).Error; err != nil {
		t.Fatalf("query voucher failed: %v", err)
	}
	if after.Status != constants.VoucherStatusPurchased {
		t.Fatalf("voucher should stay purchased: %s", after.Status)
	}
}

func TestRedemptionServiceRedeemExpiredByTime(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	voucher := env.issueVoucher(t)

	// 清扫任务未跑到时按时刻判定过期
	past := time.Now().Add(-time.Hour)
	if err := env.db.Model(&models.Voucher{}).Where("id = ?", voucher.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("update expiry failed: %v", err)
	}

	_, err := env.svc.Redeem(RedeemInput{
		Identifier: voucher.PinCode,
		Method:     constants.RedemptionMethodPin,
		Employee:   env.employee,
	})
	if !errors.Is(err, ErrVoucherExpired) {
		t.Fatalf("expected ErrVoucherExpired, got: %v", err)
	}
}

func TestRedemptionServiceRedeemUnknownPin(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	env.issueVoucher(t)

	_, err := env.svc.Redeem(RedeemInput{
		Identifier: "0000000000",
		Method:     constants.RedemptionMethodPin,
		Employee:   env.employee,
	})
	if !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound, got: %v", err)
	}
}

func TestRedemptionServiceValidateReadOnly(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	voucher := env.issueVoucher(t)

	outcome, err := env.svc.Validate(RedeemInput{
		Identifier: voucher.PinCode,
		Method:     constants.RedemptionMethodPin,
		Employee:   env.employee,
	})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if outcome.Voucher == nil || outcome.Voucher.ID != voucher.ID {
		t.Fatalf("unexpected validate outcome: %+v", outcome)
	}

	// 试算不得改变状态或留下日志
	var after models.Voucher
	if err := env.db.First(&after, voucher.ID).Error; err != nil {
		t.Fatalf("query voucher failed: %v", err)
	}
	if after.Status != constants.VoucherStatusPurchased {
		t.Fatalf("voucher should stay purchased after validate: %s", after.Status)
	}
	var count int64
	if err := env.db.Model(&models.RedemptionLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count logs failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("validate should not write logs, got: %d", count)
	}
}
