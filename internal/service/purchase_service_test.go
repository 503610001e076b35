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
	"gorm.io/gorm"
)

func setupPurchaseServiceTest(t *testing.T) (*PurchaseService, *PointsService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:purchase_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		&models.PointsTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	generator, err := credential.NewGenerator(credential.Options{
		Secret:    "purchase-test-secret",
		KeyID:     "t1",
		PinLength: 4,
	})
	if err != nil {
		t.Fatalf("new generator failed: %v", err)
	}
	memberRepo := repository.NewMemberRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	svc := NewPurchaseService(
		nil,
		repository.NewVoucherRepository(db),
		repository.NewOfferRepository(db),
		repository.NewShopRepository(db),
		memberRepo,
		pointsRepo,
		generator,
	)
	pointsSvc := NewPointsService(pointsRepo, memberRepo)
	return svc, pointsSvc, db
}

func seedPurchaseFixtures(t *testing.T, db *gorm.DB, pricePoints int64, quota *int64) (*models.Member, *models.Offer) {
	t.Helper()
	shop := models.Shop{Name: "测试门店", Slug: fmt.Sprintf("shop-%d", time.Now().UnixNano()), IsActive: true}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	member := models.Member{
		Email:  fmt.Sprintf("purchase_%d@example.com", time.Now().UnixNano()),
		Status: constants.MemberStatusActive,
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("create member failed: %v", err)
	}
	offer := models.Offer{
		ShopID:      shop.ID,
		Title:       "双人下午茶",
		PricePoints: pricePoints,
		Quota:       quota,
		IsActive:    true,
	}
	if err := db.Create(&offer).Error; err != nil {
		t.Fatalf("create offer failed: %v", err)
	}
	return &member, &offer
}

func TestPurchaseServiceConfirmPayment(t *testing.T) {
	svc, _, db := setupPurchaseServiceTest(t)
	member, offer := seedPurchaseFixtures(t, db, 800, nil)

	voucher, err := svc.ConfirmPayment(PaymentConfirmationInput{
		ExternalPaymentRef: "pay-ref-001",
		MemberID:           member.ID,
		OfferID:            offer.ID,
		AmountPaid:         models.NewMoneyFromDecimal(decimal.RequireFromString("39.90")),
	})
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if voucher.Status != constants.VoucherStatusPurchased {
		t.Fatalf("expected purchased status, got: %s", voucher.Status)
	}
	if voucher.Settlement != constants.VoucherSettlementPayment {
		t.Fatalf("expected payment settlement, got: %s", voucher.Settlement)
	}
	if voucher.ActivePin == nil || *voucher.ActivePin != voucher.PinCode {
		t.Fatalf("active pin should mirror pin code: %+v", voucher)
	}
	if voucher.EncryptedPayload == "" {
		t.Fatal("encrypted payload should not be empty")
	}
	if voucher.ExpiresAt.Before(voucher.PurchasedAt) {
		t.Fatalf("expiry should be after purchase: %+v", voucher)
	}

	var offerAfter models.Offer
	if err := db.First(&offerAfter, offer.ID).Error; err != nil {
		t.Fatalf("query offer failed: %v", err)
	}
	if offerAfter.SoldCount != 1 {
		t.Fatalf("expected sold count 1, got: %d", offerAfter.SoldCount)
	}
	var shopAfter models.Shop
	if err := db.First(&shopAfter, offer.ShopID).Error; err != nil {
		t.Fatalf("query shop failed: %v", err)
	}
	if shopAfter.SoldCount != 1 {
		t.Fatalf("expected shop sold count 1, got: %d", shopAfter.SoldCount)
	}
}

func TestPurchaseServiceConfirmPaymentIdempotent(t *testing.T) {
	svc, _, db := setupPurchaseServiceTest(t)
	member, offer := seedPurchaseFixtures(t, db, 800, nil)

	input := PaymentConfirmationInput{
		ExternalPaymentRef: "pay-ref-dup",
		MemberID:           member.ID,
		OfferID:            offer.ID,
		AmountPaid:         models.NewMoneyFromDecimal(decimal.RequireFromString("39.90")),
	}
	first, err := svc.ConfirmPayment(input)
	if err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	second, err := svc.ConfirmPayment(input)
	if err != nil {
		t.Fatalf("duplicate confirm failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("duplicate confirm should return the same voucher: %d vs %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&models.Voucher{}).Count(&count).Error; err != nil {
		t.Fatalf("count vouchers failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 voucher, got: %d", count)
	}
	var offerAfter models.Offer
	if err := db.First(&offerAfter, offer.ID).Error; err != nil {
		t.Fatalf("query offer failed: %v", err)
	}
	if offerAfter.SoldCount != 1 {
		t.Fatalf("sold count should not double count: %d", offerAfter.SoldCount)
	}
}

func TestPurchaseServiceConfirmPaymentValidation(t *testing.T) {
	svc, _, db := setupPurchaseServiceTest(t)
	member, offer := seedPurchaseFixtures(t, db, 800, nil)

	_, err := svc.ConfirmPayment(PaymentConfirmationInput{
		ExternalPaymentRef: "   ",
		MemberID:           member.ID,
		OfferID:            offer.ID,
		AmountPaid:         models.NewMoneyFromDecimal(decimal.RequireFromString("10.00")),
	})
	if !errors.Is(err, ErrPaymentRefRequired) {
		t.Fatalf("expected ErrPaymentRefRequired, got: %v", err)
	}

	_, err = svc.ConfirmPayment(PaymentConfirmationInput{
		ExternalPaymentRef: "pay-ref-zero",
		MemberID:           member.ID,
		OfferID:            offer.ID,
		AmountPaid:         models.NewMoneyFromDecimal(decimal.Zero),
	})
	if !errors.Is(err, ErrPaymentAmountInvalid) {
		t.Fatalf("expected ErrPaymentAmountInvalid, got: %v", err)
	}
}

func TestPurchaseServicePurchaseWithPoints(t *testing.T) {
	svc, pointsSvc, db := setupPurchaseServiceTest(t)
	member, offer := seedPurchaseFixtures(t, db, 800, nil)

	if _, err := pointsSvc.CreditPoints(member.ID, 2000, constants.PointsTxnTypeEarn, "test", ""); err != nil {
		t.Fatalf("credit points failed: %v", err)
	}

	voucher, err := svc.PurchaseWithPoints(PointsPurchaseInput{MemberID: member.ID, OfferID: offer.ID})
	if err != nil {
		t.Fatalf("purchase with points failed: %v", err)
	}
	if voucher.Settlement != constants.VoucherSettlementPoints {
		t.Fatalf("expected points settlement, got: %s", voucher.Settlement)
	}
	if voucher.PricePaid != 800 {
		t.Fatalf("expected price paid 800, got: %d", voucher.PricePaid)
	}

	balance, err := pointsSvc.GetBalance(member.ID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 1200 {
		t.Fatalf("expected balance 1200 after debit, got: %d", balance)
	}

	var debit models.PointsTransaction
	if err := db.Where("member_id = ? AND direction = ?", member.ID, constants.PointsTxnDirectionOut).First(&debit).Error; err != nil {
		t.Fatalf("query debit transaction failed: %v", err)
	}
	if debit.Amount != 800 || debit.Type != constants.PointsTxnTypeVoucherPurchase {
		t.Fatalf("unexpected debit transaction: %+v", debit)
	}
	if debit.Reference != fmt.Sprintf("voucher:%d", voucher.ID) {
		t.Fatalf("unexpected debit reference: %s", debit.Reference)
	}
}

func TestPurchaseServicePurchaseWithPointsInsufficientBalance(t *testing.T) {
	svc, pointsSvc, db := setupPurchaseServiceTest(t)
	member, offer := seedPurchaseFixtures(t, db, 800, nil)

	if _, err := pointsSvc.CreditPoints(member.ID, 500, constants.PointsTxnTypeEarn, "test", ""); err != nil {
		t.Fatalf("credit points failed: %v", err)
	}

	_, err := svc.PurchaseWithPoints(PointsPurchaseInput{MemberID: member.ID, OfferID: offer.ID})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}

	// 余额不足不得产生任何扣减或发卡副作用
	balance, err := pointsSvc.GetBalance(member.ID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 500 {
		t.Fatalf("balance should be untouched, got: %d", balance)
	}
	var count int64
	if err := db.Model(&models.Voucher{}).Count(&count).Error; err != nil {
		t.Fatalf("count vouchers failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no voucher should be issued, got: %d", count)
	}
}

func TestPurchaseServicePurchaseWithPointsBalanceNeverNegative(t *testing.T) {
	svc, pointsSvc, db := setupPurchaseServiceTest(t)
	member, offer := seedPurchaseFixtures(t, db, 800, nil)

	second := models.Offer{
		ShopID:      offer.ShopID,
		Title:       "单人早午餐",
		PricePoints: 700,
		IsActive:    true,
	}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("create offer failed: %v", err)
	}
	if _, err := pointsSvc.CreditPoints(member.ID, 1000, constants.PointsTxnTypeEarn, "test", ""); err != nil {
		t.Fatalf("credit points failed: %v", err)
	}

	// 余额只够一单：不同项目的扣减靠会员行锁互斥，第二单在锁内看到扣减后的余额
	if _, err := svc.PurchaseWithPoints(PointsPurchaseInput{MemberID: member.ID, OfferID: offer.ID}); err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}
	_, err := svc.PurchaseWithPoints(PointsPurchaseInput{MemberID: member.ID, OfferID: second.ID})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}

	balance, err := pointsSvc.GetBalance(member.ID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 200 {
		t.Fatalf("ledger must not go negative, got balance: %d", balance)
	}
}

func TestPurchaseServiceOfferQuotaExhausted(t *testing.T) {
	svc, _, db := setupPurchaseServiceTest(t)
	quota := int64(1)
	member, offer := seedPurchaseFixtures(t, db, 800, &quota)

	first, err := svc.ConfirmPayment(PaymentConfirmationInput{
		ExternalPaymentRef: "quota-ref-1",
		MemberID:           member.ID,
		OfferID:            offer.ID,
		AmountPaid:         models.NewMoneyFromDecimal(decimal.RequireFromString("10.00")),
	})
	if err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}
	if first == nil {
		t.Fatal("first voucher should not be nil")
	}

	_, err = svc.ConfirmPayment(PaymentConfirmationInput{
		ExternalPaymentRef: "quota-ref-2",
		MemberID:           member.ID,
		OfferID:            offer.ID,
		AmountPaid:         models.NewMoneyFromDecimal(decimal.RequireFromString("10.00")),
	})
	if !errors.Is(err, ErrOfferUnavailable) {
		t.Fatalf("expected ErrOfferUnavailable, got: %v", err)
	}
}

func TestPurchaseServiceOfferOutsideWindow(t *testing.T) {
	svc, _, db := setupPurchaseServiceTest(t)
	member, offer := seedPurchaseFixtures(t, db, 800, nil)
	past := time.Now().Add(-time.Hour)
	if err := db.Model(&models.Offer{}).Where("id = ?", offer.ID).Update("valid_until", past).Error; err != nil {
		t.Fatalf("update offer window failed: %v", err)
	}

	_, err := svc.ConfirmPayment(PaymentConfirmationInput{
		ExternalPaymentRef: "window-ref-1",
		MemberID:           member.ID,
		OfferID:            offer.ID,
		AmountPaid:         models.NewMoneyFromDecimal(decimal.RequireFromString("10.00")),
	})
	if !errors.Is(err, ErrOfferUnavailable) {
		t.Fatalf("expected ErrOfferUnavailable, got: %v", err)
	}
}

func TestPurchaseServicePurchaseWithPointsDisabledMember(t *testing.T) {
	svc, _, db := setupPurchaseServiceTest(t)
	member, offer := seedPurchaseFixtures(t, db, 800, nil)
	if err := db.Model(&models.Member{}).Where("id = ?", member.ID).Update("status", constants.MemberStatusDisabled).Error; err != nil {
		t.Fatalf("disable member failed: %v", err)
	}

	_, err := svc.PurchaseWithPoints(PointsPurchaseInput{MemberID: member.ID, OfferID: offer.ID})
	if !errors.Is(err, ErrMemberDisabled) {
		t.Fatalf("expected ErrMemberDisabled, got: %v", err)
	}
}
