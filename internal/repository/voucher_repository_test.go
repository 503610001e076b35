package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupVoucherRepositoryTest(t *testing.T) (*GormVoucherRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:voucher_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Shop{},
		&models.Offer{},
		&models.Voucher{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewVoucherRepository(db), db
}

func seedRepoVoucher(t *testing.T, db *gorm.DB, pin string, status string, expiresAt time.Time) *models.Voucher {
	t.Helper()
	activePin := pin
	voucher := models.Voucher{
		MemberID:         1,
		OfferID:          1,
		Status:           status,
		Settlement:       constants.VoucherSettlementPoints,
		PricePaid:        100,
		PinCode:          pin,
		ActivePin:        &activePin,
		EncryptedPayload: "payload",
		PurchasedAt:      time.Now(),
		ExpiresAt:        expiresAt,
	}
	if err := db.Create(&voucher).Error; err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	return &voucher
}

func TestVoucherRepositoryActivePinLookup(t *testing.T) {
	repo, db := setupVoucherRepositoryTest(t)
	future := time.Now().Add(24 * time.Hour)
	voucher := seedRepoVoucher(t, db, "1234", constants.VoucherStatusPurchased, future)

	found, err := repo.GetByActivePin("1234")
	if err != nil {
		t.Fatalf("get by active pin failed: %v", err)
	}
	if found == nil || found.ID != voucher.ID {
		t.Fatalf("unexpected lookup result: %+v", found)
	}

	miss, err := repo.GetByActivePin("9999")
	if err != nil {
		t.Fatalf("lookup miss failed: %v", err)
	}
	if miss != nil {
		t.Fatalf("expected nil for unknown pin, got: %+v", miss)
	}

	taken, err := repo.ExistsActivePin("1234")
	if err != nil {
		t.Fatalf("exists active pin failed: %v", err)
	}
	if !taken {
		t.Fatal("pin 1234 should be taken")
	}
	free, err := repo.ExistsActivePin("9999")
	if err != nil {
		t.Fatalf("exists active pin failed: %v", err)
	}
	if free {
		t.Fatal("pin 9999 should be free")
	}
}

func TestVoucherRepositoryDuplicateActivePin(t *testing.T) {
	repo, db := setupVoucherRepositoryTest(t)
	future := time.Now().Add(24 * time.Hour)
	seedRepoVoucher(t, db, "5678", constants.VoucherStatusPurchased, future)

	dup := "5678"
	err := repo.Create(&models.Voucher{
		MemberID:         2,
		OfferID:          1,
		Status:           constants.VoucherStatusPurchased,
		Settlement:       constants.VoucherSettlementPoints,
		PinCode:          dup,
		ActivePin:        &dup,
		EncryptedPayload: "payload",
		PurchasedAt:      time.Now(),
		ExpiresAt:        future,
	})
	if err == nil {
		t.Fatal("duplicate active pin should be rejected")
	}
	if !IsDuplicatePinError(err) {
		t.Fatalf("expected duplicate pin error, got: %v", err)
	}
}

func TestVoucherRepositoryListOverdue(t *testing.T) {
	repo, db := setupVoucherRepositoryTest(t)
	now := time.Now()

	// purchased 与 redeemed 状态的过期卡券都占用 PIN，均需清扫
	purchased := seedRepoVoucher(t, db, "1000", constants.VoucherStatusPurchased, now.Add(-time.Hour))
	seedRepoVoucher(t, db, "2000", constants.VoucherStatusPurchased, now.Add(time.Hour))
	redeemed := seedRepoVoucher(t, db, "3000", constants.VoucherStatusRedeemed, now.Add(-2*time.Hour))
	released := seedRepoVoucher(t, db, "4000", constants.VoucherStatusExpired, now.Add(-time.Hour))
	if err := db.Model(&models.Voucher{}).Where("id = ?", released.ID).Update("active_pin", nil).Error; err != nil {
		t.Fatalf("release pin failed: %v", err)
	}

	list, err := repo.ListOverdue(now, 10)
	if err != nil {
		t.Fatalf("list overdue failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 overdue vouchers, got: %d", len(list))
	}
	if list[0].ID != redeemed.ID || list[1].ID != purchased.ID {
		t.Fatalf("unexpected overdue order: %d, %d", list[0].ID, list[1].ID)
	}
}

func TestVoucherRepositoryListByMemberAndStatus(t *testing.T) {
	repo, db := setupVoucherRepositoryTest(t)
	future := time.Now().Add(24 * time.Hour)

	seedRepoVoucher(t, db, "1111", constants.VoucherStatusPurchased, future)
	redeemed := seedRepoVoucher(t, db, "2222", constants.VoucherStatusRedeemed, future)

	list, total, err := repo.List(VoucherListFilter{
		MemberID: 1,
		Status:   constants.VoucherStatusRedeemed,
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("list vouchers failed: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("expected 1 redeemed voucher, got total=%d len=%d", total, len(list))
	}
	if list[0].ID != redeemed.ID {
		t.Fatalf("unexpected voucher: %d", list[0].ID)
	}
}
