package main

import (
	"fmt"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/provider"
	"github.com/loyalty-next/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加门店
	shops := []models.Shop{
		{Name: "中心广场店", Slug: "central-plaza", IsActive: true},
		{Name: "湖畔公园店", Slug: "lakeside-park", IsActive: true},
	}
	for i := range shops {
		var existing models.Shop
		if err := models.DB.Where("slug = ?", shops[i].Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&shops[i]).Error; err != nil {
				stdLog.Printf("Failed to create shop %s: %v", shops[i].Slug, err)
			} else {
				stdLog.Printf("Created shop: %s", shops[i].Slug)
			}
		} else {
			shops[i] = existing
			stdLog.Printf("Shop already exists: %s", shops[i].Slug)
		}
	}
	centralID := shops[0].ID
	lakesideID := shops[1].ID

	// 添加员工（演示 PIN 统一为 246810，生产环境请勿复用）
	pinHash, err := bcrypt.GenerateFromPassword([]byte("246810"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo pin: %v", err)
	}
	employees := []models.Employee{
		{ShopID: centralID, Name: "王店长", PinHash: string(pinHash), CanRedeem: true, CanCreateOffer: true, IsManager: true, IsActive: true},
		{ShopID: centralID, Name: "李收银", PinHash: string(pinHash), CanRedeem: true, IsActive: true},
		{ShopID: lakesideID, Name: "陈店长", PinHash: string(pinHash), CanRedeem: true, CanCreateOffer: true, IsManager: true, IsActive: true},
		{ShopID: lakesideID, Name: "赵导购", PinHash: string(pinHash), CanRedeem: false, IsActive: true},
	}
	for _, emp := range employees {
		var existing models.Employee
		if err := models.DB.Where("shop_id = ? AND name = ?", emp.ShopID, emp.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&emp).Error; err != nil {
				stdLog.Printf("Failed to create employee %s: %v", emp.Name, err)
			} else {
				stdLog.Printf("Created employee: %s (shop %d)", emp.Name, emp.ShopID)
			}
		} else {
			stdLog.Printf("Employee already exists: %s", emp.Name)
		}
	}

	// 添加会员
	members := []models.Member{
		{Email: "alice@example.com", DisplayName: "Alice", Status: constants.MemberStatusActive},
		{Email: "bob@example.com", DisplayName: "Bob", Status: constants.MemberStatusActive},
		{Email: "carol@example.com", DisplayName: "Carol", Status: constants.MemberStatusDisabled},
	}
	for i := range members {
		var existing models.Member
		if err := models.DB.Where("email = ?", members[i].Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&members[i]).Error; err != nil {
				stdLog.Printf("Failed to create member %s: %v", members[i].Email, err)
			} else {
				stdLog.Printf("Created member: %s", members[i].Email)
			}
		} else {
			members[i] = existing
			stdLog.Printf("Member already exists: %s", members[i].Email)
		}
	}

	// 添加兑换项目
	now := time.Now()
	windowEnd := now.AddDate(0, 6, 0)
	quota := int64(200)
	originalPrice := models.NewMoneyFromDecimal(decimal.NewFromFloat(39.90))
	offers := []models.Offer{
		{
			ShopID:        centralID,
			Title:         "手冲咖啡双人券",
			Description:   "任意手冲咖啡两杯，含堂食座位",
			PricePoints:   800,
			OriginalPrice: &originalPrice,
			Quota:         &quota,
			ValidFrom:     &now,
			ValidUntil:    &windowEnd,
			IsActive:      true,
		},
		{
			ShopID:      centralID,
			Title:       "甜品拼盘兑换券",
			Description: "当日甜品任选三件",
			PricePoints: 500,
			IsActive:    true,
		},
		{
			ShopID:      lakesideID,
			Title:       "湖畔下午茶套餐",
			Description: "双人下午茶套餐，需提前一天预约",
			PricePoints: 1200,
			ValidFrom:   &now,
			IsActive:    true,
		},
	}
	for i := range offers {
		var existing models.Offer
		if err := models.DB.Where("shop_id = ? AND title = ?", offers[i].ShopID, offers[i].Title).First(&existing).Error; err != nil {
			if err := models.DB.Create(&offers[i]).Error; err != nil {
				stdLog.Printf("Failed to create offer %s: %v", offers[i].Title, err)
			} else {
				stdLog.Printf("Created offer: %s", offers[i].Title)
			}
		} else {
			offers[i] = existing
			stdLog.Printf("Offer already exists: %s", offers[i].Title)
		}
	}

	// 通过业务服务发放演示数据（积分、卡券）
	container := provider.NewContainer(cfg)

	// 给活跃会员充值积分
	for _, m := range members {
		if m.Status != constants.MemberStatusActive {
			continue
		}
		balance, err := container.PointsService.GetBalance(m.ID)
		if err != nil {
			stdLog.Printf("Failed to read balance for %s: %v", m.Email, err)
			continue
		}
		if balance > 0 {
			stdLog.Printf("Member %s already has %d points, skip credit", m.Email, balance)
			continue
		}
		if _, err := container.PointsService.CreditPoints(m.ID, 2000, constants.PointsTxnTypeEarn, "seed", "演示初始积分"); err != nil {
			stdLog.Printf("Failed to credit points for %s: %v", m.Email, err)
		} else {
			stdLog.Printf("Credited 2000 points to %s", m.Email)
		}
	}

	// 模拟一笔支付网关确认（现金购买卡券）
	if len(members) > 0 && len(offers) > 0 {
		ref := fmt.Sprintf("seed-pay-%s", uuid.NewString())
		voucher, err := container.PurchaseService.ConfirmPayment(service.PaymentConfirmationInput{
			ExternalPaymentRef: ref,
			MemberID:           members[0].ID,
			OfferID:            offers[0].ID,
			AmountPaid:         models.NewMoneyFromDecimal(decimal.NewFromFloat(39.90)),
		})
		if err != nil {
			stdLog.Printf("Failed to issue paid voucher: %v", err)
		} else {
			stdLog.Printf("Issued paid voucher #%d (pin %s) via ref %s", voucher.ID, voucher.PinCode, ref)
		}
	}

	// 模拟一笔积分兑换购买
	if len(members) > 1 && len(offers) > 1 {
		voucher, err := container.PurchaseService.PurchaseWithPoints(service.PointsPurchaseInput{
			MemberID: members[1].ID,
			OfferID:  offers[1].ID,
		})
		if err != nil {
			stdLog.Printf("Failed to issue points voucher: %v", err)
		} else {
			stdLog.Printf("Issued points voucher #%d (pin %s)", voucher.ID, voucher.PinCode)
		}
	}

	stdLog.Printf("Seed finished")
}
