package models

import (
	"strings"

	"github.com/loyalty-next/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultShop 初始化默认门店与店长账号
// 仅在空库时创建，便于开发环境首次启动即可核销
func InitDefaultShop(shopName, managerPin string) error {
	var count int64
	DB.Model(&Shop{}).Count(&count)
	if count > 0 {
		return nil
	}

	if strings.TrimSpace(shopName) == "" {
		shopName = "演示门店"
	}
	if managerPin == "" {
		managerPin = "123456"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(managerPin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	shop := Shop{
		Name:     shopName,
		Slug:     "demo-shop",
		IsActive: true,
	}
	if err := DB.Create(&shop).Error; err != nil {
		return err
	}

	manager := Employee{
		ShopID:         shop.ID,
		Name:           "店长",
		PinHash:        string(hash),
		CanRedeem:      true,
		CanCreateOffer: true,
		IsManager:      true,
		IsActive:       true,
	}
	if err := DB.Create(&manager).Error; err != nil {
		return err
	}

	if managerPin == "123456" {
		logger.Warnw("default_shop_created_with_default_pin", "shop", shopName, "employee_id", manager.ID)
	} else {
		logger.Warnw("default_shop_created", "shop", shopName, "employee_id", manager.ID, "pin_hidden", true)
	}
	return nil
}
