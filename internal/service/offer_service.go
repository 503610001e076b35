package service

import (
	"strings"
	"time"

	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

// OfferService 兑换项目服务
type OfferService struct {
	offerRepo    repository.OfferRepository
	employeeRepo repository.EmployeeRepository
}

// NewOfferService 创建兑换项目服务
func NewOfferService(offerRepo repository.OfferRepository, employeeRepo repository.EmployeeRepository) *OfferService {
	return &OfferService{
		offerRepo:    offerRepo,
		employeeRepo: employeeRepo,
	}
}

// CreateOfferInput 创建兑换项目输入
type CreateOfferInput struct {
	EmployeeID    uint
	Title         string
	Description   string
	PricePoints   int64
	OriginalPrice *models.Money
	Quota         *int64
	ValidFrom     *time.Time
	ValidUntil    *time.Time
}

// OfferListInput 兑换项目列表输入
type OfferListInput struct {
	ShopID     uint
	Search     string
	OnlyActive bool
	Page       int
	PageSize   int
}

// CreateOffer 由有权限的员工创建兑换项目
func (s *OfferService) CreateOffer(input CreateOfferInput) (*models.Offer, error) {
	if s == nil || s.offerRepo == nil || s.employeeRepo == nil {
		return nil, ErrOfferCreateFailed
	}
	employee, err := s.employeeRepo.GetByID(input.EmployeeID)
	if err != nil {
		return nil, ErrOfferCreateFailed
	}
	if employee == nil {
		return nil, ErrEmployeeNotFound
	}
	if !employee.IsActive {
		return nil, ErrEmployeeInactive
	}
	if !employee.CanCreateOffer && !employee.IsManager {
		return nil, ErrEmployeeUnauthorized
	}

	title := strings.TrimSpace(input.Title)
	if title == "" || input.PricePoints <= 0 {
		return nil, ErrInvalidInput
	}
	if input.Quota != nil && *input.Quota <= 0 {
		return nil, ErrInvalidInput
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
		return nil, ErrInvalidInput
	}

	now := time.Now()
	offer := &models.Offer{
		ShopID:        employee.ShopID,
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		PricePoints:   input.PricePoints,
		OriginalPrice: input.OriginalPrice,
		Quota:         input.Quota,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.offerRepo.Create(offer); err != nil {
		return nil, ErrOfferCreateFailed
	}
	return offer, nil
}

// GetOffer 获取兑换项目详情
func (s *OfferService) GetOffer(id uint) (*models.Offer, error) {
	if s == nil || s.offerRepo == nil || id == 0 {
		return nil, ErrOfferNotFound
	}
	offer, err := s.offerRepo.GetByID(id)
	if err != nil {
		return nil, ErrOfferFetchFailed
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	return offer, nil
}

// ListOffers 查询兑换项目列表
func (s *OfferService) ListOffers(input OfferListInput) ([]models.Offer, int64, error) {
	if s == nil || s.offerRepo == nil {
		return nil, 0, ErrOfferFetchFailed
	}
	offers, total, err := s.offerRepo.List(repository.OfferListFilter{
		ShopID:     input.ShopID,
		Search:     strings.TrimSpace(input.Search),
		OnlyActive: input.OnlyActive,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return nil, 0, ErrOfferFetchFailed
	}
	return offers, total, nil
}

// DeactivateOffer 下架兑换项目
func (s *OfferService) DeactivateOffer(id uint) (*models.Offer, error) {
	if s == nil || s.offerRepo == nil || id == 0 {
		return nil, ErrOfferNotFound
	}
	offer, err := s.offerRepo.GetByID(id)
	if err != nil {
		return nil, ErrOfferFetchFailed
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	offer.IsActive = false
	offer.UpdatedAt = time.Now()
	if err := s.offerRepo.Update(offer); err != nil {
		return nil, ErrOfferUpdateFailed
	}
	return offer, nil
}
