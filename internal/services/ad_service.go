// internal/services/ad_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/utils"
)

type AdService struct {
	db *gorm.DB
}

type CreateAdRequest struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Description string           `json:"description" validate:"max=5000"`
	Platform    models.Platform  `json:"platform" validate:"required,platform"`
	Price       *decimal.Decimal `json:"price" validate:"required,money"`
	Subscribers int64            `json:"subscribers" validate:"gte=0"`
	Tags        []string         `json:"tags" validate:"max=10,dive,max=30"`
}

type AdFilter struct {
	utils.PaginationParams
	Platform *models.Platform `json:"platform,omitempty"`
}

func NewAdService(db *gorm.DB) *AdService {
	return &AdService{db: db}
}

func (s *AdService) CreateAd(caller *models.Caller, req *CreateAdRequest) (*models.Ad, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	tags := make(models.StringList, 0, len(req.Tags))
	for _, tag := range req.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}

	ad := &models.Ad{
		UserID:      caller.UserID,
		Title:       req.Title,
		Description: req.Description,
		Platform:    req.Platform,
		Price:       *req.Price,
		Subscribers: req.Subscribers,
		Tags:        tags,
		Status:      models.AdStatusActive,
	}
	if err := s.db.Create(ad).Error; err != nil {
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}
	return ad, nil
}

func (s *AdService) GetAd(adID uint) (*models.Ad, error) {
	var ad models.Ad
	if err := s.db.Preload("Owner").First(&ad, adID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &ad, nil
}

// ListAds returns active ads, optionally filtered by platform and a title
// search.
func (s *AdService) ListAds(filter AdFilter) ([]models.Ad, int64, error) {
	query := s.db.Model(&models.Ad{}).Where("status = ?", models.AdStatusActive)

	if filter.Platform != nil {
		query = query.Where("platform = ?", *filter.Platform)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ads: %w", err)
	}

	allowedSortFields := []string{"created_at", "price", "subscribers"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var ads []models.Ad
	if err := query.Find(&ads).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ads: %w", err)
	}
	return ads, total, nil
}

func (s *AdService) ListMyAds(caller *models.Caller) ([]models.Ad, error) {
	var ads []models.Ad
	if err := s.db.Where("user_id = ?", caller.UserID).Order("created_at DESC").Order("id DESC").Find(&ads).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch ads: %w", err)
	}
	return ads, nil
}
