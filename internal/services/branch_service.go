package services

import (
	"github.com/nexofit/gym-api/internal/models"
	"gorm.io/gorm"
)

// BranchService provides methods to manage gym branches
type BranchService interface {
	// GetAllBranches retrieves all branches
	GetAllBranches() ([]models.Branch, error)
	// GetBranchByID retrieves a branch by its ID
	GetBranchByID(id uint) (models.Branch, error)
	// CreateBranch creates a new branch
	CreateBranch(branch models.Branch) (models.Branch, error)
	// UpdateBranch updates an existing branch
	UpdateBranch(branch models.Branch) (models.Branch, error)
	// DeactivateBranch marks a branch inactive without deleting it
	DeactivateBranch(id uint) error
}

type branchService struct {
	db *gorm.DB
}

// NewBranchService creates a new instance of BranchService
func NewBranchService(db *gorm.DB) BranchService {
	return &branchService{db: db}
}

func (s *branchService) GetAllBranches() ([]models.Branch, error) {
	var branches []models.Branch
	if err := s.db.Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (s *branchService) GetBranchByID(id uint) (models.Branch, error) {
	var branch models.Branch
	if err := s.db.First(&branch, id).Error; err != nil {
		return models.Branch{}, err
	}
	return branch, nil
}

func (s *branchService) CreateBranch(branch models.Branch) (models.Branch, error) {
	if err := s.db.Create(&branch).Error; err != nil {
		return models.Branch{}, err
	}
	return branch, nil
}

func (s *branchService) UpdateBranch(branch models.Branch) (models.Branch, error) {
	if err := s.db.Save(&branch).Error; err != nil {
		return models.Branch{}, err
	}
	return branch, nil
}

func (s *branchService) DeactivateBranch(id uint) error {
	return s.db.Model(&models.Branch{}).Where("id = ?", id).Update("active", false).Error
}
