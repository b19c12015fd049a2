package services

import (
	"time"

	"github.com/nexofit/gym-api/internal/models"
	"gorm.io/gorm"
)

// MemberService provides methods to manage gym members
type MemberService interface {
	// GetMembers retrieves members with optional filtering by branch and status
	GetMembers(branchID uint, status string) ([]models.Member, error)
	// GetMemberByID retrieves a member by its ID
	GetMemberByID(id uint) (models.Member, error)
	// CreateMember creates a new member
	CreateMember(member models.Member) (models.Member, error)
	// UpdateMember updates an existing member
	UpdateMember(member models.Member) (models.Member, error)
	// SetMemberStatus transitions a member's status (active/frozen/cancelled)
	SetMemberStatus(id uint, status string) error
}

type memberService struct {
	db *gorm.DB
}

// NewMemberService creates a new instance of MemberService
func NewMemberService(db *gorm.DB) MemberService {
	return &memberService{db: db}
}

func (s *memberService) GetMembers(branchID uint, status string) ([]models.Member, error) {
	query := s.db.Model(&models.Member{})
	if branchID != 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var members []models.Member
	if err := query.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (s *memberService) GetMemberByID(id uint) (models.Member, error) {
	var member models.Member
	if err := s.db.First(&member, id).Error; err != nil {
		return models.Member{}, err
	}
	return member, nil
}

func (s *memberService) CreateMember(member models.Member) (models.Member, error) {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	if err := s.db.Create(&member).Error; err != nil {
		return models.Member{}, err
	}
	return member, nil
}

func (s *memberService) UpdateMember(member models.Member) (models.Member, error) {
	if err := s.db.Save(&member).Error; err != nil {
		return models.Member{}, err
	}
	return member, nil
}

func (s *memberService) SetMemberStatus(id uint, status string) error {
	return s.db.Model(&models.Member{}).Where("id = ?", id).Update("status", status).Error
}
