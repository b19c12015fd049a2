package services

import (
	"errors"

	"github.com/nexofit/gym-api/internal/models"
	"gorm.io/gorm"
)

// ClassService manages scheduled classes and member bookings
type ClassService interface {
	// GetClasses retrieves classes for a branch
	GetClasses(branchID uint) ([]models.GymClass, error)
	// CreateClass creates a new scheduled class
	CreateClass(class models.GymClass) (models.GymClass, error)
	// BookClass books a member into a class, enforcing capacity
	BookClass(classID, memberID uint) (models.ClassBooking, error)
	// CancelBooking removes a member's booking
	CancelBooking(classID, memberID uint) error
}

type classService struct {
	db *gorm.DB
}

// NewClassService creates a new instance of ClassService
func NewClassService(db *gorm.DB) ClassService {
	return &classService{db: db}
}

func (s *classService) GetClasses(branchID uint) ([]models.GymClass, error) {
	query := s.db.Model(&models.GymClass{})
	if branchID != 0 {
		query = query.Where("branch_id = ?", branchID)
	}

	var classes []models.GymClass
	if err := query.Order("starts_at ASC").Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

func (s *classService) CreateClass(class models.GymClass) (models.GymClass, error) {
	if err := s.db.Create(&class).Error; err != nil {
		return models.GymClass{}, err
	}
	return class, nil
}

func (s *classService) BookClass(classID, memberID uint) (models.ClassBooking, error) {
	var booking models.ClassBooking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var class models.GymClass
		if err := tx.First(&class, classID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.ClassBooking{}).Where("class_id = ?", classID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(class.Capacity) {
			return errors.New("class_full")
		}

		booking = models.ClassBooking{ClassID: classID, MemberID: memberID}
		if err := tx.Create(&booking).Error; err != nil {
			return errors.New("already_booked")
		}
		return nil
	})
	if err != nil {
		return models.ClassBooking{}, err
	}
	return booking, nil
}

func (s *classService) CancelBooking(classID, memberID uint) error {
	result := s.db.Where("class_id = ? AND member_id = ?", classID, memberID).Delete(&models.ClassBooking{})
	if result.RowsAffected == 0 {
		return errors.New("booking_not_found")
	}
	return result.Error
}
