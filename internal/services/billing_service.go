package services

import (
	"errors"
	"time"

	"github.com/nexofit/gym-api/internal/models"
	"gorm.io/gorm"
)

// BillingService manages membership plans and invoices
type BillingService interface {
	// GetPlans retrieves all membership plans
	GetPlans() ([]models.MembershipPlan, error)
	// CreatePlan creates a new membership plan
	CreatePlan(plan models.MembershipPlan) (models.MembershipPlan, error)
	// GetInvoices retrieves invoices filtered by branch and/or member
	GetInvoices(branchID, memberID uint) ([]models.Invoice, error)
	// CreateInvoice creates a new pending invoice
	CreateInvoice(invoice models.Invoice) (models.Invoice, error)
	// MarkInvoicePaid transitions a pending invoice to paid
	MarkInvoicePaid(id uint) (models.Invoice, error)
}

type billingService struct {
	db *gorm.DB
}

// NewBillingService creates a new instance of BillingService
func NewBillingService(db *gorm.DB) BillingService {
	return &billingService{db: db}
}

func (s *billingService) GetPlans() ([]models.MembershipPlan, error) {
	var plans []models.MembershipPlan
	if err := s.db.Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *billingService) CreatePlan(plan models.MembershipPlan) (models.MembershipPlan, error) {
	if err := s.db.Create(&plan).Error; err != nil {
		return models.MembershipPlan{}, err
	}
	return plan, nil
}

func (s *billingService) GetInvoices(branchID, memberID uint) ([]models.Invoice, error) {
	query := s.db.Model(&models.Invoice{})
	if branchID != 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	if memberID != 0 {
		query = query.Where("member_id = ?", memberID)
	}

	var invoices []models.Invoice
	if err := query.Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *billingService) CreateInvoice(invoice models.Invoice) (models.Invoice, error) {
	invoice.Status = models.InvoiceStatusPending
	if err := s.db.Create(&invoice).Error; err != nil {
		return models.Invoice{}, err
	}
	return invoice, nil
}

func (s *billingService) MarkInvoicePaid(id uint) (models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.First(&invoice, id).Error; err != nil {
		return models.Invoice{}, err
	}
	if invoice.Status != models.InvoiceStatusPending {
		return models.Invoice{}, errors.New("invoice_not_pending")
	}

	now := time.Now().UTC()
	invoice.Status = models.InvoiceStatusPaid
	invoice.PaidAt = &now
	if err := s.db.Save(&invoice).Error; err != nil {
		return models.Invoice{}, err
	}
	return invoice, nil
}
