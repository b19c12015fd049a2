package controllers

import (
	"net/http"
	"strconv"

	"github.com/nexofit/gym-api/internal/models"
	"github.com/nexofit/gym-api/internal/services"
	"github.com/gin-gonic/gin"
)

// BillingController handles plans and invoices
type BillingController struct {
	service services.BillingService
}

// NewBillingController creates a new instance of BillingController
func NewBillingController(service services.BillingService) *BillingController {
	return &BillingController{service: service}
}

// GetPlans godoc
// @Summary Get membership plans
// @Tags billing
// @Produce json
// @Success 200 {array} models.MembershipPlan
// @Failure 500 {object} map[string]string
// @Router /api/v1/public/plans [get]
func (bc *BillingController) GetPlans(ctx *gin.Context) {
	plans, err := bc.service.GetPlans()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve plans"})
		return
	}
	ctx.JSON(http.StatusOK, plans)
}

// CreatePlan godoc
// @Summary Create a membership plan
// @Tags billing
// @Accept json
// @Produce json
// @Param plan body models.MembershipPlan true "Plan object"
// @Success 201 {object} models.MembershipPlan
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/admin/plans [post]
func (bc *BillingController) CreatePlan(ctx *gin.Context) {
	var plan models.MembershipPlan
	if err := ctx.ShouldBindJSON(&plan); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := bc.service.CreatePlan(plan)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// GetInvoices godoc
// @Summary Get invoices
// @Description Get invoices filtered by branch and/or member
// @Tags billing
// @Produce json
// @Param branch_id query int false "Filter by branch"
// @Param member_id query int false "Filter by member"
// @Success 200 {array} models.Invoice
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/invoices [get]
func (bc *BillingController) GetInvoices(ctx *gin.Context) {
	branchID, _ := strconv.Atoi(ctx.Query("branch_id"))
	memberID, _ := strconv.Atoi(ctx.Query("member_id"))

	invoices, err := bc.service.GetInvoices(uint(branchID), uint(memberID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invoices"})
		return
	}
	ctx.JSON(http.StatusOK, invoices)
}

// CreateInvoice godoc
// @Summary Create an invoice
// @Tags billing
// @Accept json
// @Produce json
// @Param invoice body models.Invoice true "Invoice object"
// @Success 201 {object} models.Invoice
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/invoices [post]
func (bc *BillingController) CreateInvoice(ctx *gin.Context) {
	var invoice models.Invoice
	if err := ctx.ShouldBindJSON(&invoice); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if invoice.BranchID == 0 || invoice.MemberID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "branch_id and member_id are required"})
		return
	}

	created, err := bc.service.CreateInvoice(invoice)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invoice"})
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// MarkInvoicePaid godoc
// @Summary Mark an invoice paid
// @Tags billing
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.Invoice
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/invoices/{id}/pay [post]
func (bc *BillingController) MarkInvoicePaid(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	invoice, err := bc.service.MarkInvoicePaid(uint(id))
	if err != nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Invoice is not pending"})
		return
	}
	ctx.JSON(http.StatusOK, invoice)
}
