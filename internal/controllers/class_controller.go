package controllers

import (
	"net/http"
	"strconv"

	"github.com/nexofit/gym-api/internal/models"
	"github.com/nexofit/gym-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ClassController handles scheduled classes and bookings
type ClassController struct {
	service services.ClassService
}

// NewClassController creates a new instance of ClassController
func NewClassController(service services.ClassService) *ClassController {
	return &ClassController{service: service}
}

// GetClasses godoc
// @Summary Get classes
// @Description Get scheduled classes, optionally filtered by branch
// @Tags classes
// @Produce json
// @Param branch_id query int false "Filter by branch"
// @Success 200 {array} models.GymClass
// @Failure 500 {object} map[string]string
// @Router /api/v1/public/classes [get]
func (cc *ClassController) GetClasses(ctx *gin.Context) {
	branchID, _ := strconv.Atoi(ctx.Query("branch_id"))

	classes, err := cc.service.GetClasses(uint(branchID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve classes"})
		return
	}
	ctx.JSON(http.StatusOK, classes)
}

// CreateClass godoc
// @Summary Create a class
// @Tags classes
// @Accept json
// @Produce json
// @Param class body models.GymClass true "Class object"
// @Success 201 {object} models.GymClass
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/classes [post]
func (cc *ClassController) CreateClass(ctx *gin.Context) {
	var class models.GymClass
	if err := ctx.ShouldBindJSON(&class); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if class.BranchID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return
	}

	created, err := cc.service.CreateClass(class)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create class"})
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// BookClass godoc
// @Summary Book a member into a class
// @Tags classes
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Param booking body object{member_id=int} true "Member to book"
// @Success 201 {object} models.ClassBooking
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/classes/{id}/bookings [post]
func (cc *ClassController) BookClass(ctx *gin.Context) {
	classID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid class ID format"})
		return
	}

	var req struct {
		MemberID uint `json:"member_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := cc.service.BookClass(uint(classID), req.MemberID)
	if err != nil {
		switch err.Error() {
		case "class_full":
			ctx.JSON(http.StatusConflict, gin.H{"error": models.ErrClassFull})
		case "already_booked":
			ctx.JSON(http.StatusConflict, gin.H{"error": models.ErrAlreadyBooked})
		default:
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Class not found"})
		}
		return
	}
	ctx.JSON(http.StatusCreated, booking)
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Tags classes
// @Param id path int true "Class ID"
// @Param member_id path int true "Member ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/classes/{id}/bookings/{member_id} [delete]
func (cc *ClassController) CancelBooking(ctx *gin.Context) {
	classID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid class ID format"})
		return
	}
	memberID, err := strconv.Atoi(ctx.Param("member_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID format"})
		return
	}

	if err := cc.service.CancelBooking(uint(classID), uint(memberID)); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	ctx.JSON(http.StatusNoContent, nil)
}
