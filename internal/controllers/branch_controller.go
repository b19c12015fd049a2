package controllers

import (
	"net/http"
	"strconv"

	"github.com/nexofit/gym-api/internal/models"
	"github.com/nexofit/gym-api/internal/services"
	"github.com/gin-gonic/gin"
)

// BranchController handles HTTP requests related to branches
type BranchController struct {
	service services.BranchService
}

// NewBranchController creates a new instance of BranchController
func NewBranchController(service services.BranchService) *BranchController {
	return &BranchController{service: service}
}

// GetAllBranches godoc
// @Summary Get all branches
// @Description Get a list of all gym branches
// @Tags branches
// @Accept json
// @Produce json
// @Success 200 {array} models.Branch
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/branches [get]
func (bc *BranchController) GetAllBranches(ctx *gin.Context) {
	branches, err := bc.service.GetAllBranches()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve branches"})
		return
	}
	ctx.JSON(http.StatusOK, branches)
}

// GetBranchByID godoc
// @Summary Get branch by ID
// @Description Get a single branch by its ID
// @Tags branches
// @Accept json
// @Produce json
// @Param id path int true "Branch ID"
// @Success 200 {object} models.Branch
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/branches/{id} [get]
func (bc *BranchController) GetBranchByID(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}

	branch, err := bc.service.GetBranchByID(uint(id))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Branch not found"})
		return
	}
	ctx.JSON(http.StatusOK, branch)
}

// CreateBranch godoc
// @Summary Create a new branch
// @Description Create a new gym branch with the input payload
// @Tags branches
// @Accept json
// @Produce json
// @Param branch body models.Branch true "Branch object"
// @Success 201 {object} models.Branch
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/admin/branches [post]
func (bc *BranchController) CreateBranch(ctx *gin.Context) {
	var branch models.Branch
	if err := ctx.ShouldBindJSON(&branch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := bc.service.CreateBranch(branch)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create branch"})
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// UpdateBranch godoc
// @Summary Update a branch
// @Description Update a branch with the input payload
// @Tags branches
// @Accept json
// @Produce json
// @Param id path int true "Branch ID"
// @Param branch body models.Branch true "Branch object"
// @Success 200 {object} models.Branch
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/admin/branches/{id} [put]
func (bc *BranchController) UpdateBranch(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}

	if _, err := bc.service.GetBranchByID(uint(id)); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Branch not found"})
		return
	}

	var branch models.Branch
	if err := ctx.ShouldBindJSON(&branch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	branch.ID = uint(id)

	updated, err := bc.service.UpdateBranch(branch)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update branch"})
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

// DeactivateBranch godoc
// @Summary Deactivate a branch
// @Description Mark a branch inactive. Branches are never deleted.
// @Tags branches
// @Accept json
// @Produce json
// @Param id path int true "Branch ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/admin/branches/{id} [delete]
func (bc *BranchController) DeactivateBranch(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}

	if err := bc.service.DeactivateBranch(uint(id)); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate branch"})
		return
	}
	ctx.JSON(http.StatusNoContent, nil)
}
