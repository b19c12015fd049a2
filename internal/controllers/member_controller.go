package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/nexofit/gym-api/internal/access"
	"github.com/nexofit/gym-api/internal/models"
	"github.com/nexofit/gym-api/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// MemberController handles HTTP requests related to members. When the
// member's branch has active access-control settings, creating a member also
// kicks off enrollment on the branch's door devices in the background.
type MemberController struct {
	service  services.MemberService
	enroller *access.Enroller
	store    *access.Store
}

// NewMemberController creates a new instance of MemberController
func NewMemberController(service services.MemberService, enroller *access.Enroller, store *access.Store) *MemberController {
	return &MemberController{service: service, enroller: enroller, store: store}
}

// GetMembers godoc
// @Summary Get members
// @Description Get members with optional filtering by branch and status
// @Tags members
// @Accept json
// @Produce json
// @Param branch_id query int false "Filter by branch"
// @Param status query string false "Filter by status (active/frozen/cancelled)"
// @Success 200 {array} models.Member
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/members [get]
func (mc *MemberController) GetMembers(ctx *gin.Context) {
	branchID, _ := strconv.Atoi(ctx.Query("branch_id"))
	status := ctx.Query("status")

	members, err := mc.service.GetMembers(uint(branchID), status)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}
	ctx.JSON(http.StatusOK, members)
}

// GetMemberByID godoc
// @Summary Get member by ID
// @Description Get a single member by its ID
// @Tags members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} models.Member
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/members/{id} [get]
func (mc *MemberController) GetMemberByID(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID format"})
		return
	}

	member, err := mc.service.GetMemberByID(uint(id))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}
	ctx.JSON(http.StatusOK, member)
}

// CreateMember godoc
// @Summary Create a new member
// @Description Create a member. When the branch has active access-control settings the member is enrolled on the branch's devices in the background.
// @Tags members
// @Accept json
// @Produce json
// @Param member body models.Member true "Member object"
// @Success 201 {object} models.Member
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/members [post]
func (mc *MemberController) CreateMember(ctx *gin.Context) {
	var member models.Member
	if err := ctx.ShouldBindJSON(&member); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if member.BranchID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return
	}

	created, err := mc.service.CreateMember(member)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create member"})
		return
	}

	mc.enrollInBackground(created)
	ctx.JSON(http.StatusCreated, created)
}

// enrollInBackground fires access enrollment for branches that have the
// integration configured. Enrollment outcome lands in the branch sync log;
// member creation does not wait for the vendor.
func (mc *MemberController) enrollInBackground(member models.Member) {
	if mc.enroller == nil || mc.store == nil {
		return
	}
	if _, err := mc.store.SettingsForBranch(member.BranchID); err != nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		result := mc.enroller.EnrollMember(ctx, member.ID, member.Name, member.Phone, member.BranchID, "")
		log.WithFields(log.Fields{
			"member_id": member.ID,
			"branch_id": member.BranchID,
			"success":   result.Success,
			"message":   result.Message,
		}).Info("Background enrollment finished")
	}()
}

// UpdateMember godoc
// @Summary Update a member
// @Description Update a member with the input payload
// @Tags members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Param member body models.Member true "Member object"
// @Success 200 {object} models.Member
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/members/{id} [put]
func (mc *MemberController) UpdateMember(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID format"})
		return
	}

	existing, err := mc.service.GetMemberByID(uint(id))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	var member models.Member
	if err := ctx.ShouldBindJSON(&member); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	member.ID = existing.ID
	member.JoinedAt = existing.JoinedAt

	updated, err := mc.service.UpdateMember(member)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

// SetMemberStatus godoc
// @Summary Change member status
// @Description Transition a member to active, frozen or cancelled
// @Tags members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Param status body object{status=string} true "New status"
// @Success 204
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/members/{id}/status [put]
func (mc *MemberController) SetMemberStatus(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID format"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case models.MemberStatusActive, models.MemberStatusFrozen, models.MemberStatusCancelled:
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	if err := mc.service.SetMemberStatus(uint(id), req.Status); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}
	ctx.JSON(http.StatusNoContent, nil)
}
