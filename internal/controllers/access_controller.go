package controllers

import (
	"net/http"
	"strconv"

	"github.com/nexofit/gym-api/internal/access"
	"github.com/nexofit/gym-api/internal/models"
	"github.com/gin-gonic/gin"
)

// AccessController exposes the access-control integration to branch
// administrators: settings, events, sync log, manual poll and enrollment.
type AccessController struct {
	store     *access.Store
	scheduler *access.Scheduler
	enroller  *access.Enroller
}

// NewAccessController creates a new instance of AccessController
func NewAccessController(store *access.Store, scheduler *access.Scheduler, enroller *access.Enroller) *AccessController {
	return &AccessController{store: store, scheduler: scheduler, enroller: enroller}
}

type accessDeviceInput struct {
	SerialNumber string `json:"serial_number" binding:"required"`
	Name         string `json:"name"`
	Type         string `json:"type" binding:"required,oneof=cloud local"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

type accessSettingsInput struct {
	BaseURL   string              `json:"base_url" binding:"required,url"`
	AppKey    string              `json:"app_key" binding:"required"`
	AppSecret string              `json:"app_secret" binding:"required"`
	Active    bool                `json:"active"`
	Devices   []accessDeviceInput `json:"devices"`
}

// UpsertSettings godoc
// @Summary Configure branch access integration
// @Description Create or replace the vendor credentials and device list for a branch. Sync cursor state is preserved.
// @Tags access
// @Accept json
// @Produce json
// @Param id path int true "Branch ID"
// @Param settings body controllers.accessSettingsInput true "Settings"
// @Success 200 {object} models.BranchAccessSettings
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/admin/branches/{id}/access/settings [put]
func (ac *AccessController) UpsertSettings(ctx *gin.Context) {
	branchID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}

	var req accessSettingsInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := &models.BranchAccessSettings{
		BranchID:  uint(branchID),
		BaseURL:   req.BaseURL,
		AppKey:    req.AppKey,
		AppSecret: req.AppSecret,
		Active:    req.Active,
	}
	for _, dev := range req.Devices {
		settings.Devices = append(settings.Devices, models.AccessDevice{
			BranchID:     uint(branchID),
			SerialNumber: dev.SerialNumber,
			Name:         dev.Name,
			Type:         dev.Type,
			Host:         dev.Host,
			Port:         dev.Port,
			Username:     dev.Username,
			Password:     dev.Password,
		})
	}

	if err := ac.store.UpsertSettings(settings); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	ctx.JSON(http.StatusOK, settings)
}

// GetEvents godoc
// @Summary List access events
// @Description Recent door/access events for a branch, newest first
// @Tags access
// @Produce json
// @Param id path int true "Branch ID"
// @Param limit query int false "Max rows (default 100)"
// @Success 200 {array} models.AccessEvent
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/branches/{id}/access/events [get]
func (ac *AccessController) GetEvents(ctx *gin.Context) {
	branchID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	events, err := ac.store.EventsForBranch(uint(branchID), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}
	ctx.JSON(http.StatusOK, events)
}

// GetSyncLog godoc
// @Summary List integration sync log
// @Tags access
// @Produce json
// @Param id path int true "Branch ID"
// @Param limit query int false "Max rows (default 100)"
// @Success 200 {array} models.SyncLogEntry
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/branches/{id}/access/log [get]
func (ac *AccessController) GetSyncLog(ctx *gin.Context) {
	branchID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	entries, err := ac.store.LogsForBranch(uint(branchID), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sync log"})
		return
	}
	ctx.JSON(http.StatusOK, entries)
}

// TriggerPoll godoc
// @Summary Trigger one poll tick
// @Description Run a single polling tick for the branch, serialized against the scheduler
// @Tags access
// @Produce json
// @Param id path int true "Branch ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/admin/branches/{id}/access/poll [post]
func (ac *AccessController) TriggerPoll(ctx *gin.Context) {
	branchID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}

	if err := ac.scheduler.RunOnce(ctx.Request.Context(), uint(branchID)); err != nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// EnrollMember godoc
// @Summary Enroll a member on access devices
// @Description Register the member on the vendor platform and propagate door privileges. Partial success is reported with the failed devices named.
// @Tags access
// @Accept json
// @Produce json
// @Param enrollment body object{member_id=int,branch_id=int,device_type=string} true "Enrollment request"
// @Success 200 {object} access.EnrollmentResult
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/access/enroll [post]
func (ac *AccessController) EnrollMember(ctx *gin.Context) {
	var req struct {
		MemberID   uint   `json:"member_id" binding:"required"`
		BranchID   uint   `json:"branch_id" binding:"required"`
		Name       string `json:"name"`
		Phone      string `json:"phone"`
		DeviceType string `json:"device_type" binding:"omitempty,oneof=cloud local"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := ac.enroller.EnrollMember(ctx.Request.Context(), req.MemberID, req.Name, req.Phone, req.BranchID, req.DeviceType)
	ctx.JSON(http.StatusOK, result)
}

// GetMemberPrivileges godoc
// @Summary List a member's privilege assignments
// @Tags access
// @Produce json
// @Param id path int true "Branch ID"
// @Param member_id path int true "Member ID"
// @Success 200 {array} models.PrivilegeAssignment
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/branches/{id}/access/members/{member_id}/privileges [get]
func (ac *AccessController) GetMemberPrivileges(ctx *gin.Context) {
	branchID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}
	memberID, err := strconv.Atoi(ctx.Param("member_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID format"})
		return
	}

	person, err := ac.store.PersonForMember(uint(branchID), uint(memberID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve person"})
		return
	}
	if person == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not enrolled"})
		return
	}

	assignments, err := ac.store.PrivilegesForPerson(person.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve privileges"})
		return
	}
	ctx.JSON(http.StatusOK, assignments)
}

// RevokeMemberPrivileges godoc
// @Summary Revoke a member's privileges
// @Description Transition all of the member's privilege assignments to revoked. Rows are kept for audit.
// @Tags access
// @Produce json
// @Param id path int true "Branch ID"
// @Param member_id path int true "Member ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/protected/admin/branches/{id}/access/members/{member_id}/privileges [delete]
func (ac *AccessController) RevokeMemberPrivileges(ctx *gin.Context) {
	branchID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID format"})
		return
	}
	memberID, err := strconv.Atoi(ctx.Param("member_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID format"})
		return
	}

	person, err := ac.store.PersonForMember(uint(branchID), uint(memberID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve person"})
		return
	}
	if person == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not enrolled"})
		return
	}

	revoked, err := ac.store.RevokePrivileges(person.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke privileges"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"revoked": revoked})
}
