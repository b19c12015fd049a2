package access

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexofit/gym-api/internal/access/vendorapi"
	"github.com/nexofit/gym-api/internal/models"
)

// DeviceOutcome records what happened on one device during an enrollment
// attempt, so partial success stays reportable instead of collapsing into a
// boolean.
type DeviceOutcome struct {
	Serial    string `json:"serial"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type"`
	OK        bool   `json:"ok"`
	Simulated bool   `json:"simulated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// EnrollmentResult is the caller-facing outcome of one enrollment attempt.
// Success means at least one device accepted the member; the message names
// any devices that failed.
type EnrollmentResult struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	AttemptID string          `json:"attempt_id"`
	PersonID  string          `json:"person_id,omitempty"`
	Devices   []DeviceOutcome `json:"devices"`
}

// Enroller registers gym members on the access-control platform and
// propagates door privileges to the branch's devices. It never returns an
// error to its caller; failures are reported through the result and the
// branch's sync log.
type Enroller struct {
	store  *Store
	tokens *TokenManager
	api    VendorAPI
	log    *logrus.Logger
}

func NewEnroller(store *Store, tokens *TokenManager, api VendorAPI, logger *logrus.Logger) *Enroller {
	return &Enroller{store: store, tokens: tokens, api: api, log: logger}
}

// EnrollMember runs the two-phase enrollment for one member: register the
// member as a platform person on the branch's cloud devices, then apply door
// privileges per device. Local devices get a direct device-level add-user
// call instead. deviceType filters the targets to "cloud" or "local"; empty
// means both.
func (e *Enroller) EnrollMember(ctx context.Context, memberID uint, name, phone string, branchID uint, deviceType string) EnrollmentResult {
	result := EnrollmentResult{AttemptID: uuid.New().String()}

	e.appendLog(branchID, result.AttemptID, models.SyncLogLevelInfo, models.SyncLogStatusPending,
		fmt.Sprintf("enrolling member %d", memberID), "")

	settings, err := e.store.SettingsForBranch(branchID)
	if err != nil {
		return e.finish(branchID, memberID, result, fmt.Sprintf("enrollment aborted: %v", err))
	}

	var cloudDevices, localDevices []models.AccessDevice
	for _, dev := range settings.Devices {
		if deviceType != "" && dev.Type != deviceType {
			continue
		}
		if dev.Type == models.DeviceTypeLocal {
			localDevices = append(localDevices, dev)
		} else {
			cloudDevices = append(cloudDevices, dev)
		}
	}
	if len(cloudDevices) == 0 && len(localDevices) == 0 {
		return e.finish(branchID, memberID, result, "enrollment aborted: no matching devices configured")
	}

	if len(cloudDevices) > 0 {
		e.enrollCloud(ctx, settings, memberID, name, phone, cloudDevices, &result)
	}
	for _, dev := range localDevices {
		result.Devices = append(result.Devices, e.enrollLocal(ctx, dev, memberID, name))
	}

	var succeeded, failed []string
	for _, out := range result.Devices {
		if out.OK {
			succeeded = append(succeeded, out.Serial)
		} else {
			failed = append(failed, out.Serial)
		}
	}
	result.Success = len(succeeded) > 0
	switch {
	case len(failed) == 0:
		result.Message = fmt.Sprintf("member enrolled on all %d devices", len(succeeded))
	case result.Success:
		result.Message = fmt.Sprintf("member enrolled on %d of %d devices; failed: %s",
			len(succeeded), len(result.Devices), strings.Join(failed, ", "))
	default:
		result.Message = fmt.Sprintf("enrollment failed on all devices: %s", strings.Join(failed, ", "))
	}
	return e.finish(branchID, memberID, result, result.Message)
}

// enrollCloud runs the vendor's two-step protocol: add the member as a
// platform person on the cloud device groups, then apply privileges one
// device at a time so each device's outcome is individually known.
func (e *Enroller) enrollCloud(ctx context.Context, settings *models.BranchAccessSettings, memberID uint, name, phone string, devices []models.AccessDevice, result *EnrollmentResult) {
	outcomes := make([]DeviceOutcome, len(devices))
	serials := make([]string, len(devices))
	for i, dev := range devices {
		outcomes[i] = DeviceOutcome{Serial: dev.SerialNumber, Name: dev.Name, Type: models.DeviceTypeCloud}
		serials[i] = dev.SerialNumber
	}
	defer func() {
		result.Devices = append(result.Devices, outcomes...)
	}()

	failAll := func(err error) {
		for i := range outcomes {
			outcomes[i].Error = err.Error()
		}
	}

	token, err := e.tokens.GetToken(ctx, settings)
	if err != nil {
		failAll(err)
		return
	}

	personID, err := e.api.AddPerson(ctx, settings.BaseURL, token, vendor.AddPersonRequest{
		EmployeeID:   strconv.FormatUint(uint64(memberID), 10),
		Name:         name,
		Phone:        phone,
		GroupSerials: serials,
	})
	if err != nil {
		failAll(err)
		return
	}

	// Some platform versions omit the person id. We fall back to the member
	// id but keep the row flagged unconfirmed, since the two identifier
	// spaces are distinct and the fallback needs later reconciliation.
	confirmed := personID != ""
	if !confirmed {
		personID = strconv.FormatUint(uint64(memberID), 10)
		e.log.WithFields(logrus.Fields{
			"branch_id": settings.BranchID,
			"member_id": memberID,
		}).Warn("Vendor omitted person id; falling back to member id (unconfirmed)")
	}
	result.PersonID = personID

	person := &models.AccessPerson{
		BranchID:    settings.BranchID,
		MemberID:    memberID,
		PersonID:    personID,
		IDConfirmed: confirmed,
	}
	if err := e.store.UpsertPerson(person); err != nil {
		failAll(err)
		return
	}
	if person.ID == 0 {
		// Upsert via ON CONFLICT does not backfill the key on update
		if existing, lookupErr := e.store.PersonForMember(settings.BranchID, memberID); lookupErr == nil && existing != nil {
			person.ID = existing.ID
		}
	}

	anyApplied := false
	for i, dev := range devices {
		assignment := &models.PrivilegeAssignment{
			PersonRefID:  person.ID,
			DeviceSerial: dev.SerialNumber,
			Privilege:    1,
			SyncStatus:   models.PrivilegeStatusPending,
		}
		err := e.api.ApplyPrivilege(ctx, settings.BaseURL, token, personID, []string{dev.SerialNumber}, assignment.Privilege, nil, nil)
		if err != nil {
			outcomes[i].Error = err.Error()
			assignment.SyncStatus = models.PrivilegeStatusFailed
			assignment.LastError = err.Error()
		} else {
			outcomes[i].OK = true
			assignment.SyncStatus = models.PrivilegeStatusSynced
			anyApplied = true
		}
		if saveErr := e.store.SavePrivilege(assignment); saveErr != nil {
			e.log.WithError(saveErr).Warn("Failed to persist privilege assignment")
		}
	}

	if anyApplied {
		if status, err := e.api.PrivilegeStatus(ctx, settings.BaseURL, token, personID); err == nil {
			e.log.WithFields(logrus.Fields{
				"branch_id": settings.BranchID,
				"person_id": personID,
				"status":    status,
			}).Debug("Privilege propagation status")
		}
	}
}

// enrollLocal issues the direct device-level add-user call. When the device
// is unreachable the transport chain may degrade to a simulated success in
// development environments; that outcome is flagged and logged, never passed
// off as a real acknowledgment.
func (e *Enroller) enrollLocal(ctx context.Context, dev models.AccessDevice, memberID uint, name string) DeviceOutcome {
	outcome := DeviceOutcome{Serial: dev.SerialNumber, Name: dev.Name, Type: models.DeviceTypeLocal}

	simulated, err := e.api.AddLocalUser(ctx, vendor.LocalDevice{
		SerialNumber: dev.SerialNumber,
		Host:         dev.Host,
		Port:         dev.Port,
		Username:     dev.Username,
		Password:     dev.Password,
	}, vendor.LocalUser{
		ID:   strconv.FormatUint(uint64(memberID), 10),
		Name: name,
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.OK = true
	outcome.Simulated = simulated
	if simulated {
		e.log.WithFields(logrus.Fields{
			"branch_id": dev.BranchID,
			"serial":    dev.SerialNumber,
			"member_id": memberID,
		}).Warn("Local device unreachable; add-user simulated (development fallback)")
	}
	return outcome
}

// finish appends the closing log row and fills the result message
func (e *Enroller) finish(branchID, memberID uint, result EnrollmentResult, message string) EnrollmentResult {
	if result.Message == "" {
		result.Message = message
	}
	status := models.SyncLogStatusFailed
	level := models.SyncLogLevelError
	if result.Success {
		status = models.SyncLogStatusSuccess
		level = models.SyncLogLevelInfo
	}

	detail := ""
	if raw, err := json.Marshal(result.Devices); err == nil {
		detail = string(raw)
	}
	e.appendLog(branchID, result.AttemptID, level, status,
		fmt.Sprintf("enrollment of member %d: %s", memberID, message), detail)
	return result
}

func (e *Enroller) appendLog(branchID uint, attemptID, level, status, message, detail string) {
	entry := &models.SyncLogEntry{
		BranchID:   branchID,
		AttemptID:  attemptID,
		Level:      level,
		Message:    message,
		Detail:     detail,
		Status:     status,
		EntityType: "enrollment",
	}
	if err := e.store.AppendLog(entry); err != nil {
		e.log.WithError(err).Warn("Failed to append enrollment log entry")
	}
}
