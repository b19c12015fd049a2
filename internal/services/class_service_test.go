package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nexofit/gym-api/internal/models"
)

func setupClassDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.GymClass{}, &models.ClassBooking{}, &models.Member{})
	require.NoError(t, err)
	return db
}

func createClass(t *testing.T, db *gorm.DB, capacity int) models.GymClass {
	class, err := NewClassService(db).CreateClass(models.GymClass{
		BranchID: 1,
		Name:     "Spinning",
		Trainer:  "Marta",
		Capacity: capacity,
		StartsAt: time.Now().Add(24 * time.Hour),
		Duration: 45,
	})
	require.NoError(t, err)
	return class
}

func TestBookClassEnforcesCapacity(t *testing.T) {
	db := setupClassDB(t)
	service := NewClassService(db)
	class := createClass(t, db, 2)

	_, err := service.BookClass(class.ID, 1)
	require.NoError(t, err)
	_, err = service.BookClass(class.ID, 2)
	require.NoError(t, err)

	_, err = service.BookClass(class.ID, 3)
	require.Error(t, err)
	assert.Equal(t, "class_full", err.Error())
}

func TestBookClassRejectsDuplicateBooking(t *testing.T) {
	db := setupClassDB(t)
	service := NewClassService(db)
	class := createClass(t, db, 10)

	_, err := service.BookClass(class.ID, 5)
	require.NoError(t, err)

	_, err = service.BookClass(class.ID, 5)
	require.Error(t, err)
	assert.Equal(t, "already_booked", err.Error())

	var count int64
	require.NoError(t, db.Model(&models.ClassBooking{}).Where("class_id = ?", class.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCancelBookingFreesCapacity(t *testing.T) {
	db := setupClassDB(t)
	service := NewClassService(db)
	class := createClass(t, db, 1)

	_, err := service.BookClass(class.ID, 1)
	require.NoError(t, err)

	require.NoError(t, service.CancelBooking(class.ID, 1))

	// The freed slot is bookable again
	_, err = service.BookClass(class.ID, 2)
	assert.NoError(t, err)
}

func TestCancelBookingUnknown(t *testing.T) {
	db := setupClassDB(t)
	service := NewClassService(db)
	class := createClass(t, db, 1)

	err := service.CancelBooking(class.ID, 42)
	require.Error(t, err)
	assert.Equal(t, "booking_not_found", err.Error())
}

func TestGetClassesFiltersByBranch(t *testing.T) {
	db := setupClassDB(t)
	service := NewClassService(db)

	_, err := service.CreateClass(models.GymClass{BranchID: 1, Name: "Yoga", StartsAt: time.Now()})
	require.NoError(t, err)
	_, err = service.CreateClass(models.GymClass{BranchID: 2, Name: "Boxing", StartsAt: time.Now()})
	require.NoError(t, err)

	classes, err := service.GetClasses(1)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Yoga", classes[0].Name)

	all, err := service.GetClasses(0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
