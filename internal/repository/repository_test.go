package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinic-appointment-service/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestDoctorSlotRepository_SetBookedIsConditional(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDoctorSlotRepository(db)
	day := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "doctor_slots" SET .*version \+ 1.* WHERE .*doctor_id = .*slot_date = .*slot_time = .*is_booked = `).
		WillReturnResult(sqlmock.NewResult(0, 0))

	free := false
	affected, err := repo.SetBooked(context.Background(), 1, day, "10:00 AM", true, &free)
	require.NoError(t, err)
	assert.Zero(t, affected, "already booked slot is not updated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_TransitionStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectExec(`UPDATE "appointments" SET .* WHERE .*id = .*status = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.TransitionStatus(context.Background(), uuid.New(),
		entity.AppointmentStatusScheduled, entity.AppointmentStatusCancelled, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_FindByIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	appointment, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, appointment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_FindByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()
	day := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "doctor_id", "date", "time", "type", "symptoms", "status"}).
		AddRow(id.String(), "user-a", 1, day, "10:00 AM", "consultation", "cough", "scheduled")
	mock.ExpectQuery(`SELECT \* FROM "appointments" WHERE user_id = .* ORDER BY date ASC, created_at ASC`).
		WillReturnRows(rows)

	appointments, err := repo.FindByUserID(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, id, appointments[0].ID)
	assert.Equal(t, entity.AppointmentStatusScheduled, appointments[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	txManager := NewTxManager(db)
	slots := NewDoctorSlotRepository(db)
	day := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	failure := errors.New("insert failed")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "doctor_slots"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := txManager.WithinTransaction(context.Background(), func(ctx context.Context) error {
		free := false
		if _, err := slots.SetBooked(ctx, 1, day, "10:00 AM", true, &free); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return txManager.WithinTransaction(ctx, func(context.Context) error {
			return failure
		})
	})

	assert.ErrorIs(t, err, failure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_Commits(t *testing.T) {
	db, mock := newMockDB(t)
	txManager := NewTxManager(db)
	appointments := NewAppointmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "appointments"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := txManager.WithinTransaction(context.Background(), func(ctx context.Context) error {
		_, err := appointments.TransitionStatus(ctx, uuid.New(),
			entity.AppointmentStatusScheduled, entity.AppointmentStatusCompleted, time.Now())
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
