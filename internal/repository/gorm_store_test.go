package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return NewGormStore(db), mock
}

var completeTransition = scheduling.Transition{
	From:           models.StatusScheduled,
	To:             models.StatusCompleted,
	Diagnosis:      "Acute Bronchitis",
	TreatmentNotes: "Rest and fluids",
}

func TestGormTransitionAppointment(t *testing.T) {
	ctx := context.Background()
	updateSQL := regexp.QuoteMeta("UPDATE `appointments` SET")
	countSQL := regexp.QuoteMeta("SELECT count(*) FROM `appointments` WHERE id = ?")

	t.Run("applies when status still matches", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, store.TransitionAppointment(ctx, "appt-1", completeTransition))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost race is an invalid transition", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectQuery(countSQL).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := store.TransitionAppointment(ctx, "appt-1", completeTransition)
		assert.ErrorIs(t, err, scheduling.ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing appointment is not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectQuery(countSQL).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := store.TransitionAppointment(ctx, "missing", completeTransition)
		assert.ErrorIs(t, err, scheduling.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage errors surface untouched", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("connection reset")
		mock.ExpectBegin()
		mock.ExpectExec(updateSQL).WillReturnError(boom)
		mock.ExpectRollback()

		err := store.TransitionAppointment(ctx, "appt-1", completeTransition)
		assert.ErrorIs(t, err, boom)
		assert.False(t, errors.Is(err, scheduling.ErrInvalidTransition))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormGetOrganizationNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `organizations` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := store.GetOrganization(context.Background(), "org-x")
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDeleteUserIsSoft(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `users` SET `deleted_at`=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := store.DeleteUser(context.Background(), "doc-x")
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCreateUserDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'dana@north.test' for key 'idx_users_email'"})
	mock.ExpectRollback()

	err := store.CreateUser(context.Background(), &models.User{
		Email: "dana@north.test", FullName: "Dana", Role: models.RoleDoctor, Password: "hash",
	})
	assert.ErrorIs(t, err, scheduling.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSearchHistoryEscapesPattern(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `appointments` WHERE organization_id = ? AND status = ? AND LOWER(patient_name) LIKE ? ORDER BY scheduled_at desc")).
		WithArgs("org-1", "Completed", `%jane\_d%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_name"}))

	appts, err := store.SearchHistory(context.Background(), "org-1", "Jane_D")
	require.NoError(t, err)
	assert.Empty(t, appts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormListAppointmentsRequiresFilter(t *testing.T) {
	store, mock := newMockStore(t)
	_, err := store.ListAppointments(context.Background(), scheduling.AppointmentFilter{})
	assert.ErrorIs(t, err, scheduling.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_x\\y`, escapeLike(`100% _x\y`))
	assert.Equal(t, "jane", escapeLike("jane"))
}

func TestNewGormStorePanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewGormStore(nil) })
}
