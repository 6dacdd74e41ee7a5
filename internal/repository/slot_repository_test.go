package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSlotRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	now := time.Now()
	slotRows := sqlmock.NewRows([]string{"id", "course_id", "slot_date", "start_time", "end_time", "total_quota", "remaining_quota", "created_at"}).
		AddRow("s1", "c1", now, "08:00", "09:00", 3, 2, now).
		AddRow("s2", "c1", now, "09:00", "10:00", 3, 3, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, slot_date, start_time, end_time, total_quota, remaining_quota, created_at")).
		WithArgs("c1").
		WillReturnRows(slotRows)

	teacherRows := sqlmock.NewRows([]string{"slot_id", "teacher_id", "is_primary"}).
		AddRow("s1", "t1", true).
		AddRow("s1", "t2", false).
		AddRow("s2", "t1", true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT slot_id, teacher_id, is_primary")).
		WillReturnRows(teacherRows)

	slots, err := repo.ListByCourse(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Len(t, slots[0].EligibleTeachers, 2)
	assert.Equal(t, "t1", slots[0].EligibleTeachers[0].TeacherID)
	assert.True(t, slots[0].EligibleTeachers[0].IsPrimary)
	assert.Len(t, slots[1].EligibleTeachers, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryListByCourseEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, slot_date, start_time, end_time, total_quota, remaining_quota, created_at")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "slot_date", "start_time", "end_time", "total_quota", "remaining_quota", "created_at"}))

	slots, err := repo.ListByCourse(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}
