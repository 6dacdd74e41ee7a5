package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-booking-api/internal/models"
	appErrors "github.com/noah-isme/sma-booking-api/pkg/errors"
)

func newTestSession(totalSessions int, slots ...models.TimeSlot) *Session {
	course := models.Course{ID: "course-1", Name: "Robotics", TotalSessions: totalSessions}
	students := []models.Student{
		{ID: "stu-1", FullName: "Aulia Rahma", Active: true},
		{ID: "stu-2", FullName: "Bima Putra", Active: true},
		{ID: "stu-3", FullName: "Citra Dewi", Active: true},
	}
	return NewSession(course, students, slots)
}

func TestSessionDefaultsToFirstStudent(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 2, "t1"))
	assert.Equal(t, "stu-1", session.ActiveStudent())
}

func TestSessionSelectActiveStudent(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 2, "t1"))

	require.NoError(t, session.SelectActiveStudent("stu-2"))
	assert.Equal(t, "stu-2", session.ActiveStudent())

	err := session.SelectActiveStudent("stranger")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSessionBulkToggle(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 2, "t1"))

	selected, err := session.ToggleBulkStudent("stu-2")
	require.NoError(t, err)
	assert.True(t, selected)

	selected, err = session.ToggleBulkStudent("stu-2")
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Empty(t, session.BulkStudents())

	_, err = session.ToggleBulkStudent("stranger")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSessionSlotSelectionLifecycle(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 2, "t1"))

	require.NoError(t, session.BeginSlotSelection("s1"))
	require.NotNil(t, session.Selection())

	require.NoError(t, session.ChooseTime("s1", "09:00"))
	assert.Equal(t, "09:00", session.Selection().Time)

	// Choosing a time for a slot without a selection in progress fails.
	err := session.ChooseTime("s9", "09:00")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	// Re-clicking the same slot abandons the selection.
	require.NoError(t, session.BeginSlotSelection("s1"))
	assert.Nil(t, session.Selection())

	require.NoError(t, session.BeginSlotSelection("s1"))
	session.AbandonSelection()
	assert.Nil(t, session.Selection())
}

func TestSessionSelectionIsPureUIState(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 2, "t1"))

	require.NoError(t, session.BeginSlotSelection("s1"))
	require.NoError(t, session.ChooseTime("s1", "09:00"))
	session.AbandonSelection()

	slots := session.Slots(models.SlotFilter{})
	require.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].RemainingQuota)
	assert.Empty(t, session.AllBookings())
}

func TestSessionConfirmPlacementBooksBulkSet(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 3, "t1", "t2"))

	_, err := session.ToggleBulkStudent("stu-1")
	require.NoError(t, err)
	_, err = session.ToggleBulkStudent("stu-2")
	require.NoError(t, err)
	require.NoError(t, session.BeginSlotSelection("s1"))

	results, err := session.ConfirmPlacement("s1", day(0))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, models.OutcomeBooked, r.Outcome)
		// Primary teacher is used for placements.
		assert.Equal(t, "t1", r.Booking.TeacherID)
	}
	assert.Nil(t, session.Selection())
}

func TestSessionConfirmPlacementWrongDayLane(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 3, "t1"))

	_, err := session.ConfirmPlacement("s1", day(1))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidPlacement))
	assert.Empty(t, session.AllBookings())
}

func TestSessionConfirmPlacementFallsBackToActiveStudent(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 3, "t1"))
	require.NoError(t, session.SelectActiveStudent("stu-3"))

	results, err := session.ConfirmPlacement("s1", day(0))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "stu-3", results[0].StudentID)
}

func TestSessionBookRejectsOutsideStudents(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 3, "t1"))

	_, err := session.Book("s1", "t1", []string{"stranger"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSessionAvailabilityRespectsBulkSize(t *testing.T) {
	tight := testSlot("tight", day(0), "08:00", 3, "t1")
	tight.RemainingQuota = 1
	roomy := testSlot("roomy", day(0), "09:00", 3, "t1")
	session := newTestSession(2, tight, roomy)

	_, err := session.ToggleBulkStudent("stu-1")
	require.NoError(t, err)
	_, err = session.ToggleBulkStudent("stu-2")
	require.NoError(t, err)

	slots := session.Slots(models.SlotFilter{OnlyAvailable: true})
	require.Len(t, slots, 1)
	assert.Equal(t, "roomy", slots[0].ID)

	// Without the availability flag the tight slot still shows.
	assert.Len(t, session.Slots(models.SlotFilter{}), 2)
}

func TestSessionViewWindowNarrowsSlots(t *testing.T) {
	session := newTestSession(2,
		testSlot("mon", day(0), "08:00", 2, "t1"),
		testSlot("tue", day(1), "08:00", 2, "t1"),
		testSlot("next-mon", day(7), "08:00", 2, "t1"),
	)

	session.SetViewWeek(day(0))
	assert.Len(t, session.Slots(models.SlotFilter{}), 2)

	session.SetViewDay(day(1))
	slots := session.Slots(models.SlotFilter{})
	require.Len(t, slots, 1)
	assert.Equal(t, "tue", slots[0].ID)
}

func TestSessionAllSlotsIgnoresViewWindow(t *testing.T) {
	session := newTestSession(2,
		testSlot("mon", day(0), "08:00", 2, "t1"),
		testSlot("tue", day(1), "08:00", 2, "t1"),
	)

	session.SetViewDay(day(1))
	require.Len(t, session.Slots(models.SlotFilter{}), 1)

	all := session.AllSlots()
	require.Len(t, all, 2)
	assert.Equal(t, "mon", all[0].ID)
	assert.Equal(t, "tue", all[1].ID)
}

func TestSessionValidateCompletion(t *testing.T) {
	session := newTestSession(2,
		testSlot("s1", day(0), "08:00", 3, "t1"),
		testSlot("s2", day(1), "08:00", 3, "t1"),
	)

	_, err := session.Book("s1", "t1", []string{"stu-1", "stu-2"})
	require.NoError(t, err)
	_, err = session.Book("s2", "t1", []string{"stu-1"})
	require.NoError(t, err)

	report := session.ValidateCompletion()
	require.Len(t, report, 3)
	byID := make(map[string]models.StudentCompletion, len(report))
	for _, c := range report {
		byID[c.StudentID] = c
	}
	assert.True(t, byID["stu-1"].Complete)
	assert.False(t, byID["stu-2"].Complete)
	assert.Equal(t, 1, byID["stu-2"].SessionCount)
	assert.False(t, byID["stu-3"].Complete)

	below := session.Incomplete()
	assert.Len(t, below, 2)
}

func TestSessionUnbookDelegates(t *testing.T) {
	session := newTestSession(2, testSlot("s1", day(0), "08:00", 3, "t1"))

	_, err := session.Book("s1", "t1", []string{"stu-1"})
	require.NoError(t, err)

	removed, err := session.RequestUnbook("stu-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", removed.SlotID)

	_, err = session.RequestUnbook("stu-1", "s1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
