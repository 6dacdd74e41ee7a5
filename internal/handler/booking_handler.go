package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-booking-api/internal/dto"
	"github.com/noah-isme/sma-booking-api/internal/models"
	"github.com/noah-isme/sma-booking-api/internal/service"
	appErrors "github.com/noah-isme/sma-booking-api/pkg/errors"
	"github.com/noah-isme/sma-booking-api/pkg/response"
)

type bookingOrchestrator interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionState, error)
	GetSession(sessionID string) (*dto.SessionState, error)
	CloseSession(sessionID string) error
	Book(sessionID string, req dto.BookRequest) ([]models.StudentBookingResult, error)
	Unbook(sessionID, studentID, slotID string) (models.Booking, error)
	Move(sessionID string, req dto.MoveBookingRequest) (models.StudentBookingResult, error)
	SelectStudent(sessionID string, req dto.SelectStudentRequest) error
	SetView(sessionID string, req dto.ViewWindowRequest) error
	ToggleBulk(sessionID string, req dto.BulkToggleRequest) (bool, error)
	BeginSelection(sessionID string, req dto.BeginSelectionRequest) error
	ChooseTime(sessionID string, req dto.ChooseTimeRequest) error
	AbandonSelection(sessionID string) error
	ConfirmPlacement(sessionID string, req dto.ConfirmPlacementRequest) ([]models.StudentBookingResult, error)
	ListSlots(sessionID string, filter models.SlotFilter) ([]models.TimeSlot, error)
	StudentBookings(sessionID, studentID string) ([]models.Booking, error)
	Completion(sessionID string) (*dto.CompletionResponse, error)
	ConfirmSchedule(ctx context.Context, sessionID string) (*dto.ConfirmScheduleResponse, error)
}

// BookingHandler exposes the interactive scheduling endpoints.
type BookingHandler struct {
	service bookingOrchestrator
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// ListCourses godoc
// @Summary List active courses available for scheduling
// @Tags Booking
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /booking/courses [get]
func (h *BookingHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// CreateSession godoc
// @Summary Start an interactive scheduling session
// @Description Seeds a session with a course, a participant set, and the slot universe (stored or generated).
// @Tags Booking
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /booking/sessions [post]
func (h *BookingHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	state, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, state)
}

// GetSession godoc
// @Summary Get the current session state
// @Tags Booking
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id} [get]
func (h *BookingHandler) GetSession(c *gin.Context) {
	state, err := h.service.GetSession(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// CloseSession godoc
// @Summary Discard a session without persisting
// @Tags Booking
// @Param id path string true "Session ID"
// @Success 204
// @Router /booking/sessions/{id} [delete]
func (h *BookingHandler) CloseSession(c *gin.Context) {
	if err := h.service.CloseSession(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSlots godoc
// @Summary List slots through the session's view rules
// @Tags Booking
// @Produce json
// @Param id path string true "Session ID"
// @Param onlyAvailable query bool false "Only slots with remaining quota for the current selection"
// @Param weekStart query string false "Week start date (YYYY-MM-DD)"
// @Param day query string false "Single day (YYYY-MM-DD)"
// @Param minQuota query int false "Minimum remaining quota"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/slots [get]
func (h *BookingHandler) ListSlots(c *gin.Context) {
	filter, err := parseSlotFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	slots, err := h.service.ListSlots(c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Book godoc
// @Summary Book a slot for one or more students
// @Description Applies all-or-nothing semantics across accepted students; skipped students are reported per outcome.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.BookRequest true "Booking payload"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/bookings [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	results, err := h.service.Book(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.BookResponse{Results: results}, nil)
}

// Unbook godoc
// @Summary Remove a student's booking and release its quota
// @Tags Booking
// @Produce json
// @Param id path string true "Session ID"
// @Param studentId path string true "Student ID"
// @Param slotId path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/students/{studentId}/bookings/{slotId} [delete]
func (h *BookingHandler) Unbook(c *gin.Context) {
	removed, err := h.service.Unbook(c.Param("id"), c.Param("studentId"), c.Param("slotId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, removed, nil)
}

// Move godoc
// @Summary Reschedule a booking between slots
// @Description Drag-and-drop semantics: the source booking is restored unchanged when the destination rejects.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.MoveBookingRequest true "Move payload"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/bookings/move [post]
func (h *BookingHandler) Move(c *gin.Context) {
	var req dto.MoveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	result, err := h.service.Move(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SelectStudent godoc
// @Summary Switch the session's active student
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SelectStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/active-student [put]
func (h *BookingHandler) SelectStudent(c *gin.Context) {
	var req dto.SelectStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	if err := h.service.SelectStudent(c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	h.respondWithState(c)
}

// SetView godoc
// @Summary Move the session's calendar window
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ViewWindowRequest true "View payload"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/view [put]
func (h *BookingHandler) SetView(c *gin.Context) {
	var req dto.ViewWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid view payload"))
		return
	}
	if err := h.service.SetView(c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	h.respondWithState(c)
}

// ToggleBulk godoc
// @Summary Toggle a student in the bulk-select set
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.BulkToggleRequest true "Toggle payload"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/bulk-selection [post]
func (h *BookingHandler) ToggleBulk(c *gin.Context) {
	var req dto.BulkToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	selected, err := h.service.ToggleBulk(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"studentId": req.StudentID, "selected": selected}, nil)
}

// BeginSelection godoc
// @Summary Start (or abandon, on re-click) a time selection on a slot
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.BeginSelectionRequest true "Selection payload"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/selection [post]
func (h *BookingHandler) BeginSelection(c *gin.Context) {
	var req dto.BeginSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}
	if err := h.service.BeginSelection(c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	h.respondWithState(c)
}

// ChooseTime godoc
// @Summary Record a candidate start time on the pending selection
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ChooseTimeRequest true "Time payload"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/selection [put]
func (h *BookingHandler) ChooseTime(c *gin.Context) {
	var req dto.ChooseTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid time payload"))
		return
	}
	if err := h.service.ChooseTime(c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	h.respondWithState(c)
}

// AbandonSelection godoc
// @Summary Drop the pending selection with no booking effect
// @Tags Booking
// @Param id path string true "Session ID"
// @Success 204
// @Router /booking/sessions/{id}/selection [delete]
func (h *BookingHandler) AbandonSelection(c *gin.Context) {
	if err := h.service.AbandonSelection(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ConfirmPlacement godoc
// @Summary Book the selected slot on a day lane
// @Description Rejects placements outside the slot's own day column.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ConfirmPlacementRequest true "Placement payload"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/placement [post]
func (h *BookingHandler) ConfirmPlacement(c *gin.Context) {
	var req dto.ConfirmPlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid placement payload"))
		return
	}
	results, err := h.service.ConfirmPlacement(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.BookResponse{Results: results}, nil)
}

// StudentBookings godoc
// @Summary List one participant's bookings in session order
// @Tags Booking
// @Produce json
// @Param id path string true "Session ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/students/{studentId}/bookings [get]
func (h *BookingHandler) StudentBookings(c *gin.Context) {
	bookings, err := h.service.StudentBookings(c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// Completion godoc
// @Summary Report every participant's progress toward the course target
// @Tags Booking
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /booking/sessions/{id}/completion [get]
func (h *BookingHandler) Completion(c *gin.Context) {
	report, err := h.service.Completion(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ConfirmSchedule godoc
// @Summary Persist the session's schedule asynchronously
// @Description Enqueues the ledger snapshot for storage; incomplete students come back as warnings.
// @Tags Booking
// @Produce json
// @Param id path string true "Session ID"
// @Success 202 {object} response.Envelope
// @Router /booking/sessions/{id}/confirm [post]
func (h *BookingHandler) ConfirmSchedule(c *gin.Context) {
	resp, err := h.service.ConfirmSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, resp)
}

func (h *BookingHandler) respondWithState(c *gin.Context) {
	state, err := h.service.GetSession(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

func parseSlotFilter(c *gin.Context) (models.SlotFilter, error) {
	filter := models.SlotFilter{
		OnlyAvailable: c.Query("onlyAvailable") == "true",
	}
	if raw := c.Query("minQuota"); raw != "" {
		minQuota, err := strconv.Atoi(raw)
		if err != nil || minQuota < 0 {
			return filter, appErrors.Clone(appErrors.ErrValidation, "minQuota must be a non-negative integer")
		}
		filter.MinQuota = minQuota
	}
	if raw := c.Query("weekStart"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.WeekStart = &parsed
	}
	if raw := c.Query("day"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.From = &parsed
		filter.To = &parsed
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "dates must use the YYYY-MM-DD format")
	}
	return parsed, nil
}
