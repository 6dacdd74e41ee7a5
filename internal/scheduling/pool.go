// Package scheduling implements the slot booking core: the slot pool, the
// per-student booking ledger, the booking engine that moves capacity between
// the two, and the interactive session that drives the engine from discrete
// UI events. The package holds state in memory and performs no I/O; callers
// seed it once per session and serialise access to a given session.
package scheduling

import (
	"sort"
	"time"

	"github.com/noah-isme/sma-booking-api/internal/models"
	appErrors "github.com/noah-isme/sma-booking-api/pkg/errors"
)

// SlotPool holds the authoritative list of bookable time slots and answers
// availability queries. Quotas are mutated exclusively through AdjustQuota,
// which only the booking engine calls.
type SlotPool struct {
	slots map[string]*models.TimeSlot
	order []string
}

// NewSlotPool seeds a pool from the provided slots, ordered by date and
// start time. Input quotas are normalised: a negative or missing remaining
// quota becomes the total quota.
func NewSlotPool(slots []models.TimeSlot) *SlotPool {
	p := &SlotPool{slots: make(map[string]*models.TimeSlot, len(slots))}
	for i := range slots {
		slot := slots[i]
		if slot.RemainingQuota < 0 || slot.RemainingQuota > slot.TotalQuota {
			slot.RemainingQuota = slot.TotalQuota
		}
		if _, exists := p.slots[slot.ID]; exists {
			continue
		}
		p.slots[slot.ID] = &slot
		p.order = append(p.order, slot.ID)
	}
	sort.SliceStable(p.order, func(i, j int) bool {
		a, b := p.slots[p.order[i]], p.slots[p.order[j]]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.StartTime < b.StartTime
	})
	return p
}

// Len returns the number of slots in the pool.
func (p *SlotPool) Len() int {
	return len(p.slots)
}

// Get returns a copy of the slot with the given id.
func (p *SlotPool) Get(id string) (models.TimeSlot, error) {
	slot, ok := p.slots[id]
	if !ok {
		return models.TimeSlot{}, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}
	return copySlot(slot), nil
}

// List returns copies of the slots matching the filter, in date/time order.
func (p *SlotPool) List(filter models.SlotFilter) []models.TimeSlot {
	result := make([]models.TimeSlot, 0, len(p.order))
	for _, id := range p.order {
		slot := p.slots[id]
		if !matchesFilter(slot, filter) {
			continue
		}
		result = append(result, copySlot(slot))
	}
	return result
}

// copySlot detaches the teacher slice so callers cannot reach pool state
// through a returned copy.
func copySlot(slot *models.TimeSlot) models.TimeSlot {
	out := *slot
	out.EligibleTeachers = append([]models.SlotTeacher(nil), slot.EligibleTeachers...)
	return out
}

// AdjustQuota applies a delta to the slot's remaining quota and returns the
// new value. The result must stay within [0, TotalQuota].
func (p *SlotPool) AdjustQuota(id string, delta int) (int, error) {
	slot, ok := p.slots[id]
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}
	next := slot.RemainingQuota + delta
	if next < 0 {
		return slot.RemainingQuota, appErrors.Clone(appErrors.ErrQuota, "remaining quota cannot go negative")
	}
	if next > slot.TotalQuota {
		return slot.RemainingQuota, appErrors.Clone(appErrors.ErrQuota, "remaining quota cannot exceed total quota")
	}
	slot.RemainingQuota = next
	return next, nil
}

func matchesFilter(slot *models.TimeSlot, filter models.SlotFilter) bool {
	if filter.From != nil && slot.Date.Before(dayStart(*filter.From)) {
		return false
	}
	if filter.To != nil && !slot.Date.Before(dayStart(*filter.To).AddDate(0, 0, 1)) {
		return false
	}
	if filter.WeekStart != nil {
		start := dayStart(*filter.WeekStart)
		end := start.AddDate(0, 0, 7)
		if slot.Date.Before(start) || !slot.Date.Before(end) {
			return false
		}
	}
	if filter.OnlyAvailable && slot.RemainingQuota <= 0 {
		return false
	}
	if filter.MinQuota > 0 && slot.RemainingQuota < filter.MinQuota {
		return false
	}
	return true
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
