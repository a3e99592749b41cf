package service

import (
	"context"
	"time"

	apperrors "fluxor/pkg/errors"
)

// Working day grid: half-hour slots from 08:00 up to (not including) 18:00.
const (
	dayStartHour = 8
	dayEndHour   = 18
	slotInterval = 30 * time.Minute
)

// Availability lists the free slots for a professional on a given day. A
// slot is taken only when an active appointment starts at exactly that
// timestamp; appointments longer than one slot do not shadow later slots.
func (s *appointmentService) Availability(ctx context.Context, professionalID, date string) ([]string, error) {
	if professionalID == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}
	if _, err := s.professionalsRepo.FindByID(ctx, professionalID); err != nil {
		return nil, apperrors.NotFoundWithID("Professional", professionalID)
	}

	parsed, err := s.normalizer.ParseLocal(date)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid date format, expected YYYY-MM-DD")
	}
	day := s.normalizer.Strip(parsed)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	booked, err := s.repo.FindActiveBetween(ctx, professionalID, dayStart, dayEnd)
	if err != nil {
		s.cfg.Log.Error("Failed to load appointments for availability", "professional_id", professionalID, "error", err)
		return nil, apperrors.Internal("Failed to compute availability", err)
	}

	taken := make(map[time.Time]bool, len(booked))
	for _, a := range booked {
		taken[a.DateTime] = true
	}

	slots := make([]string, 0, (dayEndHour-dayStartHour)*2)
	for slot := dayStart.Add(dayStartHour * time.Hour); slot.Hour() < dayEndHour; slot = slot.Add(slotInterval) {
		if !taken[slot] {
			slots = append(slots, s.normalizer.FormatISO(slot))
		}
	}
	return slots, nil
}
