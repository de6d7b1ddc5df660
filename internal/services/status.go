package services

import (
	"fmt"

	"waste_tracker/internal/models"
)

var transitions = map[models.MissionStatus][]models.MissionStatus{
	models.MissionDraft:     {models.MissionDraft, models.MissionCompleted, models.MissionValidated},
	models.MissionCompleted: {models.MissionCompleted, models.MissionValidated, models.MissionDraft},
	models.MissionValidated: {models.MissionValidated},
}

// Transition checks that a mission may move from one status to another through
// a regular update. Leaving validated goes through MissionService.Unvalidate.
func Transition(from, to models.MissionStatus) error {
	allowed, ok := transitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func parseStatus(s string) (models.MissionStatus, error) {
	switch st := models.MissionStatus(s); st {
	case models.MissionDraft, models.MissionCompleted, models.MissionValidated:
		return st, nil
	}
	return "", invalid("status", "unknown status %q", s)
}
