package service

import (
	"time"

	"github.com/postcaldev/postcal/internal/apperrors"
)

// Scheduled times arrive without a zone and are interpreted as UTC, the
// system's canonical timezone. Display conversion is the UI's problem.
const scheduledTimeLayout = "2006-01-02T15:04"

func parseScheduledTime(raw string) (time.Time, error) {
	t, err := time.Parse(scheduledTimeLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.Validationf("invalid scheduled time format: %v", err)
	}
	return t, nil
}

func pageWindow(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
