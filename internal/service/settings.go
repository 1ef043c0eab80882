package service

import (
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
)

// Settings replaces ambient defaults; it is passed to every service explicitly.
type Settings struct {
	DefaultPriority   domain.Priority
	DefaultCategory   string
	DefaultRecurrence domain.Recurrence
	// Location decides which calendar day "today" is.
	Location     *time.Location
	MaxRangeDays int
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func DefaultSettings() Settings {
	return Settings{
		DefaultPriority:   domain.PriorityMedium,
		DefaultCategory:   "general",
		DefaultRecurrence: domain.RecurrenceNone,
		Location:          time.UTC,
		MaxRangeDays:      366,
	}
}

// normalized fills zero fields with defaults.
func (s Settings) normalized() Settings {
	def := DefaultSettings()
	if !s.DefaultPriority.Valid() {
		s.DefaultPriority = def.DefaultPriority
	}
	if !domain.ValidCategory(s.DefaultCategory) {
		s.DefaultCategory = def.DefaultCategory
	}
	if !s.DefaultRecurrence.Valid() {
		s.DefaultRecurrence = def.DefaultRecurrence
	}
	if s.Location == nil {
		s.Location = def.Location
	}
	if s.MaxRangeDays <= 0 {
		s.MaxRangeDays = def.MaxRangeDays
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

func (s Settings) Today() time.Time {
	return occurrence.Today(s.Now(), s.Location)
}
