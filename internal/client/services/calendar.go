package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/storage"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

// CalendarService stores dated events per user. Each user's calendar is
// one JSON document under common.EventsStorageKey(userID), rewritten whole
// on every change.
type CalendarService struct {
	kv     storage.Storage
	logger logging.Logger
	now    func() time.Time
}

func NewCalendarService(kv storage.Storage, logger logging.Logger) *CalendarService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CalendarService{kv: kv, logger: logger, now: time.Now}
}

// Add appends an event to date (YYYY-MM-DD). The title is required.
func (c *CalendarService) Add(ctx context.Context, userID, date, title, description string) (*models.Event, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: no user", common.ErrValidation)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", common.ErrValidation)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}

	cal, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	ev := models.Event{Title: title, Description: description, Created: c.now().UTC()}
	cal[date] = append(cal[date], ev)

	b, err := json.Marshal(cal)
	if err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	if err := c.kv.Set(ctx, common.EventsStorageKey(userID), b); err != nil {
		return nil, fmt.Errorf("failed to persist calendar: %w", err)
	}

	c.logger.Info(ctx, "event added", "user_id", userID, "date", date)
	return &ev, nil
}

// ForDate returns the events of one day in insertion order.
func (c *CalendarService) ForDate(ctx context.Context, userID, date string) ([]models.Event, error) {
	cal, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(cal[date])
	if out == nil {
		out = []models.Event{}
	}
	return out, nil
}

// Dates returns the days that have at least one event, ascending.
func (c *CalendarService) Dates(ctx context.Context, userID string) ([]string, error) {
	cal, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(cal))
	for d, evs := range cal {
		if len(evs) > 0 {
			dates = append(dates, d)
		}
	}
	slices.Sort(dates)
	return dates, nil
}

// Count returns the total number of events of the user.
func (c *CalendarService) Count(ctx context.Context, userID string) (int, error) {
	cal, err := c.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, evs := range cal {
		n += len(evs)
	}
	return n, nil
}

func (c *CalendarService) load(ctx context.Context, userID string) (models.Calendar, error) {
	raw, err := c.kv.Get(ctx, common.EventsStorageKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar: %w", err)
	}
	cal := models.Calendar{}
	if len(raw) == 0 {
		return cal, nil
	}
	if err := json.Unmarshal(raw, &cal); err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}
	if cal == nil {
		cal = models.Calendar{}
	}
	return cal, nil
}
