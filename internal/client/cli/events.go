package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
)

// nowFn is a test seam for the default event date.
var nowFn = time.Now

// Events lists the dates with events, or the events of one date.
func (a *App) Events(ctx context.Context) error {
	u, ok := a.currentUser()
	if !ok {
		printlnFn(loginHint)
		return nil
	}

	date, err := getSimpleText(a.reader, "Date (YYYY-MM-DD, empty for all)", a.out)
	if err != nil {
		return err
	}

	if date == "" {
		dates, err := a.calendar.Dates(ctx, u.ID)
		if err != nil {
			a.report(ctx, "events", err)
			return err
		}
		if len(dates) == 0 {
			printlnFn("No events")
			return nil
		}
		for _, d := range dates {
			evs, err := a.calendar.ForDate(ctx, u.ID, d)
			if err != nil {
				a.report(ctx, "events", err)
				return err
			}
			printlnFn(fmt.Sprintf("%s  %d event(s)", d, len(evs)))
		}
		return nil
	}

	evs, err := a.calendar.ForDate(ctx, u.ID, date)
	if err != nil {
		a.report(ctx, "events", err)
		return err
	}
	if len(evs) == 0 {
		printlnFn("No events on", date)
		return nil
	}
	for i, ev := range evs {
		line := fmt.Sprintf("%d. %s", i+1, ev.Title)
		if ev.Description != "" {
			line += " - " + ev.Description
		}
		printlnFn(line)
	}
	return nil
}

// AddEvent adds an event for the signed-in user; the date defaults to today.
func (a *App) AddEvent(ctx context.Context) error {
	u, ok := a.currentUser()
	if !ok {
		printlnFn(loginHint)
		return nil
	}

	today := nowFn().Format(models.DateLayout)
	date, err := getSimpleText(a.reader, fmt.Sprintf("Date [%s]", today), a.out)
	if err != nil {
		return err
	}
	if date == "" {
		date = today
	}
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return err
	}

	if _, err := a.calendar.Add(ctx, u.ID, date, title, description); err != nil {
		a.report(ctx, "addevent", err)
		return err
	}
	printlnFn("Event added on", date)
	return nil
}
