package hours

import (
	"time"

	"github.com/rickar/cal/v2"
)

const (
	OpenHour  = 9
	CloseHour = 17

	openMessage   = "We're open! Our team is available to chat."
	closedMessage = "We're currently closed. Our hours are Monday to Friday, 9:00 AM to 5:00 PM. Leave us a message and we'll get back to you."
)

// Status is the answer to "are we open right now".
type Status struct {
	IsBusinessHours bool
	CurrentTime     time.Time
	Message         string
}

// Calendar decides whether a moment falls inside dealership opening hours
// (Monday to Friday, 09:00 to 17:00 in loc).
type Calendar struct {
	cal *cal.BusinessCalendar
	loc *time.Location
}

func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	bc := cal.NewBusinessCalendar()
	bc.SetWorkHours(OpenHour*time.Hour, CloseHour*time.Hour)
	return &Calendar{cal: bc, loc: loc}
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsOpen reports whether t falls in [09:00, 17:00) on a workday; 17:00 itself
// is closed.
func (c *Calendar) IsOpen(t time.Time) bool {
	local := t.In(c.loc)
	return c.cal.IsWorkTime(local) && local.Hour() < CloseHour
}

func (c *Calendar) Status(now time.Time) Status {
	local := now.In(c.loc)
	open := c.IsOpen(local)
	msg := closedMessage
	if open {
		msg = openMessage
	}
	return Status{
		IsBusinessHours: open,
		CurrentTime:     local,
		Message:         msg,
	}
}
