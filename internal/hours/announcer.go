package hours

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"dealer-support-chat/internal/service/inquiry"
)

const EventBusinessHoursChanged = "business_hours_changed"

type ChangedPayload struct {
	IsBusinessHours bool      `json:"isBusinessHours"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
}

// Announcer tells agent dashboards when the dealership opens and closes.
type Announcer struct {
	calendar *Calendar
	notifier inquiry.Notifier
	cron     *cron.Cron
	now      func() time.Time
	log      zerolog.Logger
}

func NewAnnouncer(calendar *Calendar, notifier inquiry.Notifier, log zerolog.Logger) (*Announcer, error) {
	a := &Announcer{
		calendar: calendar,
		notifier: notifier,
		cron:     cron.New(cron.WithLocation(calendar.Location())),
		now:      time.Now,
		log:      log,
	}

	specs := []string{
		fmt.Sprintf("0 %d * * 1-5", OpenHour),
		fmt.Sprintf("0 %d * * 1-5", CloseHour),
	}
	for _, spec := range specs {
		if _, err := a.cron.AddFunc(spec, a.fire); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", spec, err)
		}
	}
	return a, nil
}

func (a *Announcer) Start() {
	a.cron.Start()
	a.log.Info().
		Str("location", a.calendar.Location().String()).
		Msg("business hours announcer started")
}

// Stop waits for a running announcement to finish.
func (a *Announcer) Stop() {
	<-a.cron.Stop().Done()
}

func (a *Announcer) fire() {
	a.announce(context.Background(), a.now())
}

func (a *Announcer) announce(ctx context.Context, now time.Time) {
	status := a.calendar.Status(now)
	payload := ChangedPayload{
		IsBusinessHours: status.IsBusinessHours,
		Message:         status.Message,
		Timestamp:       now.UTC(),
	}
	if err := a.notifier.Publish(ctx, inquiry.GlobalRoom, EventBusinessHoursChanged, payload); err != nil {
		a.log.Warn().Err(err).Msg("business hours announcement failed")
		return
	}
	a.log.Info().Bool("open", status.IsBusinessHours).Msg("business hours changed")
}
