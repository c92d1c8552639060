// ABOUTME: Converts Garmin FIT activity files into activity records
// ABOUTME: Each session in the file becomes one day entry

package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/basetype"
	"github.com/muktihari/fit/profile/filedef"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"

	"github.com/Vladimir-28/FitLife/internal/store"
)

// ErrNoSessions means the FIT file decoded but held no session summaries.
var ErrNoSessions = errors.New("fit file has no sessions")

var weekdayNames = [...]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

// maxZoneOffset bounds the offset derived from an activity's local timestamp.
const maxZoneOffset = 14 * time.Hour

// ParseFIT decodes r and summarizes every session it contains. Chained FIT
// files are read to the end.
func ParseFIT(r io.Reader) ([]Fields, error) {
	dec := decoder.New(r)

	var out []Fields
	for dec.Next() {
		fit, err := dec.Decode()
		if err != nil {
			return nil, fmt.Errorf("decoding fit: %w", err)
		}
		act := filedef.NewActivity(fit.Messages...)
		loc := activityZone(act.Activity)
		for _, ses := range act.Sessions {
			out = append(out, summarizeSession(ses, loc))
		}
	}

	if len(out) == 0 {
		return nil, ErrNoSessions
	}
	return out, nil
}

// Import stores one activity per FIT session, attached to owner when set.
func (s *Service) Import(ctx context.Context, r io.Reader, owner *int64) ([]*store.Activity, error) {
	sessions, err := ParseFIT(r)
	if errors.Is(err, ErrNoSessions) {
		return nil, &ValidationError{Message: MsgEmptyFIT}
	}
	if err != nil {
		s.logger.Debug("rejected fit upload", "error", err)
		return nil, &ValidationError{Message: MsgInvalidFIT}
	}

	// Every session is validated before anything is written, and the rows
	// go in as one transaction.
	activities := make([]*store.Activity, 0, len(sessions))
	for _, f := range sessions {
		a, err := newActivity(f, owner)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := s.store.CreateActivities(ctx, activities); err != nil {
		return nil, fmt.Errorf("storing imported activities: %w", err)
	}

	s.logger.Info("imported fit file", "sessions", len(activities))
	return activities, nil
}

// activityZone derives the recording device's UTC offset from the activity
// message. Files without a usable local timestamp are read as UTC.
func activityZone(a *mesgdef.Activity) *time.Location {
	if a == nil || a.Timestamp.IsZero() || a.LocalTimestamp.IsZero() {
		return time.UTC
	}
	offset := a.LocalTimestamp.Sub(a.Timestamp).Round(time.Minute)
	if offset == 0 || offset > maxZoneOffset || offset < -maxZoneOffset {
		return time.UTC
	}
	return time.FixedZone("", int(offset/time.Second))
}

// summarizeSession maps a session summary onto activity fields. Distance is
// stored by FIT in centimetres and timer time in milliseconds. The weekday is
// taken in loc.
func summarizeSession(ses *mesgdef.Session, loc *time.Location) Fields {
	start := ses.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	day := weekdayNames[start.In(loc).Weekday()]

	steps := 0
	if ses.TotalCycles != basetype.Uint32Invalid {
		steps = int(ses.TotalCycles)
		// Running and walking sessions count strides, two steps each.
		if ses.Sport == typedef.SportRunning || ses.Sport == typedef.SportWalking {
			steps *= 2
		}
	}

	distanceKm := 0.0
	if ses.TotalDistance != basetype.Uint32Invalid {
		distanceKm = math.Round(float64(ses.TotalDistance)/1000) / 100
	}

	var active time.Duration
	if ses.TotalTimerTime != basetype.Uint32Invalid {
		active = time.Duration(ses.TotalTimerTime) * time.Millisecond
	}
	activeTime := FormatActiveTime(active)

	return Fields{
		Day:        &day,
		Steps:      &steps,
		DistanceKm: &distanceKm,
		ActiveTime: &activeTime,
	}
}

// FormatActiveTime renders d the way the mobile client does: "45m" or "1h 10m".
func FormatActiveTime(d time.Duration) string {
	total := int(d.Round(time.Minute) / time.Minute)
	h, m := total/60, total%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
