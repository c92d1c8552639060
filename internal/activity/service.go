// ABOUTME: Validation and ownership rules for daily activity records
// ABOUTME: Wraps the activity store for list, create, partial update and delete

package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Vladimir-28/FitLife/internal/store"
)

const (
	maxDayLength        = 20
	maxActiveTimeLength = 20
)

// User-facing messages
const (
	MsgMissingFields     = "Faltan campos requeridos"
	MsgNotFound          = "Actividad no encontrada"
	MsgDayRequired       = "El día es requerido"
	MsgDayTooLong        = "El día no puede superar 20 caracteres"
	MsgActiveTimeTooLong = "El tiempo activo no puede superar 20 caracteres"
	MsgNegativeSteps     = "Los pasos no pueden ser negativos"
	MsgInvalidDistance   = "La distancia debe ser un número no negativo"
	MsgInvalidFIT        = "Archivo FIT inválido"
	MsgEmptyFIT          = "El archivo FIT no contiene sesiones"
)

// ErrNotFound is returned when the activity id does not exist
var ErrNotFound = errors.New("activity not found")

// ValidationError describes a rejected field value
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Fields holds activity values as supplied by a client. A nil field was
// absent from the request.
type Fields struct {
	Day        *string
	Steps      *int
	DistanceKm *float64
	ActiveTime *string
}

// Service validates and persists activities
type Service struct {
	store  store.ActivityStore
	logger *slog.Logger
}

// NewService creates an activity Service
func NewService(st store.ActivityStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger.With("component", "activity")}
}

// List returns every activity, or only owner's when owner is set.
func (s *Service) List(ctx context.Context, owner *int64) ([]*store.Activity, error) {
	activities, err := s.store.ListActivities(ctx, store.ActivityFilter{UserID: owner})
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	return activities, nil
}

// Get returns the activity with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*store.Activity, error) {
	a, err := s.store.GetActivity(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting activity %d: %w", id, err)
	}
	return a, nil
}

// Create stores a new activity. All four fields are required.
func (s *Service) Create(ctx context.Context, f Fields, owner *int64) (*store.Activity, error) {
	a, err := newActivity(f, owner)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("creating activity: %w", err)
	}
	return a, nil
}

// Update overwrites only the fields present in f.
func (s *Service) Update(ctx context.Context, id int64, f Fields) (*store.Activity, error) {
	f = normalize(f)
	if err := validate(f); err != nil {
		return nil, err
	}

	a, err := s.store.UpdateActivity(ctx, id, store.ActivityPatch{
		Day:        f.Day,
		Steps:      f.Steps,
		DistanceKm: f.DistanceKm,
		ActiveTime: f.ActiveTime,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating activity %d: %w", id, err)
	}
	return a, nil
}

// Delete removes the activity with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.DeleteActivity(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting activity %d: %w", id, err)
	}
	s.logger.Debug("deleted activity", "id", id)
	return nil
}

// newActivity validates a complete set of fields and builds the record to insert.
func newActivity(f Fields, owner *int64) (*store.Activity, error) {
	if f.Day == nil || f.Steps == nil || f.DistanceKm == nil || f.ActiveTime == nil {
		return nil, &ValidationError{Message: MsgMissingFields}
	}
	f = normalize(f)
	if err := validate(f); err != nil {
		return nil, err
	}
	return &store.Activity{
		Day:        *f.Day,
		Steps:      *f.Steps,
		DistanceKm: *f.DistanceKm,
		ActiveTime: *f.ActiveTime,
		UserID:     owner,
	}, nil
}

func normalize(f Fields) Fields {
	if f.Day != nil {
		day := strings.TrimSpace(*f.Day)
		f.Day = &day
	}
	if f.ActiveTime != nil {
		at := strings.TrimSpace(*f.ActiveTime)
		f.ActiveTime = &at
	}
	return f
}

// validate checks the fields that are present.
func validate(f Fields) error {
	if f.Day != nil {
		if *f.Day == "" {
			return &ValidationError{Message: MsgDayRequired}
		}
		if utf8.RuneCountInString(*f.Day) > maxDayLength {
			return &ValidationError{Message: MsgDayTooLong}
		}
	}
	if f.Steps != nil && *f.Steps < 0 {
		return &ValidationError{Message: MsgNegativeSteps}
	}
	if f.DistanceKm != nil {
		d := *f.DistanceKm
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return &ValidationError{Message: MsgInvalidDistance}
		}
	}
	if f.ActiveTime != nil && utf8.RuneCountInString(*f.ActiveTime) > maxActiveTimeLength {
		return &ValidationError{Message: MsgActiveTimeTooLong}
	}
	return nil
}
