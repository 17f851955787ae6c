package service

import (
	"agenda/cmd/internal/ics"
	"agenda/cmd/internal/scheduling"
	"agenda/cmd/internal/utils"
	"agenda/cmd/internal/utils/apierror"
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type Scheduler interface {
	Create(ctx context.Context, owner string, in scheduling.CreateInput) (*scheduling.Appointment, error)
	Update(ctx context.Context, owner, id string, in scheduling.UpdateInput) (*scheduling.Appointment, error)
	Delete(ctx context.Context, owner, id string) error
	Get(ctx context.Context, owner, id string) (*scheduling.Appointment, error)
	List(ctx context.Context, owner string) ([]*scheduling.Appointment, error)
	ListBetween(ctx context.Context, owner string, window scheduling.TimeRange) ([]*scheduling.Appointment, error)
}

type CreateAppointmentRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	StartTime   string `json:"start_time" validate:"required,iso8601"`
	EndTime     string `json:"end_time" validate:"required,iso8601"`
	Location    string `json:"location"`
	IsRecurring bool   `json:"is_recurring"`
	Frequency   string `json:"frequency" validate:"omitempty,oneof=daily weekly"`
	RepeatUntil string `json:"repeat_until" validate:"omitempty,isodate"`
}

type UpdateAppointmentRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	StartTime   string `json:"start_time" validate:"required,iso8601"`
	EndTime     string `json:"end_time" validate:"required,iso8601"`
	Location    string `json:"location"`
}

type AppointmentResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location,omitempty"`
	IsRecurring bool   `json:"is_recurring"`
	Frequency   string `json:"frequency,omitempty"`
	RepeatUntil string `json:"repeat_until,omitempty"`
	SeriesID    string `json:"series_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type ScheduledDay struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	BeginsAt string `json:"begins_at"`
	EndsAt   string `json:"ends_at"`
}

type CalendarResponse struct {
	ScheduledDays []*ScheduledDay `json:"scheduled_days"`
}

type DefaultAppointmentService struct {
	Scheduler Scheduler
	Validate  *validator.Validate
}

func NewAppointmentService(scheduler Scheduler, validate *validator.Validate) *DefaultAppointmentService {
	return &DefaultAppointmentService{Scheduler: scheduler, Validate: validate}
}

func (a *DefaultAppointmentService) GetAppointments(ctx context.Context, owner string) ([]*AppointmentResponse, apierror.ErrorResponse) {
	appts, err := a.Scheduler.List(ctx, owner)
	if err != nil {
		return nil, toAPIError(err, "list appointments", owner)
	}

	response := make([]*AppointmentResponse, len(appts))
	for i, appt := range appts {
		response[i] = toAppointmentResponse(appt)
	}
	return response, nil
}

func (a *DefaultAppointmentService) GetAppointment(ctx context.Context, id, owner string) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, err := a.Scheduler.Get(ctx, owner, id)
	if err != nil {
		return nil, toAPIError(err, "get appointment "+id, owner)
	}
	return toAppointmentResponse(appt), nil
}

func (a *DefaultAppointmentService) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest, owner string) (*AppointmentResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	start, end, apierr := parseRange(req.StartTime, req.EndTime)
	if apierr != nil {
		return nil, apierr
	}

	in := scheduling.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start:       start,
		End:         end,
		IsRecurring: req.IsRecurring,
	}

	if req.IsRecurring {
		if req.Frequency == "" {
			return nil, apierror.NewMissingParamError("frequency")
		}
		if req.RepeatUntil == "" {
			return nil, apierror.NewMissingParamError("repeat_until")
		}
		until, err := utils.ParseDate(req.RepeatUntil)
		if err != nil {
			return nil, apierror.MalformedBodyError
		}
		in.Recurrence = &scheduling.Recurrence{
			Frequency:   scheduling.Frequency(req.Frequency),
			RepeatUntil: until,
		}
		if in.Recurrence.Frequency != scheduling.FrequencyDaily {
			log.Warnf("no expansion rule for %s recurrence, storing the first occurrence only (owner %s)", req.Frequency, owner)
		}
	}

	appt, err := a.Scheduler.Create(ctx, owner, in)
	if err != nil {
		return nil, toAPIError(err, "create appointment", owner)
	}
	return toAppointmentResponse(appt), nil
}

func (a *DefaultAppointmentService) UpdateAppointment(ctx context.Context, id string, req *UpdateAppointmentRequest, owner string) (*AppointmentResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	start, end, apierr := parseRange(req.StartTime, req.EndTime)
	if apierr != nil {
		return nil, apierr
	}

	appt, err := a.Scheduler.Update(ctx, owner, id, scheduling.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return nil, toAPIError(err, "update appointment "+id, owner)
	}
	return toAppointmentResponse(appt), nil
}

func (a *DefaultAppointmentService) DeleteAppointment(ctx context.Context, id, owner string) apierror.ErrorResponse {
	if err := a.Scheduler.Delete(ctx, owner, id); err != nil {
		return toAPIError(err, "delete appointment "+id, owner)
	}
	return nil
}

func (a *DefaultAppointmentService) GetCalendar(ctx context.Context, owner string, monthStart, monthEnd time.Time) (*CalendarResponse, apierror.ErrorResponse) {
	window, err := scheduling.NewTimeRange(monthStart, monthEnd)
	if err != nil {
		return nil, apierror.InvalidRangeError
	}

	appts, err := a.Scheduler.ListBetween(ctx, owner, window)
	if err != nil {
		return nil, toAPIError(err, "fetch calendar", owner)
	}

	schedDays := make([]*ScheduledDay, len(appts))
	for i, appt := range appts {
		schedDays[i] = toScheduledDay(appt)
	}

	calendar := &CalendarResponse{
		ScheduledDays: schedDays,
	}
	return calendar, nil
}

// ExportCalendar renders all of owner's appointments as iCalendar text.
func (a *DefaultAppointmentService) ExportCalendar(ctx context.Context, owner string) (string, apierror.ErrorResponse) {
	appts, err := a.Scheduler.List(ctx, owner)
	if err != nil {
		return "", toAPIError(err, "export calendar", owner)
	}
	return ics.Export(appts), nil
}

func parseRange(rawStart, rawEnd string) (time.Time, time.Time, apierror.ErrorResponse) {
	start, err := utils.ParseTime(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, apierror.MalformedBodyError
	}
	end, err := utils.ParseTime(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, apierror.MalformedBodyError
	}
	return start, end, nil
}

func toAPIError(err error, op, owner string) apierror.ErrorResponse {
	switch {
	case errors.Is(err, scheduling.ErrInvalidRange):
		return apierror.InvalidRangeError
	case errors.Is(err, scheduling.ErrInvalidRecurrence):
		return apierror.InvalidRecurrenceError
	case errors.Is(err, scheduling.ErrRecurrenceTooLong):
		return apierror.RecurrenceTooLongError
	case errors.Is(err, scheduling.ErrOverlapConflict):
		return apierror.OverlapConflictError
	case errors.Is(err, scheduling.ErrNotFound):
		return apierror.NotFoundError
	}

	var perr *scheduling.PersistenceError
	if errors.As(err, &perr) && perr.Written > 0 {
		log.Errorf("failed to %s for user %s after %d records were stored: %v", op, owner, perr.Written, err)
		return apierror.InternalServerError
	}
	log.Errorf("failed to %s for user %s: %v", op, owner, err)
	return apierror.InternalServerError
}

func toScheduledDay(appt *scheduling.Appointment) *ScheduledDay {
	return &ScheduledDay{
		ID:       appt.ID,
		Title:    appt.Title,
		BeginsAt: utils.FormatTime(appt.Range.Start()),
		EndsAt:   utils.FormatTime(appt.Range.End()),
	}
}

func toAppointmentResponse(appt *scheduling.Appointment) *AppointmentResponse {
	resp := &AppointmentResponse{
		ID:          appt.ID,
		Title:       appt.Title,
		Description: appt.Description,
		Location:    appt.Location,
		StartTime:   utils.FormatTime(appt.Range.Start()),
		EndTime:     utils.FormatTime(appt.Range.End()),
		IsRecurring: appt.IsRecurring,
		SeriesID:    appt.SeriesID,
		CreatedAt:   utils.FormatTime(appt.CreatedAt),
		UpdatedAt:   utils.FormatTime(appt.UpdatedAt),
	}
	if appt.Recurrence != nil {
		resp.Frequency = string(appt.Recurrence.Frequency)
		resp.RepeatUntil = appt.Recurrence.RepeatUntil.Format(utils.DateLayout)
	}
	return resp
}
