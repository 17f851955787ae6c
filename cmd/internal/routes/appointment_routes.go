package routes

import (
	"agenda/cmd/internal/auth"
	"agenda/cmd/internal/service"
	"agenda/cmd/internal/utils/apierror"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type AppointmentService interface {
	GetAppointments(ctx context.Context, owner string) ([]*service.AppointmentResponse, apierror.ErrorResponse)
	GetAppointment(ctx context.Context, id, owner string) (*service.AppointmentResponse, apierror.ErrorResponse)
	CreateAppointment(ctx context.Context, req *service.CreateAppointmentRequest, owner string) (*service.AppointmentResponse, apierror.ErrorResponse)
	UpdateAppointment(ctx context.Context, id string, req *service.UpdateAppointmentRequest, owner string) (*service.AppointmentResponse, apierror.ErrorResponse)
	DeleteAppointment(ctx context.Context, id, owner string) apierror.ErrorResponse
	GetCalendar(ctx context.Context, owner string, monthStart, monthEnd time.Time) (*service.CalendarResponse, apierror.ErrorResponse)
	ExportCalendar(ctx context.Context, owner string) (string, apierror.ErrorResponse)
}

type DefaultAppointmentRoute struct {
	AppointmentService AppointmentService
}

func NewAppointmentDefault(apptService AppointmentService) *DefaultAppointmentRoute {
	return &DefaultAppointmentRoute{AppointmentService: apptService}
}

// Register mounts the appointment endpoints on g, which must already be
// behind auth.Middleware.
func (a *DefaultAppointmentRoute) Register(g *echo.Group) {
	g.GET("/appointments", a.GetAppointments)
	g.GET("/appointments/:id", a.GetAppointment)
	g.POST("/appointments", a.CreateAppointment)
	g.PUT("/appointments/:id", a.UpdateAppointment)
	g.DELETE("/appointments/:id", a.DeleteAppointment)

	// Pseudo-entity "Calendar" for the month view and the iCalendar feed
	g.GET("/calendar", a.GetCalendar)
	g.GET("/calendar.ics", a.ExportCalendar)
}

func (a *DefaultAppointmentRoute) GetAppointments(c echo.Context) error {
	session, err := auth.SessionFromCtx(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	appts, apierr := a.AppointmentService.GetAppointments(c.Request().Context(), session.Owner)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"appointments": appts}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAppointmentRoute) GetAppointment(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	session, err := auth.SessionFromCtx(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	appt, apierr := a.AppointmentService.GetAppointment(c.Request().Context(), id, session.Owner)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) CreateAppointment(c echo.Context) error {
	var req service.CreateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	session, err := auth.SessionFromCtx(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	appt, apierr := a.AppointmentService.CreateAppointment(c.Request().Context(), &req, session.Owner)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (a *DefaultAppointmentRoute) UpdateAppointment(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	var req service.UpdateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	session, err := auth.SessionFromCtx(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	appt, apierr := a.AppointmentService.UpdateAppointment(c.Request().Context(), id, &req, session.Owner)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) DeleteAppointment(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	session, err := auth.SessionFromCtx(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	serr := a.AppointmentService.DeleteAppointment(c.Request().Context(), id, session.Owner)
	if serr != nil {
		return c.JSON(serr.Code(), serr)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Appointment deleted successfully"})
}

func (a *DefaultAppointmentRoute) GetCalendar(c echo.Context) error {
	monthStr := c.QueryParam("month") // "2025-08"
	if monthStr == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("month"))
	}

	monthStart, monthEnd, err := parseMonthString(monthStr)
	if err != nil {
		apierr := apierror.NewSimple(http.StatusBadRequest, "Could not understand month format")
		return c.JSON(apierr.Code(), apierr)
	}

	session, err := auth.SessionFromCtx(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	calendar, apierr := a.AppointmentService.GetCalendar(c.Request().Context(), session.Owner, monthStart, monthEnd)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, &calendar)
}

func (a *DefaultAppointmentRoute) ExportCalendar(c echo.Context) error {
	session, err := auth.SessionFromCtx(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	body, apierr := a.AppointmentService.ExportCalendar(c.Request().Context(), session.Owner)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="appointments.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// parseMonthString takes "YYYY-MM" (e.g., "2025-08") and returns
// the start of that month and the start of the next month, in UTC.
func parseMonthString(monthString string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", monthString)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid month format, expected YYYY-MM")
	}

	monthStart := t.UTC() // Ensure UTC always
	monthEnd := monthStart.AddDate(0, 1, 0)
	return monthStart, monthEnd, nil
}
