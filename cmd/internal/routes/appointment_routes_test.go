package routes

import (
	"agenda/cmd/internal/auth"
	"agenda/cmd/internal/service"
	"agenda/cmd/internal/utils/apierror"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type staticVerifier struct{}

func (staticVerifier) Verify(_ context.Context, token string) (string, error) {
	if token != "good" {
		return "", auth.ErrUnauthenticated
	}
	return "user-1", nil
}

type fakeService struct {
	owner      string
	created    *service.CreateAppointmentRequest
	updatedID  string
	deletedID  string
	monthStart time.Time
	monthEnd   time.Time
	err        apierror.ErrorResponse
}

func (f *fakeService) GetAppointments(_ context.Context, owner string) ([]*service.AppointmentResponse, apierror.ErrorResponse) {
	f.owner = owner
	if f.err != nil {
		return nil, f.err
	}
	return []*service.AppointmentResponse{{ID: "a1", Title: "Standup"}}, nil
}

func (f *fakeService) GetAppointment(_ context.Context, id, owner string) (*service.AppointmentResponse, apierror.ErrorResponse) {
	f.owner = owner
	if f.err != nil {
		return nil, f.err
	}
	return &service.AppointmentResponse{ID: id}, nil
}

func (f *fakeService) CreateAppointment(_ context.Context, req *service.CreateAppointmentRequest, owner string) (*service.AppointmentResponse, apierror.ErrorResponse) {
	f.owner = owner
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.AppointmentResponse{ID: "new", Title: req.Title}, nil
}

func (f *fakeService) UpdateAppointment(_ context.Context, id string, req *service.UpdateAppointmentRequest, owner string) (*service.AppointmentResponse, apierror.ErrorResponse) {
	f.owner = owner
	f.updatedID = id
	if f.err != nil {
		return nil, f.err
	}
	return &service.AppointmentResponse{ID: id, Title: req.Title}, nil
}

func (f *fakeService) DeleteAppointment(_ context.Context, id, owner string) apierror.ErrorResponse {
	f.owner = owner
	f.deletedID = id
	return f.err
}

func (f *fakeService) GetCalendar(_ context.Context, owner string, monthStart, monthEnd time.Time) (*service.CalendarResponse, apierror.ErrorResponse) {
	f.owner = owner
	f.monthStart, f.monthEnd = monthStart, monthEnd
	if f.err != nil {
		return nil, f.err
	}
	return &service.CalendarResponse{ScheduledDays: []*service.ScheduledDay{}}, nil
}

func (f *fakeService) ExportCalendar(_ context.Context, owner string) (string, apierror.ErrorResponse) {
	f.owner = owner
	if f.err != nil {
		return "", f.err
	}
	return "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", nil
}

func newServer(svc *fakeService) *echo.Echo {
	e := echo.New()
	api := e.Group("/api", auth.Middleware(staticVerifier{}))
	NewAppointmentDefault(svc).Register(api)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateAppointment(t *testing.T) {
	svc := &fakeService{}
	e := newServer(svc)

	rec := do(e, http.MethodPost, "/api/appointments", `{"title":"Standup","start_time":"2024-01-01T10:00:00Z","end_time":"2024-01-01T11:00:00Z","is_recurring":true,"frequency":"daily","repeat_until":"2024-01-03"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.owner != "user-1" {
		t.Errorf("owner = %q", svc.owner)
	}
	if svc.created == nil || !svc.created.IsRecurring || svc.created.RepeatUntil != "2024-01-03" {
		t.Errorf("request not bound: %+v", svc.created)
	}
}

func TestCreateAppointment_Errors(t *testing.T) {
	e := newServer(&fakeService{})
	if rec := do(e, http.MethodPost, "/api/appointments", `{"title":`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", rec.Code)
	}

	e = newServer(&fakeService{err: apierror.OverlapConflictError})
	rec := do(e, http.MethodPost, "/api/appointments", `{"title":"x"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["message"] != "Appointment overlaps with existing one" {
		t.Errorf("body = %v", body)
	}
}

func TestUnauthenticated(t *testing.T) {
	e := newServer(&fakeService{})
	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer bad")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGetAndListAppointments(t *testing.T) {
	svc := &fakeService{}
	e := newServer(svc)

	rec := do(e, http.MethodGet, "/api/appointments", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"appointments"`) {
		t.Errorf("list: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/appointments/a1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"a1"`) {
		t.Errorf("get: %d %s", rec.Code, rec.Body.String())
	}

	e = newServer(&fakeService{err: apierror.NotFoundError})
	if rec := do(e, http.MethodGet, "/api/appointments/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d", rec.Code)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := &fakeService{}
	e := newServer(svc)

	rec := do(e, http.MethodPut, "/api/appointments/a1", `{"title":"Renamed","start_time":"2024-01-01T10:00:00Z","end_time":"2024-01-01T11:00:00Z"}`)
	if rec.Code != http.StatusOK || svc.updatedID != "a1" {
		t.Errorf("update: %d id=%q", rec.Code, svc.updatedID)
	}

	rec = do(e, http.MethodDelete, "/api/appointments/a1", "")
	if rec.Code != http.StatusOK || svc.deletedID != "a1" {
		t.Errorf("delete: %d id=%q", rec.Code, svc.deletedID)
	}
}

func TestGetCalendar(t *testing.T) {
	svc := &fakeService{}
	e := newServer(svc)

	if rec := do(e, http.MethodGet, "/api/calendar", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing month: status = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/calendar?month=August", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad month: status = %d", rec.Code)
	}

	rec := do(e, http.MethodGet, "/api/calendar?month=2024-12", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !svc.monthStart.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) || !svc.monthEnd.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window = %v..%v", svc.monthStart, svc.monthEnd)
	}
}

func TestExportCalendar(t *testing.T) {
	e := newServer(&fakeService{})
	rec := do(e, http.MethodGet, "/api/calendar.ics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestParseMonthString(t *testing.T) {
	start, end, err := parseMonthString("2025-08")
	if err != nil {
		t.Fatal(err)
	}
	if start.Month() != time.August || end.Month() != time.September || start.Location() != time.UTC {
		t.Errorf("got %v..%v", start, end)
	}
	if _, _, err := parseMonthString("2025/08"); err == nil {
		t.Error("expected error")
	}
}
