package repository

import (
	"agenda/cmd/internal/domain/entity"
	"agenda/cmd/internal/scheduling"
	"agenda/cmd/internal/utils"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

type DefaultAppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{db: db}
}

func (a *DefaultAppointmentRepository) FindOverlapping(ctx context.Context, owner string, r scheduling.TimeRange, excludeID string) (*scheduling.Appointment, error) {
	query := a.db.WithContext(ctx).
		Where("owner = ?", owner).
		Where("begins_at < ?", r.End().UnixMilli()).
		Where("ends_at > ?", r.Start().UnixMilli())
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var rows []*entity.Appointment
	res := query.Order("begins_at asc").Limit(1).Find(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return toDomain(rows[0])
}

// Insert stores appt, assigning its ID and timestamps.
func (a *DefaultAppointmentRepository) Insert(ctx context.Context, appt *scheduling.Appointment) error {
	row, err := fromDomain(appt)
	if err != nil {
		return err
	}

	now := utils.NowUTC()
	row.ID = uuid.NewString()
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := a.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}

	appt.ID = row.ID
	appt.CreatedAt = time.UnixMilli(now).UTC()
	appt.UpdatedAt = appt.CreatedAt
	return nil
}

func (a *DefaultAppointmentRepository) FindByID(ctx context.Context, owner, id string) (*scheduling.Appointment, error) {
	row, err := a.findRow(ctx, owner, id)
	if err != nil || row == nil {
		return nil, err
	}
	return toDomain(row)
}

func (a *DefaultAppointmentRepository) UpdateFields(ctx context.Context, owner, id string, fields scheduling.Fields) (*scheduling.Appointment, error) {
	row, err := a.findRow(ctx, owner, id)
	if err != nil || row == nil {
		return nil, err
	}

	row.Title = fields.Title
	row.Description = fields.Description
	row.Location = fields.Location
	row.BeginsAt = fields.Range.Start().UnixMilli()
	row.EndsAt = fields.Range.End().UnixMilli()
	row.UpdatedAt = utils.NowUTC()

	if err := a.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return toDomain(row)
}

func (a *DefaultAppointmentRepository) DeleteByID(ctx context.Context, owner, id string) (bool, error) {
	res := a.db.WithContext(ctx).
		Where("id = ? AND owner = ?", id, owner).
		Delete(&entity.Appointment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (a *DefaultAppointmentRepository) FindByOwner(ctx context.Context, owner string) ([]*scheduling.Appointment, error) {
	var rows []*entity.Appointment
	err := a.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("begins_at asc, created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows)
}

// FindBetween finds the owner's appointments that overlap window.
func (a *DefaultAppointmentRepository) FindBetween(ctx context.Context, owner string, window scheduling.TimeRange) ([]*scheduling.Appointment, error) {
	var rows []*entity.Appointment
	err := a.db.WithContext(ctx).
		Where("owner = ?", owner).
		Where("begins_at < ?", window.End().UnixMilli()).
		Where("ends_at > ?", window.Start().UnixMilli()).
		Order("begins_at asc, created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(rows)
}

func (a *DefaultAppointmentRepository) findRow(ctx context.Context, owner, id string) (*entity.Appointment, error) {
	var rows []*entity.Appointment
	res := a.db.WithContext(ctx).
		Where("id = ? AND owner = ?", id, owner).
		Limit(1).
		Find(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func fromDomain(appt *scheduling.Appointment) (*entity.Appointment, error) {
	row := &entity.Appointment{
		ID:          appt.ID,
		Owner:       appt.Owner,
		Title:       appt.Title,
		Description: appt.Description,
		Location:    appt.Location,
		BeginsAt:    appt.Range.Start().UnixMilli(),
		EndsAt:      appt.Range.End().UnixMilli(),
		IsRecurring: appt.IsRecurring,
	}
	if appt.SeriesID != "" {
		row.SeriesID = &appt.SeriesID
	}
	if appt.Recurrence != nil {
		rule, err := encodeRule(appt.Recurrence)
		if err != nil {
			return nil, err
		}
		row.RecurrenceRule = &rule
	}
	return row, nil
}

func toDomain(row *entity.Appointment) (*scheduling.Appointment, error) {
	r, err := scheduling.NewTimeRange(
		time.UnixMilli(row.BeginsAt).UTC(),
		time.UnixMilli(row.EndsAt).UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", row.ID, err)
	}

	appt := &scheduling.Appointment{
		ID:          row.ID,
		Owner:       row.Owner,
		Title:       row.Title,
		Description: row.Description,
		Location:    row.Location,
		Range:       r,
		IsRecurring: row.IsRecurring,
		CreatedAt:   time.UnixMilli(row.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(row.UpdatedAt).UTC(),
	}
	if row.SeriesID != nil {
		appt.SeriesID = *row.SeriesID
	}
	if row.RecurrenceRule != nil {
		rec, err := decodeRule(*row.RecurrenceRule)
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", row.ID, err)
		}
		appt.Recurrence = rec
	}
	return appt, nil
}

func toDomainList(rows []*entity.Appointment) ([]*scheduling.Appointment, error) {
	appts := make([]*scheduling.Appointment, len(rows))
	for i, row := range rows {
		appt, err := toDomain(row)
		if err != nil {
			return nil, err
		}
		appts[i] = appt
	}
	return appts, nil
}

func encodeRule(rec *scheduling.Recurrence) (string, error) {
	var freq rrule.Frequency
	switch rec.Frequency {
	case scheduling.FrequencyDaily:
		freq = rrule.DAILY
	case scheduling.FrequencyWeekly:
		freq = rrule.WEEKLY
	default:
		return "", fmt.Errorf("unsupported frequency %q", rec.Frequency)
	}
	opt := rrule.ROption{Freq: freq, Until: rec.RepeatUntil.UTC()}
	return opt.RRuleString(), nil
}

func decodeRule(s string) (*scheduling.Recurrence, error) {
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence rule %q: %w", s, err)
	}

	rec := &scheduling.Recurrence{RepeatUntil: opt.Until.UTC()}
	switch opt.Freq {
	case rrule.DAILY:
		rec.Frequency = scheduling.FrequencyDaily
	case rrule.WEEKLY:
		rec.Frequency = scheduling.FrequencyWeekly
	default:
		return nil, fmt.Errorf("unsupported recurrence rule %q", s)
	}
	return rec, nil
}
