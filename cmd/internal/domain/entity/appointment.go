package entity

// Times are epoch milliseconds in UTC.
type Appointment struct {
	ID          string `gorm:"primaryKey;size:36"`
	Owner       string `gorm:"not null;index:idx_owner_begins,priority:1"`
	Title       string `gorm:"size:100;not null"`
	Description string `gorm:"size:500"`
	Location    string
	BeginsAt    int64 `gorm:"not null;index:idx_owner_begins,priority:2"`
	EndsAt      int64 `gorm:"not null"`
	IsRecurring bool  `gorm:"not null"`
	// RFC 5545 RRULE value, e.g. "FREQ=DAILY;UNTIL=20240103T000000Z".
	RecurrenceRule *string
	SeriesID       *string `gorm:"size:36;index"`
	CreatedAt      int64   `gorm:"not null"`
	UpdatedAt      int64   `gorm:"not null"`
}
