package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// dateLayout is the wire and storage format for calendar dates.
const dateLayout = "2006-01-02"

// Date is a calendar date without a time component. It serializes as
// "YYYY-MM-DD" in JSON and maps to a DATE column. The year is stored but
// carries no significance for birthday recurrence.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON renders the date as a quoted "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts a quoted "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// Scan implements sql.Scanner. The MySQL driver returns DATE columns as
// time.Time when parseTime=true is set on the DSN.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case []byte:
		t, err := time.Parse(dateLayout, string(v))
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case string:
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case nil:
		d.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

// Value implements driver.Valuer so a Date can be used as a query argument.
func (d Date) Value() (driver.Value, error) {
	return d.Format(dateLayout), nil
}
