package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

// Date is a calendar date: stored as SQL DATE via the embedded
// datatypes.Date, carried on the wire as "YYYY-MM-DD".
type Date struct {
	datatypes.Date
}

// NewDate truncates t to its calendar day
func NewDate(t time.Time) Date {
	return Date{datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))}
}

// Time returns the date as a time.Time at midnight
func (d Date) Time() time.Time {
	return time.Time(d.Date)
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	d.Date = datatypes.Date(t)
	return nil
}
