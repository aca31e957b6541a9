package entity

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in slot lookups.
const DateLayout = "2006-01-02"

// DoctorSlot is one bookable (date, time) pair of a doctor.
// Version is bumped on every booked-flag change.
type DoctorSlot struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	DoctorID  int64     `gorm:"not null;uniqueIndex:idx_doctor_slot" json:"-"`
	SlotDate  time.Time `gorm:"type:date;not null;uniqueIndex:idx_doctor_slot" json:"date"`
	SlotTime  string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_doctor_slot" json:"time"`
	IsBooked  bool      `gorm:"not null;default:false" json:"isBooked"`
	Version   int       `gorm:"not null;default:0" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (DoctorSlot) TableName() string {
	return "doctor_slots"
}

// timeLayouts lists accepted time label formats, "10:00 AM" first.
var timeLayouts = []string{"3:04 PM", "03:04 PM", "3:04PM", "15:04"}

// ParseTimeLabel converts a label such as "10:00 AM" or "14:30" into minutes since midnight.
func ParseTimeLabel(label string) (int, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

// NormalizeTimeLabel rewrites an accepted time label in the "3:04 PM" form,
// so "04:00 pm" and "16:00" both become "4:00 PM".
func NormalizeTimeLabel(label string) (string, bool) {
	minutes, ok := ParseTimeLabel(label)
	if !ok {
		return "", false
	}
	return time.Date(0, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC).Format(timeLayouts[0]), true
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns the calendar date in UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if d, err := time.Parse(DateLayout, value); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Format(DateLayout) == b.Format(DateLayout)
}

// SortSlots orders slots by date then clock time. Unparseable labels sort last, by text.
func SortSlots(slots []DoctorSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		di, dj := slots[i].SlotDate.Format(DateLayout), slots[j].SlotDate.Format(DateLayout)
		if di != dj {
			return di < dj
		}
		return lessTimeLabel(slots[i].SlotTime, slots[j].SlotTime)
	})
}

func lessTimeLabel(a, b string) bool {
	ma, okA := ParseTimeLabel(a)
	mb, okB := ParseTimeLabel(b)
	switch {
	case okA && okB:
		if ma != mb {
			return ma < mb
		}
		return a < b
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}
