package domain

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Weekday numbers days from 0 (Monday) to 6 (Sunday).
type Weekday int16

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// WeekdayOf returns the Monday-based weekday of t in its own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time as seconds since local midnight. 24:00:00 is
// accepted so a window can run to the end of the day.
type TimeOfDay int32

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// ParseTimeOfDay accepts HH:MM and HH:MM:SS, with optional fractional seconds.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || len(p) != 2 {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		nums[i] = n
	}
	if nums[1] > 59 || nums[2] > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	t := NewTimeOfDay(nums[0], nums[1], nums[2])
	if t < 0 || t > secondsPerDay {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return t, nil
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= secondsPerDay
}

func (t TimeOfDay) Clock() (hour, minute, second int) {
	v := int(t)
	return v / 3600, (v % 3600) / 60, v % 60
}

func (t TimeOfDay) String() string {
	h, m, s := t.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute(), v.Second())
	case nil:
		return errors.New("time of day is null")
	default:
		return fmt.Errorf("unsupported time of day source %T", src)
	}
	return nil
}

type AvailabilityRule struct {
	bun.BaseModel `bun:"table:availability_rules"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ProviderID int64     `bun:"provider_id,notnull"`
	DayOfWeek  Weekday   `bun:"day_of_week,notnull"`
	StartTime  TimeOfDay `bun:"start_time,notnull,type:time"`
	EndTime    TimeOfDay `bun:"end_time,notnull,type:time"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (r AvailabilityRule) Validate() error {
	if !r.DayOfWeek.Valid() {
		return errors.New("day_of_week must be between 0 (Monday) and 6 (Sunday)")
	}
	if !r.StartTime.Valid() || !r.EndTime.Valid() {
		return errors.New("rule times must be within the day")
	}
	if r.StartTime >= r.EndTime {
		return errors.New("start_time must be before end_time")
	}
	return nil
}

func (r *AvailabilityRule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

// TimeBlock overrides the weekly rules over an absolute span: a blackout when
// IsAvailable is false, extra hours when it is true.
type TimeBlock struct {
	bun.BaseModel `bun:"table:time_blocks"`

	ID          int64     `bun:"id,pk,autoincrement"`
	ProviderID  int64     `bun:"provider_id,notnull"`
	StartTime   time.Time `bun:"start_datetime,notnull"`
	EndTime     time.Time `bun:"end_datetime,notnull"`
	IsAvailable bool      `bun:"is_available,notnull"`
	Reason      string    `bun:"reason"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (b TimeBlock) Interval() Interval {
	return NewInterval(b.StartTime, b.EndTime)
}

func (b TimeBlock) Validate() error {
	if b.StartTime.IsZero() || b.EndTime.IsZero() {
		return errors.New("start and end are required")
	}
	if !b.StartTime.Before(b.EndTime) {
		return errors.New("start must be before end")
	}
	return nil
}

func (b *TimeBlock) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}

// RuleSet holds a provider's weekly rules resolved against its zone.
type RuleSet struct {
	loc   *time.Location
	byDay map[Weekday][]AvailabilityRule
}

func NewRuleSet(loc *time.Location, rules []AvailabilityRule) RuleSet {
	if loc == nil {
		loc = time.UTC
	}
	byDay := make(map[Weekday][]AvailabilityRule, 7)
	for _, r := range rules {
		byDay[r.DayOfWeek] = append(byDay[r.DayOfWeek], r)
	}
	return RuleSet{loc: loc, byDay: byDay}
}

// WindowsForDate returns the merged windows of the calendar date whose year,
// month and day are read from date as-is; the date's own location is ignored.
// Wall-clock rule times are resolved in the provider's zone for that date, so
// DST shifts are honoured per day.
func (rs RuleSet) WindowsForDate(date time.Time) []Interval {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	rules := rs.byDay[WeekdayOf(day)]
	if len(rules) == 0 {
		return nil
	}

	windows := make([]Interval, 0, len(rules))
	for _, r := range rules {
		sh, sm, ss := r.StartTime.Clock()
		eh, em, es := r.EndTime.Clock()
		windows = append(windows, NewInterval(
			time.Date(y, m, d, sh, sm, ss, 0, rs.loc),
			time.Date(y, m, d, eh, em, es, 0, rs.loc),
		))
	}
	return Merge(windows)
}

// Exception is a time block clamped to a query range.
type Exception struct {
	Interval
	IsAvailable bool
	BlockID     int64
}

type ExceptionSet []TimeBlock

// Overlapping returns the blocks intersecting rng, clamped to it and ordered
// by start. On equal starts extra hours sort before blackouts so a blackout
// applied afterwards wins.
func (es ExceptionSet) Overlapping(rng Interval) []Exception {
	out := make([]Exception, 0, len(es))
	for _, b := range es {
		iv := b.Interval()
		if !iv.Valid() || !Overlaps(iv, rng) {
			continue
		}
		out = append(out, Exception{Interval: Clamp(iv, rng), IsAvailable: b.IsAvailable, BlockID: b.ID})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		if out[i].IsAvailable != out[j].IsAvailable {
			return out[i].IsAvailable
		}
		return out[i].BlockID < out[j].BlockID
	})
	return out
}

// DeriveAvailability computes the open intervals of rng. Rule windows are
// generated once per provider-local calendar day; exceptions are applied once
// over the whole range in chronological order.
func DeriveAvailability(rules RuleSet, exceptions ExceptionSet, rng Interval) []Interval {
	rng = NewInterval(rng.Start, rng.End)
	if !rng.Valid() {
		return nil
	}

	first := localDate(rng.Start.In(rules.loc))
	last := localDate(rng.End.Add(-time.Nanosecond).In(rules.loc))

	var base []Interval
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		base = append(base, rules.WindowsForDate(day)...)
	}
	open := Merge(base)

	for _, ex := range exceptions.Overlapping(rng) {
		if ex.IsAvailable {
			open = Merge(append(open, ex.Interval))
			continue
		}
		open = SubtractAll(open, ex.Interval)
	}

	merged := Merge(open)
	out := make([]Interval, 0, len(merged))
	for _, i := range merged {
		if c := Clamp(i, rng); c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

func localDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
