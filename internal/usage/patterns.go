// Package usage tracks viewing time and decides when a user should pause.
package usage

import (
	"sort"
	"time"
)

// DateLayout is the calendar date key format
const DateLayout = "2006-01-02"

// Session is one continuous viewing period
type Session struct {
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes float64   `json:"durationMinutes"`
	ItemIDs         []string  `json:"itemIds"`
}

// DailyUsageRecord aggregates the sessions started on one calendar date.
// TotalDurationMinutes always equals the sum of session durations.
type DailyUsageRecord struct {
	Date                 string    `json:"date"`
	DayOfWeek            int       `json:"dayOfWeek"` // 0=Sunday
	TotalDurationMinutes float64   `json:"totalDurationMinutes"`
	Sessions             []Session `json:"sessions"`
}

// ProblematicPeriod flags a weekday with heavy viewing
type ProblematicPeriod struct {
	DayOfWeek       int     `json:"dayOfWeek"`
	AverageMinutes  float64 `json:"averageMinutes"`
	Days            int     `json:"days"`
	LongSessionDays int     `json:"longSessionDays"`
}

// Patterns is the persisted usage state
type Patterns struct {
	Records              map[string]*DailyUsageRecord `json:"records"`
	WeeklyAverageMinutes float64                      `json:"weeklyAverageMinutes"`
	ProductiveHours      []int                        `json:"productiveHours"`
	ProblematicPeriods   []ProblematicPeriod          `json:"problematicPeriods"`
}

func newPatterns() Patterns {
	return Patterns{
		Records:            make(map[string]*DailyUsageRecord),
		ProductiveHours:    []int{},
		ProblematicPeriods: []ProblematicPeriod{},
	}
}

// Goals are the configured time limits
type Goals struct {
	DailyLimitMinutes  float64 `json:"dailyLimitMinutes"`
	WeeklyLimitMinutes float64 `json:"weeklyLimitMinutes"`
}

// Derivation parameters
const (
	MaxDays               = 28
	MinSessionDuration    = 10 * time.Second
	LongSessionMinutes    = 30
	ProblematicMultiplier = 1.25
	MinProductiveHours    = 3
	BusinessHoursStart    = 9
	BusinessHoursEnd      = 17
)

// evictOldest drops the oldest dates beyond MaxDays
func evictOldest(records map[string]*DailyUsageRecord) {
	if len(records) <= MaxDays {
		return
	}
	dates := make([]string, 0, len(records))
	for d := range records {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates[:len(dates)-MaxDays] {
		delete(records, d)
	}
}

// weeklyTotal sums the records of the 7 calendar days ending today
func weeklyTotal(records map[string]*DailyUsageRecord, today time.Time) (total float64, daysWithData int) {
	for i := 0; i < 7; i++ {
		date := today.AddDate(0, 0, -i).Format(DateLayout)
		if rec, ok := records[date]; ok {
			total += rec.TotalDurationMinutes
			daysWithData++
		}
	}
	return total, daysWithData
}

func weeklyAverage(records map[string]*DailyUsageRecord, today time.Time) float64 {
	total, days := weeklyTotal(records, today)
	if days == 0 {
		return 0
	}
	return total * 7 / float64(days)
}

// productiveHours returns the hours where viewing is unusually light,
// which is when the user tends to be doing something else.
func productiveHours(records map[string]*DailyUsageRecord, loc *time.Location) []int {
	var minutes [24]float64
	var counts [24]int
	for _, rec := range records {
		for _, s := range rec.Sessions {
			h := s.StartTime.In(loc).Hour()
			minutes[h] += s.DurationMinutes
			counts[h]++
		}
	}

	var avg [24]float64
	var sum float64
	for h := 0; h < 24; h++ {
		if counts[h] > 0 {
			avg[h] = minutes[h] / float64(counts[h])
		}
		sum += avg[h]
	}
	overall := sum / 24

	set := make(map[int]bool)
	for h := 0; h < 24; h++ {
		if avg[h] > 0 && avg[h] < overall/2 {
			set[h] = true
		}
	}
	if len(set) < MinProductiveHours {
		for h := BusinessHoursStart; h <= BusinessHoursEnd; h++ {
			set[h] = true
		}
	}

	hours := make([]int, 0, len(set))
	for h := range set {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}

// problematicPeriods flags weekdays over the daily limit or dominated
// by long sessions
func problematicPeriods(records map[string]*DailyUsageRecord, dailyLimit float64) []ProblematicPeriod {
	var days, longDays [7]int
	var totals [7]float64
	for _, rec := range records {
		dow := rec.DayOfWeek
		if dow < 0 || dow > 6 {
			continue
		}
		days[dow]++
		totals[dow] += rec.TotalDurationMinutes
		for _, s := range rec.Sessions {
			if s.DurationMinutes > LongSessionMinutes {
				longDays[dow]++
				break
			}
		}
	}

	periods := []ProblematicPeriod{}
	for dow := 0; dow < 7; dow++ {
		if days[dow] == 0 {
			continue
		}
		avg := totals[dow] / float64(days[dow])
		if avg > ProblematicMultiplier*dailyLimit || longDays[dow]*2 > days[dow] {
			periods = append(periods, ProblematicPeriod{
				DayOfWeek:       dow,
				AverageMinutes:  avg,
				Days:            days[dow],
				LongSessionDays: longDays[dow],
			})
		}
	}
	return periods
}
