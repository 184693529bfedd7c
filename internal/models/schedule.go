/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ParseHourSet parses an hour specification into a set of hours 0-23.
// Accepted shapes: a comma-separated list ("7,12,18"), a JSON array of
// integers ("[7,12,18]"), and the legacy JSON list-of-objects shape
// ("[{\"hour\":7},...]"). Values outside 0-23 are dropped. The legacy shapes
// are normalized here at the boundary and never propagate inward.
func ParseHourSet(spec string) map[int]bool {
	hours := make(map[int]bool)
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return hours
	}

	if strings.HasPrefix(spec, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(spec), &ints); err == nil {
			for _, h := range ints {
				addHour(hours, h)
			}
			return hours
		}

		var objs []struct {
			Hour int `json:"hour"`
		}
		if err := json.Unmarshal([]byte(spec), &objs); err == nil {
			for _, o := range objs {
				addHour(hours, o.Hour)
			}
		}
		return hours
	}

	for _, part := range strings.Split(spec, ",") {
		if h, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			addHour(hours, h)
		}
	}
	return hours
}

func addHour(set map[int]bool, h int) {
	if h >= 0 && h <= 23 {
		set[h] = true
	}
}

// ParseDaySet parses a comma-separated (or JSON array) list of English
// weekday names into a set. Matching is case-insensitive.
func ParseDaySet(spec string) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return days
	}

	var names []string
	if strings.HasPrefix(spec, "[") {
		if err := json.Unmarshal([]byte(spec), &names); err != nil {
			return days
		}
	} else {
		names = strings.Split(spec, ",")
	}

	for _, name := range names {
		if day, ok := weekdayByName(name); ok {
			days[day] = true
		}
	}
	return days
}

func weekdayByName(name string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, true
	case "monday":
		return time.Monday, true
	case "tuesday":
		return time.Tuesday, true
	case "wednesday":
		return time.Wednesday, true
	case "thursday":
		return time.Thursday, true
	case "friday":
		return time.Friday, true
	case "saturday":
		return time.Saturday, true
	}
	return 0, false
}

// scheduleAdmits applies the shared day/hour set semantics: an empty set
// places no constraint on its axis.
func scheduleAdmits(daySpec, hourSpec string, t time.Time) bool {
	days := ParseDaySet(daySpec)
	if len(days) > 0 && !days[t.Weekday()] {
		return false
	}
	hours := ParseHourSet(hourSpec)
	if len(hours) > 0 && !hours[t.Hour()] {
		return false
	}
	return true
}
