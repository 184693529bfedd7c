package models

import (
	"testing"
	"time"
)

func TestParseHourSetShapes(t *testing.T) {
	cases := []struct {
		name string
		spec string
		want []int
	}{
		{"comma separated", "7, 12,18", []int{7, 12, 18}},
		{"json ints", "[7,12,18]", []int{7, 12, 18}},
		{"legacy objects", `[{"hour":7},{"hour":18}]`, []int{7, 18}},
		{"empty", "", nil},
		{"out of range dropped", "7,24,-1", []int{7}},
		{"garbage", "not,hours", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseHourSet(tc.spec)
			if len(got) != len(tc.want) {
				t.Fatalf("ParseHourSet(%q) = %v, want hours %v", tc.spec, got, tc.want)
			}
			for _, h := range tc.want {
				if !got[h] {
					t.Fatalf("ParseHourSet(%q) missing hour %d", tc.spec, h)
				}
			}
		})
	}
}

func TestParseDaySetCaseInsensitive(t *testing.T) {
	days := ParseDaySet("Monday, friday, SUNDAY")
	for _, want := range []time.Weekday{time.Monday, time.Friday, time.Sunday} {
		if !days[want] {
			t.Fatalf("expected %s in set", want)
		}
	}
	if days[time.Tuesday] {
		t.Fatal("unexpected tuesday in set")
	}
}

// monday10 is a Monday at 10:00 local time.
var monday10 = time.Date(2026, time.August, 24, 10, 0, 0, 0, time.Local)

func TestAdEligibility(t *testing.T) {
	cases := []struct {
		name string
		ad   Ad
		want bool
	}{
		{"unscheduled always eligible", Ad{Scheduled: false, Days: "tuesday", Hours: "3"}, true},
		{"scheduled empty sets always eligible", Ad{Scheduled: true}, true},
		{"matching day and hour", Ad{Scheduled: true, Days: "monday", Hours: "10"}, true},
		{"wrong day", Ad{Scheduled: true, Days: "tuesday", Hours: "10"}, false},
		{"wrong hour", Ad{Scheduled: true, Days: "monday", Hours: "11"}, false},
		{"day only constraint", Ad{Scheduled: true, Days: "monday"}, true},
		{"hour only constraint", Ad{Scheduled: true, Hours: "9,10,11"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ad.EligibleAt(monday10); got != tc.want {
				t.Fatalf("EligibleAt = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMessageActiveAt(t *testing.T) {
	unscheduled := Message{ScheduleEnabled: false, ScheduleDays: "tuesday"}
	if !unscheduled.ActiveAt(monday10) {
		t.Fatal("message without scheduling must always be active")
	}

	scheduled := Message{ScheduleEnabled: true, ScheduleDays: "monday", ScheduleHours: "10"}
	if !scheduled.ActiveAt(monday10) {
		t.Fatal("expected scheduled message active at matching time")
	}

	offHour := Message{ScheduleEnabled: true, ScheduleHours: "23"}
	if offHour.ActiveAt(monday10) {
		t.Fatal("expected message inactive outside its hours")
	}
}

func TestMessageDisplayClamps(t *testing.T) {
	cases := []struct {
		seconds int
		want    time.Duration
	}{
		{0, 10 * time.Second},
		{-5, 10 * time.Second},
		{30, 30 * time.Second},
		{120, 60 * time.Second},
	}
	for _, tc := range cases {
		msg := Message{DisplaySeconds: tc.seconds}
		if got := msg.Display(); got != tc.want {
			t.Fatalf("Display(%d) = %s, want %s", tc.seconds, got, tc.want)
		}
	}
}
