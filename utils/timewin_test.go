package utils

import (
	"testing"
	"time"
)

func TestCombineDateTime(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")

	got, err := CombineDateTime("2026-09-15", "19:30")
	if err != nil {
		t.Fatalf("CombineDateTime lỗi: %v", err)
	}
	if got.Year() != 2026 || got.Month() != time.September || got.Day() != 15 {
		t.Errorf("sai ngày: %v", got)
	}
	if got.Hour() != 19 || got.Minute() != 30 {
		t.Errorf("sai giờ: %v", got)
	}
	if got.Location().String() != "Asia/Ho_Chi_Minh" {
		t.Errorf("sai timezone: %v", got.Location())
	}
}

func TestCombineDateTimeTrimsSpaces(t *testing.T) {
	got, err := CombineDateTime(" 2026-01-02 ", " 08:00 ")
	if err != nil {
		t.Fatalf("CombineDateTime lỗi: %v", err)
	}
	if got.Hour() != 8 {
		t.Errorf("sai giờ: %v", got)
	}
}

func TestCombineDateTimeInvalid(t *testing.T) {
	cases := []struct{ date, tm string }{
		{"", "19:00"},
		{"2026-09-15", ""},
		{"15/09/2026", "19:00"},
		{"2026-09-15", "7pm"},
		{"2026-13-40", "19:00"},
	}
	for _, c := range cases {
		if _, err := CombineDateTime(c.date, c.tm); err == nil {
			t.Errorf("CombineDateTime(%q, %q) phải lỗi", c.date, c.tm)
		}
	}
}

func TestValidDateAndTime(t *testing.T) {
	if !ValidDate("2026-02-28") {
		t.Error("2026-02-28 phải hợp lệ")
	}
	if ValidDate("2026-02-30") {
		t.Error("2026-02-30 phải bị từ chối")
	}
	if !ValidTimeOfDay("09:05") {
		t.Error("09:05 phải hợp lệ")
	}
	if ValidTimeOfDay("25:00") {
		t.Error("25:00 phải bị từ chối")
	}
}
