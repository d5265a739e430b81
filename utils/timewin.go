package utils

import (
	"errors"
	"os"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02 15:04"
)

// AppLocation: timezone chung của hệ thống (env TZ_NAME, mặc định Asia/Ho_Chi_Minh).
func AppLocation() *time.Location {
	name := os.Getenv("TZ_NAME")
	if name == "" {
		name = "Asia/Ho_Chi_Minh"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// CombineDateTime ghép ngày (YYYY-MM-DD) và giờ (HH:MM) thành một time.Time.
// Luôn ghép bằng nối chuỗi rồi parse một lần — không cộng trừ từng field riêng.
func CombineDateTime(date, tm string) (time.Time, error) {
	date = strings.TrimSpace(date)
	tm = strings.TrimSpace(tm)
	if date == "" || tm == "" {
		return time.Time{}, errors.New("thiếu ngày hoặc giờ")
	}
	return time.ParseInLocation(DateTimeLayout, date+" "+tm, AppLocation())
}

// ValidDate / ValidTimeOfDay: validate input trước khi lưu vào meeting.
func ValidDate(date string) bool {
	_, err := time.ParseInLocation(DateLayout, date, AppLocation())
	return err == nil
}

func ValidTimeOfDay(tm string) bool {
	_, err := time.Parse(TimeLayout, tm)
	return err == nil
}
