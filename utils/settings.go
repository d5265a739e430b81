package utils

import (
	"os"
	"strconv"
	"time"
)

// Các tunable của engine đọc từ ENV để chapter có nhịp sinh hoạt khác nhau
// không phải sửa code. Tất cả có default khớp hành vi chuẩn.

func EnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// CheckinWindow: check-in mở trước giờ họp bao lâu (mặc định 15 phút).
func CheckinWindow() time.Duration {
	return time.Duration(EnvInt("CHECKIN_WINDOW_MIN", 15)) * time.Minute
}

// LateGrace: check-in sau actual_start_time quá khoảng này thì is_late (mặc định 10 phút).
func LateGrace() time.Duration {
	return time.Duration(EnvInt("LATE_GRACE_MIN", 10)) * time.Minute
}

// ReminderDays / EscalationDays: hai mốc quét của escalation scheduler.
func ReminderDays() int   { return EnvInt("REMINDER_DAYS", 3) }
func EscalationDays() int { return EnvInt("ESCALATION_DAYS", 2) }

// DeleteProtectWindow: meeting scheduled chỉ được xóa khi còn cách giờ họp
// nhiều hơn khoảng này (mặc định 2 ngày).
func DeleteProtectWindow() time.Duration {
	return time.Duration(EnvInt("DELETE_PROTECT_DAYS", 2)) * 24 * time.Hour
}

var sectionBudgetDefaults = map[string]int{
	"checkin":    10,
	"lightning":  15,
	"curriculum": 45,
	"closing":    15,
}

// SectionBudget: ngân sách thời gian cho một section, đọc từ
// SECTION_BUDGET_<SECTION>_MIN (ví dụ SECTION_BUDGET_LIGHTNING_MIN).
func SectionBudget(section string) time.Duration {
	def := sectionBudgetDefaults[section]
	key := "SECTION_BUDGET_" + toEnvKey(section) + "_MIN"
	return time.Duration(EnvInt(key, def)) * time.Minute
}

func toEnvKey(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
