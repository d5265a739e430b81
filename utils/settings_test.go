package utils

import (
	"testing"
	"time"
)

func TestEnvIntDefaults(t *testing.T) {
	if got := EnvInt("KHONG_TON_TAI_XYZ", 7); got != 7 {
		t.Errorf("thiếu env phải trả default, got %d", got)
	}

	t.Setenv("SO_AM", "-3")
	if got := EnvInt("SO_AM", 5); got != 5 {
		t.Errorf("giá trị âm phải rơi về default, got %d", got)
	}

	t.Setenv("KHONG_PHAI_SO", "abc")
	if got := EnvInt("KHONG_PHAI_SO", 5); got != 5 {
		t.Errorf("giá trị không parse được phải rơi về default, got %d", got)
	}
}

func TestSweepHorizonDefaults(t *testing.T) {
	if ReminderDays() != 3 {
		t.Errorf("ReminderDays mặc định phải là 3, got %d", ReminderDays())
	}
	if EscalationDays() != 2 {
		t.Errorf("EscalationDays mặc định phải là 2, got %d", EscalationDays())
	}
	if DeleteProtectWindow() != 48*time.Hour {
		t.Errorf("DeleteProtectWindow mặc định phải là 48h, got %v", DeleteProtectWindow())
	}
}

func TestSectionBudget(t *testing.T) {
	if got := SectionBudget("curriculum"); got != 45*time.Minute {
		t.Errorf("budget curriculum mặc định 45 phút, got %v", got)
	}

	t.Setenv("SECTION_BUDGET_LIGHTNING_MIN", "20")
	if got := SectionBudget("lightning"); got != 20*time.Minute {
		t.Errorf("budget lightning phải đọc từ env, got %v", got)
	}

	// section lạ không có default -> 0
	if got := SectionBudget("unknown"); got != 0 {
		t.Errorf("section lạ phải trả 0, got %v", got)
	}
}
