package scheduler

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/utils"
)

// StartEscalationLoop chạy sweep định kỳ trong goroutine nền (mặc định 4 giờ,
// đổi qua SWEEP_INTERVAL_HOURS). Sweep vốn idempotent nên interval dày hay
// thưa không đổi kết quả cuối.
func StartEscalationLoop(db *gorm.DB) {
	startEscalationLoop(db, utils.RealClock{})
}

func startEscalationLoop(db *gorm.DB, clock utils.Clock) {
	interval := time.Duration(utils.EnvInt("SWEEP_INTERVAL_HOURS", 4)) * time.Hour
	sweeper := &Sweeper{DB: db, Notifier: &LogNotifier{DB: db}}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := sweeper.RunSweep(clock.Now()); err != nil {
				log.Printf("[SWEEP] chạy định kỳ lỗi: %v", err)
			}
		}
	}()
	log.Printf("Escalation scheduler chạy mỗi %s", interval)
}
