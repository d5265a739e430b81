package tasks

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("mở sqlite in-memory lỗi: %v", err)
	}
	// DB in-memory sống theo connection -> giữ đúng 1 connection
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate lỗi: %v", err)
	}
	return db
}

func countOpenTasks(t *testing.T, db *gorm.DB, taskType string, assignee uint) int64 {
	t.Helper()
	var n int64
	db.Model(&models.PendingTask{}).
		Where("task_type = ? AND assigned_to = ? AND completed_at IS NULL", taskType, assignee).
		Count(&n)
	return n
}

func TestCreateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	created, err := Create(db, models.TaskRespondToRSVP, 10, MeetingRef(1), nil, nil)
	if err != nil {
		t.Fatalf("create lần 1 lỗi: %v", err)
	}
	if !created {
		t.Fatal("create lần 1 phải tạo task mới")
	}

	// Gọi lại cùng bộ khóa -> no-op, không lỗi
	created, err = Create(db, models.TaskRespondToRSVP, 10, MeetingRef(1), nil, nil)
	if err != nil {
		t.Fatalf("create lần 2 lỗi: %v", err)
	}
	if created {
		t.Error("create lần 2 phải là no-op")
	}

	if n := countOpenTasks(t, db, models.TaskRespondToRSVP, 10); n != 1 {
		t.Errorf("phải có đúng 1 task đang mở, got %d", n)
	}
}

func TestCreateAfterCompleteMakesNewTask(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	Create(db, models.TaskRespondToRSVP, 10, MeetingRef(1), nil, nil)
	if err := CompleteMatching(db, models.TaskRespondToRSVP, 10, MeetingRef(1), now); err != nil {
		t.Fatalf("complete lỗi: %v", err)
	}

	// Task cũ đã đóng thì bộ khóa được tái sử dụng
	created, err := Create(db, models.TaskRespondToRSVP, 10, MeetingRef(1), nil, nil)
	if err != nil {
		t.Fatalf("create sau complete lỗi: %v", err)
	}
	if !created {
		t.Error("create sau complete phải tạo task mới")
	}

	var total int64
	db.Model(&models.PendingTask{}).Where("assigned_to = ?", 10).Count(&total)
	if total != 2 {
		t.Errorf("phải có 2 row (1 đóng + 1 mở), got %d", total)
	}
	if n := countOpenTasks(t, db, models.TaskRespondToRSVP, 10); n != 1 {
		t.Errorf("phải có đúng 1 task đang mở, got %d", n)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	Create(db, models.TaskSelectCurriculum, 5, MeetingRef(2), nil, nil)

	var task models.PendingTask
	db.Where("assigned_to = ?", 5).First(&task)

	if err := Complete(db, task.ID, now); err != nil {
		t.Fatalf("complete lần 1 lỗi: %v", err)
	}
	db.First(&task, task.ID)
	firstStamp := task.CompletedAt
	if firstStamp == nil {
		t.Fatal("completed_at phải được ghi")
	}

	// Complete lần 2 không được ghi đè mốc cũ
	later := now.Add(time.Hour)
	if err := Complete(db, task.ID, later); err != nil {
		t.Fatalf("complete lần 2 lỗi: %v", err)
	}
	db.First(&task, task.ID)
	if !task.CompletedAt.Equal(*firstStamp) {
		t.Errorf("completed_at bị ghi đè: %v -> %v", firstStamp, task.CompletedAt)
	}
}

func TestEscalateOnlyOpenTask(t *testing.T) {
	db := openTestDB(t)

	Create(db, models.TaskRespondToRSVP, 7, MeetingRef(3), nil, nil)
	if err := Escalate(db, models.TaskRespondToRSVP, 7, MeetingRef(3), models.UrgencyReminded); err != nil {
		t.Fatalf("escalate lỗi: %v", err)
	}

	var task models.PendingTask
	db.Where("assigned_to = ?", 7).First(&task)
	if task.Urgency != models.UrgencyReminded {
		t.Errorf("urgency phải là reminded, got %s", task.Urgency)
	}

	// Không có task mở khớp bộ khóa -> no-op
	if err := Escalate(db, models.TaskRespondToRSVP, 99, MeetingRef(3), models.UrgencyEscalated); err != nil {
		t.Fatalf("escalate bộ không tồn tại phải là no-op, got %v", err)
	}
}

func TestCreateStoresMetadataAndDueAt(t *testing.T) {
	db := openTestDB(t)
	due := time.Now().Add(48 * time.Hour)

	meta := map[string]interface{}{"member_id": 42, "member_name": "An"}
	created, err := Create(db, models.TaskContactUnresponsiveMember, 3, AttendanceRef(9), meta, &due)
	if err != nil || !created {
		t.Fatalf("create lỗi: created=%v err=%v", created, err)
	}

	var task models.PendingTask
	db.Where("assigned_to = ?", 3).First(&task)
	if task.MetadataJSON == "" {
		t.Error("metadata_json phải được ghi")
	}
	if task.DueAt == nil {
		t.Error("due_at phải được ghi")
	}
	if task.RelatedType != "attendance" || task.RelatedID != 9 {
		t.Errorf("related sai: %s/%d", task.RelatedType, task.RelatedID)
	}
}
