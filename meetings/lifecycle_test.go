package meetings

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/models"
	"github.com/vnkhanh/chapter-server/utils"
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

func seedChapter(t *testing.T, db *gorm.DB, memberCount int) (models.Chapter, []models.User) {
	t.Helper()
	chapter := models.Chapter{Name: "Chapter Sài Gòn", City: "HCM"}
	if err := db.Create(&chapter).Error; err != nil {
		t.Fatalf("tạo chapter lỗi: %v", err)
	}

	users := make([]models.User, 0, memberCount)
	for i := 0; i < memberCount; i++ {
		u := models.User{
			Name:     fmt.Sprintf("Thành viên %d", i+1),
			Email:    fmt.Sprintf("member%d@example.com", i+1),
			Password: "x",
		}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("tạo user lỗi: %v", err)
		}
		role := models.RoleMember
		if i == 0 {
			role = models.RoleLeader
		}
		if err := db.Create(&models.ChapterMember{ChapterID: chapter.ID, UserID: u.ID, Role: role}).Error; err != nil {
			t.Fatalf("tạo membership lỗi: %v", err)
		}
		users = append(users, u)
	}
	return chapter, users
}

func seedMeeting(t *testing.T, db *gorm.DB, chapterID uint, date, tm string) models.Meeting {
	t.Helper()
	m := models.Meeting{
		ChapterID:        chapterID,
		ScheduledDate:    date,
		ScheduledTime:    tm,
		Location:         "Quán cà phê quen",
		Status:           StatusScheduled,
		CurrentSection:   SectionNotStarted,
		ValidationStatus: ValidationNone,
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("tạo meeting lỗi: %v", err)
	}
	return m
}

func checkIn(t *testing.T, db *gorm.DB, meetingID, userID uint, at time.Time) models.Attendance {
	t.Helper()
	att := models.Attendance{
		MeetingID:   meetingID,
		UserID:      userID,
		RSVPStatus:  models.RSVPYes,
		CheckedInAt: &at,
	}
	if err := db.Create(&att).Error; err != nil {
		t.Fatalf("tạo attendance lỗi: %v", err)
	}
	return att
}

// advanceTo đẩy meeting qua các section tới đích, nộp artifact hộ các attendee
// đã check-in để qua gate.
func advanceTo(t *testing.T, db *gorm.DB, m *models.Meeting, target string, userIDs []uint, now time.Time) {
	t.Helper()
	for {
		var cur models.Meeting
		if err := db.First(&cur, m.ID).Error; err != nil {
			t.Fatalf("đọc meeting lỗi: %v", err)
		}
		if cur.CurrentSection == target {
			return
		}
		submitArtifacts(t, db, &cur, userIDs)
		if _, err := Advance(db, m.ID, now); err != nil {
			t.Fatalf("advance từ %s lỗi: %v", cur.CurrentSection, err)
		}
	}
}

func submitArtifacts(t *testing.T, db *gorm.DB, m *models.Meeting, userIDs []uint) {
	t.Helper()
	for _, uid := range userIDs {
		switch m.CurrentSection {
		case SectionLightning:
			db.Where("meeting_id = ? AND user_id = ?", m.ID, uid).
				FirstOrCreate(&models.LightningUpdate{MeetingID: m.ID, UserID: uid, Content: "update"})
		case SectionCurriculum:
			if m.CurriculumModuleID != nil {
				db.Where("meeting_id = ? AND user_id = ?", m.ID, uid).
					FirstOrCreate(&models.CurriculumResponse{MeetingID: m.ID, UserID: uid, Content: "trả lời"})
			}
		case SectionClosing:
			db.Where("meeting_id = ? AND user_id = ?", m.ID, uid).
				FirstOrCreate(&models.Feedback{MeetingID: m.ID, UserID: uid, Rating: 5})
		}
	}
}

func TestStartTransitions(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, users := seedChapter(t, db, 2)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	scheduledAt, _ := utils.CombineDateTime("2026-09-15", "19:00")

	res, err := Start(db, m.ID, users[0].ID, scheduledAt.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("start lỗi: %v", err)
	}
	if res.Meeting.Status != StatusInProgress {
		t.Errorf("status phải là in_progress, got %s", res.Meeting.Status)
	}
	if res.LateStart {
		t.Error("start trước giờ hẹn không được tính là late")
	}
	if res.Meeting.ScribeID == nil || *res.Meeting.ScribeID != users[0].ID {
		t.Error("scribe_id phải được ghi")
	}

	// Start lần hai phải bị từ chối
	if _, err := Start(db, m.ID, users[0].ID, scheduledAt); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("start lần 2 phải trả ErrInvalidTransition, got %v", err)
	}
}

func TestStartLateFlag(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, users := seedChapter(t, db, 1)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	scheduledAt, _ := utils.CombineDateTime("2026-09-15", "19:00")
	res, err := Start(db, m.ID, users[0].ID, scheduledAt.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("start lỗi: %v", err)
	}
	if !res.LateStart {
		t.Error("start sau giờ hẹn phải có cờ late_start")
	}
}

func TestAdvanceGateBlocksThenPasses(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, users := seedChapter(t, db, 3)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	now, _ := utils.CombineDateTime("2026-09-15", "19:00")
	if _, err := Start(db, m.ID, users[0].ID, now); err != nil {
		t.Fatalf("start lỗi: %v", err)
	}
	for _, u := range users[:2] {
		checkIn(t, db, m.ID, u.ID, now)
	}

	// not_started -> checkin -> lightning: hai bước đầu không có gate artifact
	if _, err := Advance(db, m.ID, now.Add(time.Minute)); err != nil {
		t.Fatalf("advance vào checkin lỗi: %v", err)
	}
	if _, err := Advance(db, m.ID, now.Add(10*time.Minute)); err != nil {
		t.Fatalf("advance vào lightning lỗi: %v", err)
	}

	// Mới 1/2 attendee nộp lightning -> gate chặn
	db.Create(&models.LightningUpdate{MeetingID: m.ID, UserID: users[0].ID, Content: "tuần này ổn"})
	_, err := Advance(db, m.ID, now.Add(20*time.Minute))
	if !errors.Is(err, ErrSectionNotReady) {
		t.Fatalf("gate phải chặn khi còn người chưa nộp, got %v", err)
	}

	// Người còn lại nộp xong -> gate mở
	db.Create(&models.LightningUpdate{MeetingID: m.ID, UserID: users[1].ID, Content: "tuần này bận"})
	res, err := Advance(db, m.ID, now.Add(25*time.Minute))
	if err != nil {
		t.Fatalf("advance sau khi đủ artifact lỗi: %v", err)
	}
	if res.To != SectionCurriculum {
		t.Errorf("phải tiến vào curriculum, got %s", res.To)
	}
}

func TestAdvanceSkipsCurriculumWithoutModule(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, users := seedChapter(t, db, 2)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	now, _ := utils.CombineDateTime("2026-09-15", "19:00")
	if _, err := Start(db, m.ID, users[0].ID, now); err != nil {
		t.Fatalf("start lỗi: %v", err)
	}
	checkIn(t, db, m.ID, users[0].ID, now)

	advanceTo(t, db, &m, SectionCurriculum, []uint{users[0].ID}, now.Add(time.Minute))

	// Không có module -> đóng curriculum không cần artifact, time log đánh dấu skipped
	res, err := Advance(db, m.ID, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("advance qua curriculum trống lỗi: %v", err)
	}
	if !res.Skipped {
		t.Error("curriculum không có module phải được skip")
	}

	var logRow models.SectionTimeLog
	if err := db.Where("meeting_id = ? AND section = ?", m.ID, SectionCurriculum).First(&logRow).Error; err != nil {
		t.Fatalf("đọc time log lỗi: %v", err)
	}
	if !logRow.Skipped {
		t.Error("time log của curriculum phải có cờ skipped")
	}
}

func TestCompletionEntersValidationChain(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, users := seedChapter(t, db, 2)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	now, _ := utils.CombineDateTime("2026-09-15", "19:00")
	if _, err := Start(db, m.ID, users[0].ID, now); err != nil {
		t.Fatalf("start lỗi: %v", err)
	}
	checkIn(t, db, m.ID, users[0].ID, now)
	advanceTo(t, db, &m, SectionCompleted, []uint{users[0].ID}, now.Add(time.Hour))

	var done models.Meeting
	db.First(&done, m.ID)
	if done.Status != StatusCompleted {
		t.Fatalf("status phải là completed, got %s", done.Status)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at phải được ghi")
	}
	if done.ValidationStatus != ValidationAwaitingLeader {
		t.Fatalf("completed phải vào awaiting_leader, got %s", done.ValidationStatus)
	}

	// Admin không được duyệt trước leader
	if _, err := ValidateAdmin(db, m.ID, 999, true, "", now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("admin duyệt trước leader phải bị chặn, got %v", err)
	}

	if _, err := ValidateLeader(db, m.ID, users[0].ID, "đủ mặt", now); err != nil {
		t.Fatalf("leader validate lỗi: %v", err)
	}
	// Leader validate lần 2 -> conflict
	if _, err := ValidateLeader(db, m.ID, users[0].ID, "", now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("leader validate lần 2 phải bị chặn, got %v", err)
	}

	validated, err := ValidateAdmin(db, m.ID, 999, false, "thiếu biên bản", now)
	if err != nil {
		t.Fatalf("admin validate lỗi: %v", err)
	}
	if validated.ValidationStatus != ValidationRejected {
		t.Errorf("approve=false phải ra rejected, got %s", validated.ValidationStatus)
	}
}

func TestRescheduleResetsRsvps(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, users := seedChapter(t, db, 3)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	// 2 người RSVP nhưng chưa check-in, 1 người đã check-in
	for _, u := range users[:2] {
		db.Create(&models.Attendance{MeetingID: m.ID, UserID: u.ID, RSVPStatus: models.RSVPYes})
	}
	now, _ := utils.CombineDateTime("2026-09-15", "18:50")
	checkIn(t, db, m.ID, users[2].ID, now)

	updated, err := Reschedule(db, m.ID, "2026-09-22", "20:00")
	if err != nil {
		t.Fatalf("reschedule lỗi: %v", err)
	}
	if updated.ScheduledDate != "2026-09-22" || updated.ScheduledTime != "20:00" {
		t.Errorf("ngày giờ mới chưa được ghi: %s %s", updated.ScheduledDate, updated.ScheduledTime)
	}

	var remaining []models.Attendance
	db.Where("meeting_id = ?", m.ID).Find(&remaining)
	if len(remaining) != 1 {
		t.Fatalf("chỉ attendance đã check-in được giữ lại, got %d", len(remaining))
	}
	if remaining[0].UserID != users[2].ID {
		t.Error("giữ nhầm attendance")
	}

	// Ngày không hợp lệ -> precondition failed
	if _, err := Reschedule(db, m.ID, "22/09/2026", "20:00"); !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("ngày sai định dạng phải trả ErrPreconditionFailed, got %v", err)
	}
}

func TestDeleteProtectWindow(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, _ := seedChapter(t, db, 1)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	scheduledAt, _ := utils.CombineDateTime("2026-09-15", "19:00")

	// Còn 1 ngày -> trong cửa sổ bảo vệ, không được xóa
	err := Delete(db, m.ID, scheduledAt.Add(-24*time.Hour), nil)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("xóa trong cửa sổ bảo vệ phải bị chặn, got %v", err)
	}

	// Còn 3 ngày -> được xóa
	if err := Delete(db, m.ID, scheduledAt.Add(-72*time.Hour), nil); err != nil {
		t.Fatalf("xóa ngoài cửa sổ bảo vệ lỗi: %v", err)
	}
	var count int64
	db.Model(&models.Meeting{}).Where("id = ?", m.ID).Count(&count)
	if count != 0 {
		t.Error("meeting phải bị xóa")
	}
}

func TestDeleteCompletedMeetingForbidden(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, _ := seedChapter(t, db, 1)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	now := time.Now()
	db.Model(&models.Meeting{}).Where("id = ?", m.ID).
		Updates(map[string]interface{}{"status": StatusCompleted, "completed_at": now})

	if err := Delete(db, m.ID, now, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("meeting completed là bất biến, got %v", err)
	}
}

func TestDeleteCascadeAllOrNothing(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, users := seedChapter(t, db, 2)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	now, _ := utils.CombineDateTime("2026-09-10", "19:00")
	att := checkIn(t, db, m.ID, users[0].ID, now)
	db.Create(&models.LightningUpdate{MeetingID: m.ID, UserID: users[0].ID, Content: "x"})
	db.Create(&models.Feedback{MeetingID: m.ID, UserID: users[0].ID, Rating: 4})
	db.Create(&models.Recording{MeetingID: m.ID, UploadedBy: users[0].ID, ObjectKey: "meeting_1/a.mp3"})
	db.Create(&models.SectionTimeLog{MeetingID: m.ID, Section: SectionCheckin, StartedAt: now})
	db.Create(&models.PendingTask{
		TaskType: models.TaskRespondToRSVP, AssignedTo: users[1].ID,
		RelatedType: "meeting", RelatedID: m.ID,
	})
	db.Create(&models.PendingTask{
		TaskType: models.TaskContactUnresponsiveMember, AssignedTo: users[1].ID,
		RelatedType: "attendance", RelatedID: att.ID,
	})

	// Blob xóa thất bại -> toàn bộ cascade phải rollback
	failingRemover := func(keys []string) error { return errors.New("storage timeout") }
	err := Delete(db, m.ID, now, failingRemover)
	if !errors.Is(err, ErrDependencyFailure) {
		t.Fatalf("blob lỗi phải trả ErrDependencyFailure, got %v", err)
	}
	var count int64
	db.Model(&models.Meeting{}).Where("id = ?", m.ID).Count(&count)
	if count != 1 {
		t.Fatal("cascade lỗi thì meeting phải còn nguyên")
	}
	db.Model(&models.Attendance{}).Where("meeting_id = ?", m.ID).Count(&count)
	if count != 1 {
		t.Fatal("cascade lỗi thì attendance phải còn nguyên")
	}

	// Blob xóa được -> mọi bảng con sạch tham chiếu
	var removed []string
	okRemover := func(keys []string) error {
		removed = append(removed, keys...)
		return nil
	}
	if err := Delete(db, m.ID, now, okRemover); err != nil {
		t.Fatalf("delete lỗi: %v", err)
	}
	if len(removed) != 1 || removed[0] != "meeting_1/a.mp3" {
		t.Errorf("blob remover phải nhận đúng object key, got %v", removed)
	}

	for name, model := range map[string]interface{}{
		"meetings":             &models.Meeting{},
		"attendances":          &models.Attendance{},
		"lightning_updates":    &models.LightningUpdate{},
		"feedbacks":            &models.Feedback{},
		"recordings":           &models.Recording{},
		"section_time_logs":    &models.SectionTimeLog{},
	} {
		var n int64
		db.Model(model).Count(&n)
		if n != 0 {
			t.Errorf("bảng %s phải rỗng sau cascade, còn %d row", name, n)
		}
	}
	db.Model(&models.PendingTask{}).Count(&count)
	if count != 0 {
		t.Errorf("pending task tham chiếu meeting/attendance phải bị xóa, còn %d", count)
	}
}

func TestConcurrentAdvanceSingleWinner(t *testing.T) {
	t.Setenv("TZ_NAME", "Asia/Ho_Chi_Minh")
	db := openTestDB(t)
	chapter, users := seedChapter(t, db, 1)
	m := seedMeeting(t, db, chapter.ID, "2026-09-15", "19:00")

	now, _ := utils.CombineDateTime("2026-09-15", "19:00")
	if _, err := Start(db, m.ID, users[0].ID, now); err != nil {
		t.Fatalf("start lỗi: %v", err)
	}

	// Hai advance nối tiếp mô phỏng double-click: bước 2 đọc lại state mới nên
	// tiến tiếp chứ không lặp; còn update có điều kiện bảo đảm không ghi đè
	// khi precondition (status, current_section) đã đổi dưới chân.
	res1, err := Advance(db, m.ID, now)
	if err != nil {
		t.Fatalf("advance 1 lỗi: %v", err)
	}
	if res1.To != SectionCheckin {
		t.Fatalf("advance 1 phải vào checkin, got %s", res1.To)
	}

	// Ép tái hiện bên thua: trả meeting về section cũ trong bộ nhớ không giúp
	// gì vì Advance tự đọc DB; thay vào đó kiểm tra update có điều kiện trực tiếp.
	upd := db.Model(&models.Meeting{}).
		Where("id = ? AND status = ? AND current_section = ?", m.ID, StatusInProgress, SectionNotStarted).
		Update("current_section", SectionCheckin)
	if upd.Error != nil {
		t.Fatalf("update lỗi: %v", upd.Error)
	}
	if upd.RowsAffected != 0 {
		t.Error("precondition cũ không còn đúng thì update phải không ăn row nào")
	}
}
