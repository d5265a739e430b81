package scheduler

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/models"
	"github.com/vnkhanh/chapter-server/tasks"
	"github.com/vnkhanh/chapter-server/utils"
)

// SweepResult: tổng kết một lượt quét.
type SweepResult struct {
	MeetingsIn3Days   int `json:"meetings_in_3_days"`
	MeetingsIn2Days   int `json:"meetings_in_2_days"`
	NotificationsSent int `json:"notifications_sent"`
	TasksCreated      int `json:"tasks_created"`
}

// Sweeper quét các meeting ở hai mốc cố định (mặc định 3 ngày và 2 ngày trước
// buổi họp) để nhắc RSVP và leo thang lên leader. Stateless: mọi state nằm ở DB,
// nên chạy lại bao nhiêu lần cùng một "now" cũng cho đúng một kết quả
// (gate reminder_sent_at / leader_outreach_logged_at + idempotency của task).
type Sweeper struct {
	DB       *gorm.DB
	Notifier Notifier
}

// RunSweep là entry point duy nhất, nhận "now" từ ngoài (cron truyền vào,
// test truyền clock cố định) — không bao giờ tự đọc time.Now bên trong.
func (s *Sweeper) RunSweep(now time.Time) (SweepResult, error) {
	var res SweepResult

	// Mốc 1: meeting diễn ra sau REMINDER_DAYS ngày -> nhắc người chưa phản hồi.
	reminderDate := now.AddDate(0, 0, utils.ReminderDays()).In(utils.AppLocation()).Format(utils.DateLayout)
	remindMeetings, err := s.scheduledOn(reminderDate)
	if err != nil {
		return res, err
	}
	res.MeetingsIn3Days = len(remindMeetings)
	for i := range remindMeetings {
		s.remindMeeting(&remindMeetings[i], now, &res)
	}

	// Mốc 2: meeting diễn ra sau ESCALATION_DAYS ngày -> leo thang lên leader.
	escalateDate := now.AddDate(0, 0, utils.EscalationDays()).In(utils.AppLocation()).Format(utils.DateLayout)
	escalateMeetings, err := s.scheduledOn(escalateDate)
	if err != nil {
		return res, err
	}
	res.MeetingsIn2Days = len(escalateMeetings)
	for i := range escalateMeetings {
		s.escalateMeeting(&escalateMeetings[i], now, &res)
	}

	log.Printf("[SWEEP] now=%s remind=%d escalate=%d sent=%d tasks=%d",
		now.Format(time.RFC3339), res.MeetingsIn3Days, res.MeetingsIn2Days,
		res.NotificationsSent, res.TasksCreated)
	return res, nil
}

func (s *Sweeper) scheduledOn(date string) ([]models.Meeting, error) {
	var ms []models.Meeting
	err := s.DB.Where("status = ? AND scheduled_date = ?", "scheduled", date).Find(&ms).Error
	return ms, err
}

// ensureAttendanceRows tạo lười attendance no_response cho thành viên chapter
// chưa có row — scheduler cần row để theo dõi người im lặng.
func (s *Sweeper) ensureAttendanceRows(m *models.Meeting) error {
	var members []models.ChapterMember
	if err := s.DB.Where("chapter_id = ?", m.ChapterID).Find(&members).Error; err != nil {
		return err
	}
	var existing []uint
	if err := s.DB.Model(&models.Attendance{}).
		Where("meeting_id = ?", m.ID).
		Pluck("user_id", &existing).Error; err != nil {
		return err
	}
	has := make(map[uint]bool, len(existing))
	for _, id := range existing {
		has[id] = true
	}
	for _, mem := range members {
		if has[mem.UserID] {
			continue
		}
		att := models.Attendance{
			MeetingID:  m.ID,
			UserID:     mem.UserID,
			RSVPStatus: models.RSVPNoResponse,
		}
		if err := s.DB.Create(&att).Error; err != nil {
			// Unique (meeting,user) dính do RSVP vừa chen ngang -> bỏ qua.
			log.Printf("[SWEEP] meeting=%d user=%d tạo attendance lỗi: %v", m.ID, mem.UserID, err)
		}
	}
	return nil
}

// remindMeeting: gửi nhắc qua email + sms cho attendee no_response chưa nhận
// reminder. Lỗi một kênh/một người không chặn phần còn lại.
func (s *Sweeper) remindMeeting(m *models.Meeting, now time.Time, res *SweepResult) {
	if err := s.ensureAttendanceRows(m); err != nil {
		log.Printf("[SWEEP] meeting=%d ensure attendance lỗi: %v", m.ID, err)
		return
	}

	var atts []models.Attendance
	if err := s.DB.Where("meeting_id = ? AND rsvp_status = ? AND reminder_sent_at IS NULL",
		m.ID, models.RSVPNoResponse).Find(&atts).Error; err != nil {
		log.Printf("[SWEEP] meeting=%d query attendance lỗi: %v", m.ID, err)
		return
	}

	subject := fmt.Sprintf("Nhắc RSVP: buổi họp ngày %s %s", m.ScheduledDate, m.ScheduledTime)
	body := fmt.Sprintf("Chapter của bạn họp lúc %s ngày %s tại %s. Vui lòng xác nhận tham dự.",
		m.ScheduledTime, m.ScheduledDate, m.Location)

	for _, att := range atts {
		sentAny := false
		for _, channel := range []string{models.ChannelEmail, models.ChannelSMS} {
			err := s.Notifier.Send(Notification{
				UserID:      att.UserID,
				Channel:     channel,
				Purpose:     "rsvp_reminder",
				Subject:     subject,
				Body:        body,
				RelatedType: "meeting",
				RelatedID:   m.ID,
			})
			if err != nil {
				// Kênh lỗi: ghi log rồi đi tiếp kênh/người sau.
				log.Printf("[SWEEP] meeting=%d user=%d channel=%s gửi lỗi: %v", m.ID, att.UserID, channel, err)
				continue
			}
			sentAny = true
			res.NotificationsSent++
		}

		if sentAny {
			// reminder_sent_at ghi tối đa một lần; điều kiện IS NULL giữ
			// idempotent khi hai sweep chạy chồng nhau.
			if err := s.DB.Model(&models.Attendance{}).
				Where("id = ? AND reminder_sent_at IS NULL", att.ID).
				Update("reminder_sent_at", now).Error; err != nil {
				log.Printf("[SWEEP] attendance=%d stamp reminder lỗi: %v", att.ID, err)
				continue
			}
		}

		if err := tasks.Escalate(s.DB, models.TaskRespondToRSVP, att.UserID,
			tasks.MeetingRef(m.ID), models.UrgencyReminded); err != nil {
			log.Printf("[SWEEP] attendance=%d escalate reminded lỗi: %v", att.ID, err)
		}
	}
}

// escalateMeeting: attendee vẫn im lặng sát ngày họp -> đẩy urgency lên
// escalated và giao leader/backup nhiệm vụ liên hệ trực tiếp.
func (s *Sweeper) escalateMeeting(m *models.Meeting, now time.Time, res *SweepResult) {
	var atts []models.Attendance
	if err := s.DB.Preload("User").
		Where("meeting_id = ? AND rsvp_status = ? AND leader_outreach_logged_at IS NULL",
			m.ID, models.RSVPNoResponse).Find(&atts).Error; err != nil {
		log.Printf("[SWEEP] meeting=%d query attendance lỗi: %v", m.ID, err)
		return
	}
	if len(atts) == 0 {
		return
	}

	var leaders []models.ChapterMember
	if err := s.DB.Where("chapter_id = ? AND role IN ?", m.ChapterID,
		[]string{models.RoleLeader, models.RoleBackupLeader}).Find(&leaders).Error; err != nil {
		log.Printf("[SWEEP] meeting=%d query leaders lỗi: %v", m.ID, err)
		return
	}

	var dueAt *time.Time
	if at, err := utils.CombineDateTime(m.ScheduledDate, m.ScheduledTime); err == nil {
		dueAt = &at
	}

	for _, att := range atts {
		if err := tasks.Escalate(s.DB, models.TaskRespondToRSVP, att.UserID,
			tasks.MeetingRef(m.ID), models.UrgencyEscalated); err != nil {
			log.Printf("[SWEEP] attendance=%d escalate lỗi: %v", att.ID, err)
			continue
		}

		phone := ""
		if att.User.Phone != nil {
			phone = *att.User.Phone
		}
		meta := map[string]interface{}{
			"member_id":      att.UserID,
			"member_name":    att.User.Name,
			"member_phone":   phone,
			"meeting_id":     m.ID,
			"scheduled_date": m.ScheduledDate,
			"scheduled_time": m.ScheduledTime,
		}

		for _, leader := range leaders {
			created, err := tasks.Create(s.DB, models.TaskContactUnresponsiveMember,
				leader.UserID, tasks.AttendanceRef(att.ID), meta, dueAt)
			if err != nil {
				log.Printf("[SWEEP] attendance=%d leader=%d tạo task lỗi: %v", att.ID, leader.UserID, err)
				continue
			}
			if !created {
				// Task đã có từ sweep trước -> không thông báo lại.
				continue
			}
			res.TasksCreated++

			err = s.Notifier.Send(Notification{
				UserID:      leader.UserID,
				Channel:     models.ChannelEmail,
				Purpose:     "leader_contact_request",
				Subject:     fmt.Sprintf("Cần liên hệ %s trước buổi họp %s", att.User.Name, m.ScheduledDate),
				Body:        fmt.Sprintf("%s chưa phản hồi RSVP cho buổi họp ngày %s. Vui lòng liên hệ trực tiếp.", att.User.Name, m.ScheduledDate),
				RelatedType: "attendance",
				RelatedID:   att.ID,
			})
			if err != nil {
				log.Printf("[SWEEP] leader=%d gửi thông báo lỗi: %v", leader.UserID, err)
				continue
			}
			res.NotificationsSent++
		}
	}
}
