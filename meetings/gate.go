package meetings

import (
	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/models"
)

// GateResult: kết quả kiểm tra điều kiện đóng một section.
type GateResult struct {
	Missing []uint // user_id của attendee đã check-in nhưng chưa nộp artifact
	Skip    bool   // section không có nội dung áp dụng (curriculum chưa chọn module)
}

func (g GateResult) Satisfied() bool { return g.Skip || len(g.Missing) == 0 }

// SectionGate đọc lại attendance + artifact NGAY TRƯỚC khi đánh giá —
// không dùng snapshot cũ trong request, để gate luôn thấy check-in/submission
// vừa ghi xong của các thành viên khác.
func SectionGate(db *gorm.DB, m *models.Meeting, section string) (GateResult, error) {
	var res GateResult

	// Curriculum chưa chọn module thì được bỏ qua vô điều kiện.
	if section == SectionCurriculum && m.CurriculumModuleID == nil {
		res.Skip = true
		return res, nil
	}

	var table string
	switch section {
	case SectionNotStarted, SectionCheckin:
		// not_started không có gate; checkin chỉ cần tập người đã check-in.
		return res, nil
	case SectionLightning:
		table = models.LightningUpdate{}.TableName()
	case SectionCurriculum:
		table = models.CurriculumResponse{}.TableName()
	case SectionClosing:
		table = models.Feedback{}.TableName()
	default:
		return res, ErrInvalidTransition
	}

	var checkedIn []models.Attendance
	if err := db.Where("meeting_id = ? AND checked_in_at IS NOT NULL", m.ID).
		Find(&checkedIn).Error; err != nil {
		return res, err
	}

	var submitted []uint
	if err := db.Table(table).
		Where("meeting_id = ?", m.ID).
		Pluck("user_id", &submitted).Error; err != nil {
		return res, err
	}
	has := make(map[uint]bool, len(submitted))
	for _, id := range submitted {
		has[id] = true
	}

	for _, att := range checkedIn {
		if !has[att.UserID] {
			res.Missing = append(res.Missing, att.UserID)
		}
	}
	return res, nil
}
