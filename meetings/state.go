package meetings

import (
	"errors"
	"time"

	"github.com/vnkhanh/chapter-server/models"
	"github.com/vnkhanh/chapter-server/utils"
)

// Trạng thái vòng đời của meeting.
const (
	StatusScheduled    = "scheduled"
	StatusInProgress   = "in_progress"
	StatusCompleted    = "completed"
	StatusIncomplete   = "incomplete"
	StatusNeverStarted = "never_started"
	StatusTimedOut     = "timed_out"
)

// Trạng thái validation sau khi meeting completed.
const (
	ValidationNone           = "none"
	ValidationAwaitingLeader = "awaiting_leader"
	ValidationAwaitingAdmin  = "awaiting_admin"
	ValidationApproved       = "approved"
	ValidationRejected       = "rejected"
)

// Các section của một buổi họp, theo đúng thứ tự diễn ra.
const (
	SectionNotStarted = "not_started"
	SectionCheckin    = "checkin"
	SectionLightning  = "lightning"
	SectionCurriculum = "curriculum"
	SectionClosing    = "closing"
	SectionCompleted  = "completed"
)

// sectionOrder là bảng chuyển trạng thái duy nhất: current_section chỉ được
// tiến theo thứ tự này, không bao giờ lùi. Mọi chỗ so sánh section đều phải
// đi qua SectionIndex/NextSection thay vì so chuỗi rải rác.
var sectionOrder = []string{
	SectionNotStarted,
	SectionCheckin,
	SectionLightning,
	SectionCurriculum,
	SectionClosing,
	SectionCompleted,
}

// SectionIndex trả về vị trí của section trong thứ tự chuẩn, -1 nếu không hợp lệ.
func SectionIndex(section string) int {
	for i, s := range sectionOrder {
		if s == section {
			return i
		}
	}
	return -1
}

// NextSection trả về section kế tiếp; ok=false khi đã ở cuối hoặc section lạ.
func NextSection(section string) (string, bool) {
	i := SectionIndex(section)
	if i < 0 || i >= len(sectionOrder)-1 {
		return "", false
	}
	return sectionOrder[i+1], true
}

// Taxonomy lỗi của engine; controller map sang HTTP status.
var (
	ErrNotFound           = errors.New("không tìm thấy")
	ErrUnauthorized       = errors.New("không có quyền")
	ErrInvalidTransition  = errors.New("trạng thái hiện tại không cho phép thao tác này")
	ErrSectionNotReady    = errors.New("section chưa đủ điều kiện để đóng")
	ErrPreconditionFailed = errors.New("chưa thỏa điều kiện")
	ErrDependencyFailure  = errors.New("dịch vụ phụ thuộc lỗi")
)

// ScheduledAt ghép ngày + giờ đã lưu của meeting thành mốc thời gian tuyệt đối.
func ScheduledAt(m *models.Meeting) (time.Time, error) {
	return utils.CombineDateTime(m.ScheduledDate, m.ScheduledTime)
}
