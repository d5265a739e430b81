package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/middleware"
	"github.com/vnkhanh/chapter-server/models"
)

type ExportRequest struct {
	Format    string  `json:"format"` // csv | xlsx
	RangeFrom *string `json:"range_from,omitempty"`
	RangeTo   *string `json:"range_to,omitempty"`
}

// POST /api/chapters/:id/attendance-export
// Xuất lịch sử điểm danh của chapter ra file, chạy nền theo job.
func CreateAttendanceExport(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var chapter models.Chapter
	if err := config.DB.First(&chapter, c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Chapter không tồn tại"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}
	if !middleware.IsChapterLeader(u.ID, chapter.ID) && !u.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"message": "Chỉ leader hoặc admin được xuất dữ liệu"})
		return
	}

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Payload không hợp lệ"})
		return
	}
	if req.Format == "" {
		req.Format = "csv"
	}
	if req.Format != "csv" && req.Format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "format phải là csv hoặc xlsx"})
		return
	}

	var fromPtr, toPtr *time.Time
	if req.RangeFrom != nil {
		if t, err := time.Parse(time.RFC3339, *req.RangeFrom); err == nil {
			fromPtr = &t
		}
	}
	if req.RangeTo != nil {
		if t, err := time.Parse(time.RFC3339, *req.RangeTo); err == nil {
			toPtr = &t
		}
	}

	jobID := uuid.New().String()
	job := models.ExportJob{
		JobID:     jobID,
		ChapterID: chapter.ID,
		Format:    req.Format,
		RangeFrom: fromPtr,
		RangeTo:   toPtr,
		Status:    "queued",
	}
	config.DB.Create(&job)

	go processAttendanceExport(jobID)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": "queued",
	})
}

// GET /api/exports/:job_id
func GetExport(c *gin.Context) {
	jobID := c.Param("job_id")
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Job không tìm thấy"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Lỗi DB"})
		return
	}

	if job.Status == "done" && job.FilePath != nil {
		c.FileAttachment(*job.FilePath, path.Base(*job.FilePath))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
		"error":  job.ErrorMsg,
	})
}

type attendanceExportRow struct {
	MeetingID      uint
	ScheduledDate  string
	ScheduledTime  string
	MeetingStatus  string
	MemberName     string
	MemberEmail    string
	RSVPStatus     string
	RSVPReason     string
	CheckedInAt    string
	AttendanceType string
	IsLate         bool
}

func exportFail(job *models.ExportJob, err error) {
	em := err.Error()
	config.DB.Model(job).Updates(map[string]interface{}{"status": "failed", "error_msg": em})
}

// xử lý job xuất dữ liệu điểm danh
func processAttendanceExport(jobID string) {
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		return
	}
	config.DB.Model(&job).Update("status", "processing")

	q := config.DB.Where("chapter_id = ?", job.ChapterID)
	if job.RangeFrom != nil {
		q = q.Where("scheduled_date >= ?", job.RangeFrom.Format("2006-01-02"))
	}
	if job.RangeTo != nil {
		q = q.Where("scheduled_date <= ?", job.RangeTo.Format("2006-01-02"))
	}
	var ms []models.Meeting
	if err := q.Order("scheduled_date").Find(&ms).Error; err != nil {
		exportFail(&job, err)
		return
	}

	var rows []attendanceExportRow
	for _, m := range ms {
		var atts []models.Attendance
		if err := config.DB.Preload("User").Where("meeting_id = ?", m.ID).Find(&atts).Error; err != nil {
			exportFail(&job, err)
			return
		}
		for _, a := range atts {
			reason := ""
			if a.RSVPReason != nil {
				reason = *a.RSVPReason
			}
			checkedIn := ""
			if a.CheckedInAt != nil {
				checkedIn = a.CheckedInAt.Format(time.RFC3339)
			}
			attType := ""
			if a.AttendanceType != nil {
				attType = *a.AttendanceType
			}
			rows = append(rows, attendanceExportRow{
				MeetingID:      m.ID,
				ScheduledDate:  m.ScheduledDate,
				ScheduledTime:  m.ScheduledTime,
				MeetingStatus:  m.Status,
				MemberName:     a.User.Name,
				MemberEmail:    a.User.Email,
				RSVPStatus:     a.RSVPStatus,
				RSVPReason:     reason,
				CheckedInAt:    checkedIn,
				AttendanceType: attType,
				IsLate:         a.IsLate,
			})
		}
	}

	outDir := "./exports"
	os.MkdirAll(outDir, 0755)

	var outPath string
	var err error
	if job.Format == "xlsx" {
		outPath = path.Join(outDir, fmt.Sprintf("attendance_%s.xlsx", job.JobID))
		err = writeAttendanceXLSX(outPath, rows)
	} else {
		outPath = path.Join(outDir, fmt.Sprintf("attendance_%s.csv", job.JobID))
		err = writeAttendanceCSV(outPath, rows)
	}
	if err != nil {
		exportFail(&job, err)
		return
	}

	config.DB.Model(&job).Updates(map[string]interface{}{"status": "done", "file_path": outPath})
}

var attendanceExportHeader = []string{
	"meeting_id", "scheduled_date", "scheduled_time", "meeting_status",
	"member_name", "member_email", "rsvp_status", "rsvp_reason",
	"checked_in_at", "attendance_type", "is_late",
}

func (r attendanceExportRow) strings() []string {
	return []string{
		fmt.Sprintf("%d", r.MeetingID),
		r.ScheduledDate,
		r.ScheduledTime,
		r.MeetingStatus,
		r.MemberName,
		r.MemberEmail,
		r.RSVPStatus,
		r.RSVPReason,
		r.CheckedInAt,
		r.AttendanceType,
		fmt.Sprintf("%t", r.IsLate),
	}
}

func writeAttendanceCSV(outPath string, rows []attendanceExportRow) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(attendanceExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.strings()); err != nil {
			return err
		}
	}
	return nil
}

func writeAttendanceXLSX(outPath string, rows []attendanceExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Attendance"
	f.SetSheetName("Sheet1", sheet)

	for i, h := range attendanceExportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for rowIdx, r := range rows {
		for colIdx, v := range r.strings() {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f.SaveAs(outPath)
}
