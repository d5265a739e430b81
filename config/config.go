package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/vnkhanh/chapter-server/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// LoadEnv đọc .env nếu có (dev local); trên Render dùng ENV hệ thống.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy .env, dùng ENV từ hệ thống")
	}
}

// ConnectDB khởi tạo kết nối PostgreSQL và migrate bảng
func ConnectDB() {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Ho_Chi_Minh",
		host, user, password, dbName, port)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	DB = db
	log.Println("Connected to PostgreSQL & migrated successfully")
}

// Migrate chạy AutoMigrate + các index không khai báo được bằng tag gorm.
// Tách riêng để test gọi được trên sqlite in-memory.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Chapter{},
		&models.ChapterMember{},
		&models.CurriculumModule{},
		&models.Meeting{},
		&models.Attendance{},
		&models.SectionTimeLog{},
		&models.PendingTask{},
		&models.NotificationLog{},
		&models.LightningUpdate{},
		&models.CurriculumResponse{},
		&models.Feedback{},
		&models.Recording{},
		&models.ExportJob{},
	)
	if err != nil {
		return err
	}

	// Idempotency của pending task phải nằm ở tầng storage: mỗi bộ
	// (task_type, assigned_to, related_type, related_id) chỉ một task đang mở.
	// Partial index chạy được cả trên Postgres lẫn sqlite (test).
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_pending_tasks_open
		ON pending_tasks (task_type, assigned_to, related_type, related_id)
		WHERE completed_at IS NULL`).Error
}
