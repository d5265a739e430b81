package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/chapter-server/controllers"
	"github.com/vnkhanh/chapter-server/middleware"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.POST("/google/login", controllers.GoogleLoginHandler)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthJWT())
		{
			protected.GET("/me", controllers.Me)
		}

		meetings := api.Group("/meetings")
		{
			meetings.Use(middleware.AuthJWT())
			meetings.POST("", middleware.RateLimitMeetingsCreate(), controllers.CreateMeeting) // CH-01
			meetings.GET("", controllers.ListMeetings)                                        // CH-02
			meetings.GET("/:id", controllers.GetMeetingDetail)                                // CH-03
			// Quản lý lịch: chỉ leader/backup leader của chapter
			meetings.PUT("/:id/reschedule", middleware.CheckChapterLeader(), controllers.RescheduleMeeting) // CH-04
			meetings.DELETE("/:id", middleware.CheckChapterLeader(), controllers.DeleteMeeting)             // CH-05
			meetings.PUT("/:id/curriculum", middleware.CheckChapterLeader(), controllers.SelectCurriculum)  // CH-06
			// RSVP / check-in / outreach
			meetings.POST("/:id/rsvp", middleware.RateLimitRsvp(), middleware.CheckChapterMember(), controllers.SubmitRsvp) // CH-10
			meetings.POST("/:id/checkin", middleware.CheckChapterMember(), controllers.CheckIn)                             // CH-11
			meetings.POST("/:id/outreach", middleware.CheckChapterLeader(), controllers.LogLeaderOutreach)                  // CH-12
			// Vòng đời buổi họp
			meetings.POST("/:id/start", middleware.CheckChapterLeader(), controllers.StartMeeting) // CH-20
			meetings.POST("/:id/advance", middleware.CheckScribe(), controllers.AdvanceSection)    // CH-21
			// Artifact từng section
			meetings.POST("/:id/lightning", middleware.CheckChapterMember(), controllers.SubmitLightning)                    // CH-22
			meetings.POST("/:id/curriculum-response", middleware.CheckChapterMember(), controllers.SubmitCurriculumResponse) // CH-23
			meetings.POST("/:id/feedback", middleware.CheckChapterMember(), controllers.SubmitFeedback)                      // CH-24
			// Validation hai bước sau khi completed
			meetings.PUT("/:id/validate/leader", middleware.CheckChapterLeader(), controllers.ValidateAsLeader)          // CH-30
			meetings.PUT("/:id/validate/admin", middleware.RequireAdmin(), controllers.ValidateAsAdmin)                  // CH-31
			// Recording
			meetings.POST("/:id/recordings", middleware.CheckChapterMember(), controllers.UploadMeetingRecording) // CH-40
			meetings.GET("/:id/recordings", middleware.CheckChapterMember(), controllers.ListMeetingRecordings)
		}

		tasks := api.Group("/tasks")
		{
			tasks.Use(middleware.AuthJWT())
			tasks.GET("/my", controllers.ListMyTasks)              // CH-50
			tasks.PUT("/:id/complete", controllers.CompleteTask)   // CH-51
		}

		api.POST("/chapters/:id/attendance-export", middleware.AuthJWT(), controllers.CreateAttendanceExport) // CH-60
		api.GET("/exports/:job_id", middleware.AuthJWT(), controllers.GetExport)

		// Cron ngoài gọi sweep thủ công, bảo vệ bằng X-Cron-Secret
		api.POST("/internal/sweep", controllers.RunSweepNow) // CH-70
	}
}
