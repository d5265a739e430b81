package controllers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"

	"github.com/vnkhanh/chapter-server/config"
	"github.com/vnkhanh/chapter-server/middleware"
	"github.com/vnkhanh/chapter-server/models"
	"github.com/vnkhanh/chapter-server/utils"
)

type DangKyReq struct {
	Ten     string  `json:"ten" binding:"required,min=1"`
	Email   string  `json:"email" binding:"required,email"`
	MatKhau string  `json:"mat_khau" binding:"required,min=6"`
	Phone   *string `json:"phone"`
}

func Register(c *gin.Context) {
	var req DangKyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var count int64
	config.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Email đã tồn tại"})
		return
	}

	hash, err := utils.HashPassword(req.MatKhau)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể mã hóa mật khẩu"})
		return
	}

	u := models.User{
		Name:     req.Ten,
		Email:    req.Email,
		Password: hash,
		Phone:    req.Phone,
	}

	if err := config.DB.Create(&u).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể tạo tài khoản"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": gin.H{
			"id":       u.ID,
			"name":     u.Name,
			"email":    u.Email,
			"is_admin": u.IsAdmin,
		},
	})
}

type DangNhapReq struct {
	Email   string `json:"email" binding:"required,email"`
	MatKhau string `json:"mat_khau" binding:"required"`
}

func Login(c *gin.Context) {
	var req DangNhapReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	var u models.User
	if err := config.DB.Where("email = ?", req.Email).First(&u).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Email hoặc mật khẩu không đúng"})
		return
	}
	if !utils.CheckPassword(u.Password, req.MatKhau) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Email hoặc mật khẩu không đúng"})
		return
	}

	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	token, err := utils.GenerateToken(fmt.Sprintf("%d", u.ID), role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể tạo token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       u.ID,
			"name":     u.Name,
			"email":    u.Email,
			"is_admin": u.IsAdmin,
		},
	})
}

// GoogleLoginHandler nhận id_token từ client (Google Identity Services),
// verify với audience = GOOGLE_CLIENT_ID rồi phát JWT nội bộ.
func GoogleLoginHandler(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	if clientID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "GOOGLE_CLIENT_ID chưa được cấu hình"})
		return
	}

	payload, err := idtoken.Validate(c.Request.Context(), req.IDToken, clientID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Google token không hợp lệ"})
		return
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Google token thiếu email"})
		return
	}
	if name == "" {
		name = email
	}

	// Lần đầu đăng nhập bằng Google thì tạo tài khoản luôn
	var u models.User
	err = config.DB.Where("email = ?", email).First(&u).Error
	if err != nil {
		hash, herr := utils.HashPassword(payload.Subject)
		if herr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể tạo tài khoản"})
			return
		}
		u = models.User{Name: name, Email: email, Password: hash}
		if cerr := config.DB.Create(&u).Error; cerr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể tạo tài khoản"})
			return
		}
	}

	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	token, err := utils.GenerateToken(fmt.Sprintf("%d", u.ID), role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Không thể tạo token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       u.ID,
			"name":     u.Name,
			"email":    u.Email,
			"is_admin": u.IsAdmin,
		},
	})
}

// Me trả về user hiện tại kèm các chapter membership.
func Me(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var memberships []models.ChapterMember
	config.DB.Where("user_id = ?", u.ID).Find(&memberships)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       u.ID,
			"name":     u.Name,
			"email":    u.Email,
			"phone":    u.Phone,
			"is_admin": u.IsAdmin,
		},
		"memberships": memberships,
	})
}
