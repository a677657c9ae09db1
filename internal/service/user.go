package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"starwish/config"
	"starwish/internal/model"
	"starwish/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// UserService 用户服务
type UserService struct{}

var userService *UserService

// GetUserService 获取用户服务
func GetUserService() *UserService {
	if userService == nil {
		userService = &UserService{}
	}
	return userService
}

// Register 注册
func (s *UserService) Register(email, password, nickname string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("邮箱格式不正确")
	}
	if len(password) < 6 {
		return nil, errors.New("密码至少6位")
	}

	var count int64
	model.GetDB().Model(&model.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, errors.New("该邮箱已注册")
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return nil, errors.New("注册失败")
	}

	user := model.User{
		Email:    email,
		Nickname: strings.TrimSpace(nickname),
		Password: hashed,
		Status:   1,
	}
	if err := model.GetDB().Create(&user).Error; err != nil {
		return nil, errors.New("注册失败")
	}
	return &user, nil
}

// Login 登录，成功后更新最近登录时间
func (s *UserService) Login(email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user model.User
	if err := model.GetDB().Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("邮箱或密码错误")
		}
		return nil, errors.New("登录失败")
	}
	if user.Status != 1 {
		return nil, errors.New("账号已被禁用")
	}
	if !util.CheckPassword(password, user.Password) {
		return nil, errors.New("邮箱或密码错误")
	}

	now := time.Now()
	if err := model.GetDB().Model(&user).Update("last_login", now).Error; err != nil {
		log.Printf("更新登录时间失败 user=%d: %v", user.ID, err)
	}
	user.LastLogin = &now
	return &user, nil
}

// GenerateToken 签发用户Token
func (s *UserService) GenerateToken(user *model.User) (string, error) {
	c := config.Get()
	secret := "change-this-secret-key-in-production"
	expireHour := 168
	if c != nil {
		if c.JWT.Secret != "" {
			secret = c.JWT.Secret
		}
		if c.JWT.ExpireHour > 0 {
			expireHour = c.JWT.ExpireHour
		}
	}

	claims := jwt.MapClaims{
		"type":    "user",
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(time.Duration(expireHour) * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// UpdateProfile 更新昵称
func (s *UserService) UpdateProfile(userID uint, nickname string) (*model.User, error) {
	var user model.User
	if err := model.GetDB().First(&user, userID).Error; err != nil {
		return nil, errors.New("用户不存在")
	}
	if err := model.GetDB().Model(&user).Update("nickname", strings.TrimSpace(nickname)).Error; err != nil {
		return nil, errors.New("更新失败")
	}
	return &user, nil
}

// ChangePassword 修改密码
func (s *UserService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return errors.New("新密码至少6位")
	}

	var user model.User
	if err := model.GetDB().First(&user, userID).Error; err != nil {
		return errors.New("用户不存在")
	}
	if !util.CheckPassword(oldPassword, user.Password) {
		return errors.New("原密码错误")
	}

	hashed, err := util.HashPassword(newPassword)
	if err != nil {
		return errors.New("修改失败")
	}
	if err := model.GetDB().Model(&user).Update("password", hashed).Error; err != nil {
		return errors.New("修改失败")
	}
	return nil
}
