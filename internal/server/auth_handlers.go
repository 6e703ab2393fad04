package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/auth"
	"github.com/taskdesk-dev/taskdesk/internal/models"
)

const tokenType = "bearer"

// currentUser loads the caller's account
func (s *Server) currentUser(rc *requestContext) (*models.User, error) {
	var user models.User
	if err := models.FindByID(s.db.WithContext(rc), rc.userID(), &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUnauthenticated()
		}
		return nil, err
	}
	return &user, nil
}

func (s *Server) resolveMe(rc *requestContext, _ json.RawMessage) (any, error) {
	user, err := s.currentUser(rc)
	if err != nil {
		return nil, err
	}
	return toAPIUser(user), nil
}

func (s *Server) resolveUsers(rc *requestContext, _ json.RawMessage) (any, error) {
	var users []models.User
	if err := s.db.WithContext(rc).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	out := make([]*api.User, len(users))
	for i := range users {
		out[i] = toAPIUser(&users[i])
	}
	return out, nil
}

func (s *Server) authPayload(user *models.User) (*api.AuthPayload, error) {
	token, err := s.issuer.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &api.AuthPayload{
		User:        toAPIUser(user),
		AccessToken: token,
		TokenType:   tokenType,
	}, nil
}

func (s *Server) resolveLogin(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		UsernameOrEmail string `json:"usernameOrEmail"`
		Password        string `json:"password"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}

	identifier := strings.TrimSpace(args.UsernameOrEmail)
	if identifier == "" || args.Password == "" {
		return nil, errBadInput("Username or email and password are required")
	}

	var user models.User
	err := s.db.WithContext(rc).
		Where("email = ? OR username = ?", identifier, identifier).
		First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil || !auth.VerifyPassword(user.PasswordHash, args.Password) {
		return nil, errBadInput("Incorrect email/username or password")
	}

	if !user.IsActive {
		return nil, errBadInput("Inactive user")
	}

	payload, err := s.authPayload(&user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(rc).Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		rc.log.Warn().Err(err).Int("user_id", user.ID).Msg("Failed to record last login")
	}

	s.logActivity(rc, user.ID, actionUserLogin, resourceUser, user.ID, "User logged in successfully")
	rc.log.Info().Int("user_id", user.ID).Msg("User logged in")

	return payload, nil
}

func (s *Server) resolveRegister(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		UserInput api.UserInput `json:"userInput"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}
	input := args.UserInput
	input.Email = strings.TrimSpace(input.Email)
	input.Username = strings.TrimSpace(input.Username)

	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if input.Role == "" {
		input.Role = api.RoleDeveloper
	}

	db := s.db.WithContext(rc)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errBadInput("Email already registered")
	}
	if err := db.Model(&models.User{}).Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errBadInput("Username already taken")
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        input.Email,
		Username:     input.Username,
		FullName:     input.FullName,
		PasswordHash: passwordHash,
		Role:         string(input.Role),
		Phone:        input.Phone,
		Department:   input.Department,
		Position:     input.Position,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}

	payload, err := s.authPayload(user)
	if err != nil {
		return nil, err
	}

	s.logActivity(rc, user.ID, actionUserRegistered, resourceUser, user.ID, "User registered successfully")
	rc.log.Info().Int("user_id", user.ID).Str("username", user.Username).Msg("User registered")

	return payload, nil
}

func (s *Server) resolveUpdateProfile(rc *requestContext, vars json.RawMessage) (any, error) {
	var args struct {
		ProfileInput api.ProfileInput `json:"profileInput"`
	}
	if err := decodeVars(vars, &args); err != nil {
		return nil, err
	}
	input := args.ProfileInput
	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err)
	}

	user, err := s.currentUser(rc)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FullName != nil {
		updates["full_name"] = *input.FullName
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Department != nil {
		updates["department"] = *input.Department
	}
	if input.Position != nil {
		updates["position"] = *input.Position
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(rc).Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
		s.logActivity(rc, user.ID, actionProfileUpdated, resourceUser, user.ID, "Updated profile")
	}

	if err := models.FindByID(s.db.WithContext(rc), user.ID, user); err != nil {
		return nil, err
	}
	return toAPIUser(user), nil
}
