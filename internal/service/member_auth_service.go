package service

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// MemberAuthService 会员身份服务
// 会员体系只承担卡券持有人的最小身份：注册邮箱、签发与解析访问令牌
type MemberAuthService struct {
	cfg        *config.Config
	memberRepo repository.MemberRepository
}

// NewMemberAuthService 创建会员身份服务
func NewMemberAuthService(cfg *config.Config, memberRepo repository.MemberRepository) *MemberAuthService {
	return &MemberAuthService{
		cfg:        cfg,
		memberRepo: memberRepo,
	}
}

// MemberJWTClaims 会员 JWT 声明
type MemberJWTClaims struct {
	MemberID uint   `json:"member_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// RegisterMember 注册会员
func (s *MemberAuthService) RegisterMember(email, displayName string) (*models.Member, error) {
	if s == nil || s.memberRepo == nil {
		return nil, ErrInvalidInput
	}
	normalized, err := normalizeMemberEmail(email)
	if err != nil {
		return nil, err
	}
	exist, err := s.memberRepo.GetByEmail(normalized)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if exist != nil {
		return exist, nil
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		parts := strings.SplitN(normalized, "@", 2)
		name = parts[0]
	}
	now := time.Now()
	member := &models.Member{
		Email:       normalized,
		DisplayName: name,
		Status:      constants.MemberStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.memberRepo.Create(member); err != nil {
		return nil, ErrInvalidInput
	}
	return member, nil
}

// GenerateMemberJWT 签发会员访问令牌
func (s *MemberAuthService) GenerateMemberJWT(member *models.Member) (string, time.Time, error) {
	if s == nil || s.cfg == nil || member == nil {
		return "", time.Time{}, ErrInvalidInput
	}
	expireHours := s.cfg.MemberJWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)
	claims := MemberJWTClaims{
		MemberID: member.ID,
		Email:    member.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.MemberJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseMemberJWT 解析会员访问令牌
func (s *MemberAuthService) ParseMemberJWT(tokenString string) (*MemberJWTClaims, error) {
	if s == nil || s.cfg == nil {
		return nil, ErrInvalidInput
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &MemberJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.MemberJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*MemberJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// GetMemberByID 获取会员信息
func (s *MemberAuthService) GetMemberByID(id uint) (*models.Member, error) {
	if s == nil || s.memberRepo == nil || id == 0 {
		return nil, ErrMemberNotFound
	}
	member, err := s.memberRepo.GetByID(id)
	if err != nil {
		return nil, ErrMemberNotFound
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func normalizeMemberEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidInput
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidInput
	}
	return normalized, nil
}
