package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupMemberAuthServiceTest(t *testing.T) (*MemberAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:member_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Member{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.MemberJWT.SecretKey = "member-auth-test-secret"
	cfg.MemberJWT.ExpireHours = 1
	return NewMemberAuthService(cfg, repository.NewMemberRepository(db)), db
}

func TestMemberAuthServiceRegisterMember(t *testing.T) {
	svc, _ := setupMemberAuthServiceTest(t)

	member, err := svc.RegisterMember("  Alice@Example.COM ", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if member.Email != "alice@example.com" {
		t.Fatalf("email should be normalized, got: %s", member.Email)
	}
	if member.DisplayName != "alice" {
		t.Fatalf("display name should default to local part, got: %s", member.DisplayName)
	}

	// 重复注册返回已有会员
	again, err := svc.RegisterMember("alice@example.com", "someone else")
	if err != nil {
		t.Fatalf("repeat register failed: %v", err)
	}
	if again.ID != member.ID {
		t.Fatalf("repeat register should return existing member: %d vs %d", again.ID, member.ID)
	}

	_, err = svc.RegisterMember("not-an-email", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestMemberAuthServiceJWTRoundTrip(t *testing.T) {
	svc, _ := setupMemberAuthServiceTest(t)

	member, err := svc.RegisterMember("jwt@example.com", "JWT")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, expiresAt, err := svc.GenerateMemberJWT(member)
	if err != nil {
		t.Fatalf("generate jwt failed: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expiry should be in the future: %v", expiresAt)
	}

	claims, err := svc.ParseMemberJWT(token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.MemberID != member.ID || claims.Email != member.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.ParseMemberJWT(token + "x"); err == nil {
		t.Fatal("tampered token should not parse")
	}
}
