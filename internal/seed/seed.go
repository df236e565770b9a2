package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	authdomain "github.com/traffictuner/traffictuner/internal/auth/domain"
	"github.com/traffictuner/traffictuner/internal/auth/password"
	"github.com/traffictuner/traffictuner/internal/config"
	creditsdomain "github.com/traffictuner/traffictuner/internal/credits/domain"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	"gorm.io/gorm"
)

const (
	defaultAdminPassword = "admin"
	defaultAdminName     = "TrafficTuner Admin"
	demoDomainURL        = "https://demo.traffictuner.io"
	demoDomainName       = "TrafficTuner Demo"
)

// EnsureAdminUser seeds a super admin account for dev-mode bootstrap. An
// existing account with the configured email is left untouched.
func EnsureAdminUser(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	email := strings.ToLower(strings.TrimSpace(cfg.Bootstrap.AdminEmail))
	if email == "" {
		return errors.New("bootstrap admin email is required")
	}

	adminPassword := cfg.Bootstrap.AdminPassword
	if adminPassword == "" {
		adminPassword = defaultAdminPassword
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
		if err == nil {
			if err := ensureCreditAccountTx(ctx, tx, node, user.ID); err != nil {
				return err
			}
			return ensureDemoDomainTx(ctx, tx, node, user.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(adminPassword)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			Name:         defaultAdminName,
			PasswordHash: hashed,
			Role:         authdomain.RoleSuperAdmin,
			IsNewUser:    false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
			return err
		}
		if err := ensureCreditAccountTx(ctx, tx, node, user.ID); err != nil {
			return err
		}
		return ensureDemoDomainTx(ctx, tx, node, user.ID)
	})
}

func ensureCreditAccountTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, userID snowflake.ID) error {
	var account creditsdomain.CreditAccount
	err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	account = creditsdomain.CreditAccount{
		ID:        node.Generate(),
		UserID:    userID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&account).Error
}

func ensureDemoDomainTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, userID snowflake.ID) error {
	var existing domainsdomain.Domain
	err := tx.WithContext(ctx).Where("user_id = ? AND url = ?", userID, demoDomainURL).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	demo := domainsdomain.Domain{
		ID:          node.Generate(),
		UserID:      userID,
		URL:         demoDomainURL,
		DisplayName: demoDomainName,
		Slug:        slug.Make(demoDomainName),
		Status:      domainsdomain.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return tx.WithContext(ctx).Create(&demo).Error
}
