package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/traffictuner/traffictuner/internal/credits/domain"
	obsmetrics "github.com/traffictuner/traffictuner/internal/observability/metrics"
	"github.com/traffictuner/traffictuner/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("credits.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) EnsureAccount(ctx context.Context, userID snowflake.ID) (*domain.CreditAccount, error) {
	return s.ensureAccountIn(ctx, s.db, userID)
}

func (s *Service) ensureAccountIn(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (*domain.CreditAccount, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	account, err := s.repo.FindAccountByUserID(ctx, conn, userID)
	if err == nil {
		return account, nil
	}
	if err != domain.ErrAccountNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	account = &domain.CreditAccount{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateAccount(ctx, conn, account); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindAccountByUserID(ctx, conn, userID)
		}
		return nil, err
	}
	return account, nil
}

func (s *Service) Grant(ctx context.Context, userID snowflake.ID, amount int64, reference, description string) error {
	return s.apply(ctx, userID, amount, domain.EntryKindGrant, reference, description)
}

func (s *Service) Debit(ctx context.Context, userID snowflake.ID, amount int64, reference, description string) error {
	return s.apply(ctx, userID, amount, domain.EntryKindDebit, reference, description)
}

func (s *Service) Refund(ctx context.Context, userID snowflake.ID, amount int64, reference, description string) error {
	return s.apply(ctx, userID, amount, domain.EntryKindRefund, reference, description)
}

func (s *Service) DebitTx(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, reference, description string) error {
	applied, err := s.applyIn(ctx, tx, userID, amount, domain.EntryKindDebit, reference, description)
	if err != nil {
		return err
	}
	s.afterApply(ctx, applied, userID, -amount, domain.EntryKindDebit, reference)
	return nil
}

func (s *Service) RefundTx(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, reference, description string) error {
	applied, err := s.applyIn(ctx, tx, userID, amount, domain.EntryKindRefund, reference, description)
	if err != nil {
		return err
	}
	s.afterApply(ctx, applied, userID, amount, domain.EntryKindRefund, reference)
	return nil
}

func (s *Service) Balance(ctx context.Context, userID snowflake.ID) (int64, error) {
	if userID == 0 {
		return 0, domain.ErrInvalidUser
	}
	account, err := s.repo.FindAccountByUserID(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (s *Service) History(ctx context.Context, userID snowflake.ID, limit int) ([]domain.CreditEntry, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	account, err := s.repo.FindAccountByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, s.db, account.ID, limit)
}

// apply writes one ledger entry and its balance move in a single
// transaction. The unique (account, reference, kind) index makes replays
// no-ops: if the entry already exists the balance is left untouched.
func (s *Service) apply(ctx context.Context, userID snowflake.ID, amount int64, kind, reference, description string) error {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		applied, err = s.applyIn(ctx, tx, userID, amount, kind, reference, description)
		return err
	})
	if err != nil {
		return err
	}

	delta := amount
	if kind == domain.EntryKindDebit {
		delta = -amount
	}
	s.afterApply(ctx, applied, userID, delta, kind, reference)
	return nil
}

// applyIn is the transactional body of apply; tx must be an open
// transaction so the entry row, the balance move and the user mirror
// commit or roll back together with the caller's writes.
func (s *Service) applyIn(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, kind, reference, description string) (bool, error) {
	if userID == 0 {
		return false, domain.ErrInvalidUser
	}
	if amount <= 0 {
		return false, domain.ErrInvalidAmount
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return false, domain.ErrInvalidReference
	}

	delta := amount
	if kind == domain.EntryKindDebit {
		delta = -amount
	}

	account, err := s.ensureAccountIn(ctx, tx, userID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	inserted, err := s.repo.InsertEntry(ctx, tx, &domain.CreditEntry{
		ID:          s.genID.Generate(),
		AccountID:   account.ID,
		Amount:      delta,
		Kind:        kind,
		Reference:   reference,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
	})
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	moved, err := s.repo.AdjustBalance(ctx, tx, account.ID, delta)
	if err != nil {
		return false, err
	}
	if !moved {
		return false, domain.ErrInsufficientCredits
	}

	// Mirror the spendable balance onto the user row so session
	// payloads stay cheap to build.
	if err := tx.WithContext(ctx).Exec(
		`UPDATE users SET credits = credits + ?, updated_at = ? WHERE id = ?`,
		delta, now, userID,
	).Error; err != nil {
		return false, err
	}

	return true, nil
}

func (s *Service) afterApply(ctx context.Context, applied bool, userID snowflake.ID, delta int64, kind, reference string) {
	if !applied {
		return
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordCreditEntry(ctx, kind)
	}
	s.log.Info("credit entry applied",
		zap.String("user_id", userID.String()),
		zap.String("kind", kind),
		zap.String("reference", reference),
		zap.Int64("amount", delta),
	)
}
