package bootstrap

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/charchit19/auth-mindsparkle/internal/config"
	"github.com/charchit19/auth-mindsparkle/internal/repository"
)

// EnsureAdminList seeds the admin allow-list from ADMIN_EMAILS at startup.
// Membership is decided per account once, at registration, so rows added
// here only affect accounts created afterwards.
func EnsureAdminList(lc fx.Lifecycle, cfg config.Config, admins repository.AdminListRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureAdminList(ctx, cfg, admins, logger)
		},
	})
}

func ensureAdminList(ctx context.Context, cfg config.Config, admins repository.AdminListRepository, logger *zap.Logger) error {
	seeded := 0
	for _, raw := range cfg.AdminEmails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" {
			continue
		}
		if err := admins.Add(ctx, email); err != nil {
			return err
		}
		seeded++
	}

	if logger != nil && seeded > 0 {
		logger.Info("admin allow-list seeded", zap.Int("emails", seeded))
	}
	return nil
}
