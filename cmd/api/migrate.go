package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	authrepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/auth/repo"
	condorepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/repo"
	profilerepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/profile/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	tenantrepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/tenant/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/user"
	userentity "github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/repo"
)

// defaultProfiles seeds the catalog. The role classifier recognizes the
// operator and resident profiles by these descriptions.
var defaultProfiles = []string{"Super Admin", "Condomínio", "Morador"}

type tableEnsurer interface {
	EnsureTable(ctx context.Context) error
}

func newMigrateCmd() *cobra.Command {
	var adminName, adminEmail, adminPassword string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, seed profiles and optionally the first super admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := bootstrap()
			if err != nil {
				return err
			}
			defer e.close()
			return migrate(cmd.Context(), e, adminName, adminEmail, adminPassword)
		},
	}
	cmd.Flags().StringVar(&adminName, "admin-name", "Administrador", "name of the bootstrap super admin")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "create a super admin with this email")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password of the bootstrap super admin")
	return cmd
}

func migrate(ctx context.Context, e *env, adminName, adminEmail, adminPassword string) error {
	profiles := profilerepo.NewProfileRepo(e.db)
	tenants := tenantrepo.NewTenantRepo(e.db)
	accounts := userrepo.NewUserRepo(e.db)

	// dependency order: later tables reference earlier ones
	steps := []struct {
		name string
		repo tableEnsurer
	}{
		{"profiles", profiles},
		{"tenants", tenants},
		{"accounts", accounts},
		{"sessions", authrepo.NewSessionRepo(e.db)},
		{"units", condorepo.NewUnitRepo(e.db)},
		{"bills", condorepo.NewBillRepo(e.db)},
		{"payables", condorepo.NewPayableRepo(e.db)},
		{"ledger_entries", condorepo.NewLedgerRepo(e.db)},
		{"meetings", condorepo.NewMeetingRepo(e.db)},
		{"notices", condorepo.NewNoticeRepo(e.db)},
	}
	for _, s := range steps {
		if err := s.repo.EnsureTable(ctx); err != nil {
			return fmt.Errorf("ensure %s: %w", s.name, err)
		}
		e.sugar.Infow("table ready", "table", s.name)
	}
	if err := profiles.Seed(ctx, defaultProfiles); err != nil {
		return fmt.Errorf("seed profiles: %w", err)
	}

	if adminEmail == "" {
		return nil
	}
	all, err := profiles.List(ctx)
	if err != nil {
		return err
	}
	var profileID int64
	for _, p := range all {
		if strings.EqualFold(p.Description, defaultProfiles[0]) {
			profileID = p.ID
		}
	}
	if profileID == 0 {
		return fmt.Errorf("profile %q missing", defaultProfiles[0])
	}
	super := true
	svc := user.NewUserService(accounts, user.BcryptHasher{}, tenants, e.sugar)
	acc, err := svc.Create(ctx, userentity.Input{
		Name:         &adminName,
		Email:        &adminEmail,
		Password:     &adminPassword,
		ProfileID:    &profileID,
		IsSuperAdmin: &super,
	})
	if errors.Is(err, scope.ErrConflict) {
		e.sugar.Infow("super admin already exists", "email", adminEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}
	e.sugar.Infow("super admin created", "account", acc.ID)
	return nil
}
