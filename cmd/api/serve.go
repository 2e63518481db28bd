package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/auth"
	authrepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/auth/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio"
	condorepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/profile"
	profilerepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/profile/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/tenant"
	tenantrepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/tenant/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/repo"
)

const sessionPurgeInterval = time.Hour

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runServe(cmd.Context(), addr) },
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func runServe(parent context.Context, addr string) error {
	if parent == nil {
		parent = context.Background()
	}
	e, err := bootstrap()
	if err != nil {
		return err
	}
	defer e.close()
	sugar := e.sugar
	sugar.Info("starting condominio-api")

	version, closeVersion := profile.NewVersion(profile.VersionConfigFromEnv())
	defer func() {
		if err := closeVersion(); err != nil {
			sugar.Warnw("redis close failed", "err", err)
		}
	}()

	profiles := profile.NewService(profilerepo.NewProfileRepo(e.db), version, sugar)
	classifier := scope.NewClassifier(profiles, version)
	tenants := tenant.NewService(tenantrepo.NewTenantRepo(e.db), sugar)
	users := user.NewUserService(userrepo.NewUserRepo(e.db), user.BcryptHasher{}, tenants, sugar)
	sessions := authrepo.NewSessionRepo(e.db)

	authCfg := auth.ConfigFromEnv()
	issuer, err := auth.NewTokenIssuer(authCfg)
	if err != nil {
		sugar.Errorw("token issuer", "err", err)
		return err
	}
	resolver := auth.NewResolver(users, classifier, sessions)
	authSvc := auth.NewService(users, issuer, sessions, classifier, sugar)

	files, err := storage.New(storage.ConfigFromEnv())
	if err != nil {
		sugar.Errorw("attachment storage", "err", err)
		return err
	}

	sc := condominio.NewScoper(scope.NewGuard(sugar), scope.NewTenantResolver(users), classifier, sugar)
	units := condorepo.NewUnitRepo(e.db)
	residents := condorepo.NewResidentRepo(e.db)
	svcs := condominio.Services{
		Units:     condominio.NewUnitService(units, residents, sc),
		Bills:     condominio.NewBillService(condorepo.NewBillRepo(e.db), units, files, sc),
		Payables:  condominio.NewPayableService(condorepo.NewPayableRepo(e.db), units, sc),
		Ledger:    condominio.NewLedgerService(condorepo.NewLedgerRepo(e.db), sc),
		Meetings:  condominio.NewMeetingService(condorepo.NewMeetingRepo(e.db), sc),
		Notices:   condominio.NewNoticeService(condorepo.NewNoticeRepo(e.db), sc),
		Residents: condominio.NewResidentService(residents, users, classifier, units, sc),
	}

	cfg := router.ConfigFromEnv()
	if addr != "" {
		cfg.Addr = addr
	}
	handler := router.RegisterRoutes(sugar, router.Deps{
		Auth:       auth.NewHandler(authSvc, issuer, authCfg, sugar),
		Guard:      auth.NewMiddleware(issuer, resolver, tenants, authCfg.CookieName, sugar),
		Tenants:    tenant.NewHandler(tenants, sugar),
		Users:      user.NewHandler(users, sugar),
		Profiles:   profile.NewHandler(profiles, sugar),
		Condominio: condominio.NewHandler(svcs, sugar),
		Login:      router.NewRateLimiter(cfg.LoginRatePerSecond, cfg.LoginRateBurst, sugar),
	})

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeSessions(ctx, sessions, sugar)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		sugar.Infow("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			sugar.Errorw("http server failed", "err", err)
			return err
		}
	}

	sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnw("http server shutdown failed", "err", err)
	}
	sugar.Info("goodbye")
	return nil
}

type sessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func purgeSessions(ctx context.Context, sessions sessionPurger, sugar *zap.SugaredLogger) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				sugar.Warnw("session purge failed", "err", err)
				continue
			}
			sugar.Debugw("expired sessions purged", "count", n)
		}
	}
}
