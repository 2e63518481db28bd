package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr string
	root := &cobra.Command{
		Use:           "condominio-api",
		Short:         "Multi-tenant condominium management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// best effort: real env or defaults when no .env exists
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return runServe(cmd.Context(), addr) },
	}
	root.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// env is the process-wide logger and database pool shared by commands.
type env struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	db     *sqlx.DB
}

func bootstrap() (*env, error) {
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return nil, err
	}
	sugar := lg.Sugar()
	db, err := database.Open(database.ConfigFromEnv())
	if err != nil {
		sugar.Errorw("db connect failed", "err", err)
		_ = lg.Sync()
		return nil, err
	}
	return &env{logger: lg, sugar: sugar, db: db}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.sugar.Warnw("db close failed", "err", err)
	}
	_ = e.logger.Sync()
}
