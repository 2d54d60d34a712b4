// Command accountctl performs operator tasks against the account database:
// applying migrations, bootstrapping an admin and disabling accounts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/app"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/database"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/logger"
)

const usage = `usage: accountctl <command> [args]

commands:
  migrate up          apply pending migrations
  migrate status      print migration state
  create-admin        prompt for credentials and register an admin account
  disable <id>        disable an account and deactivate its cart
`

var errUsage = errors.New("invalid arguments")

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Printf("accountctl: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cmd, err := parseCommand(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Only an explicit "migrate up" touches the schema.
	cfg.App.AutoMigrate = false

	zl, err := logger.New(cfg.App.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	core, err := app.NewCore(ctx, cfg, zl, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := core.Close(); cerr != nil {
			zl.Warn("close core", zap.Error(cerr))
		}
	}()

	switch cmd.name {
	case "migrate up":
		return database.Migrate(ctx, core.Pool, zl)
	case "migrate status":
		return database.MigrationStatus(ctx, core.Pool)
	case "create-admin":
		return createAdmin(ctx, core.Services.Accounts, in, out)
	case "disable":
		return disable(ctx, core.Services.Accounts, cmd.arg, out)
	}
	return errUsage
}

type command struct {
	name string
	arg  string
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errUsage
	}
	switch args[0] {
	case "migrate":
		if len(args) != 2 || (args[1] != "up" && args[1] != "status") {
			return command{}, errUsage
		}
		return command{name: "migrate " + args[1]}, nil
	case "create-admin":
		if len(args) != 1 {
			return command{}, errUsage
		}
		return command{name: args[0]}, nil
	case "disable":
		if len(args) != 2 || args[1] == "" {
			return command{}, errUsage
		}
		return command{name: args[0], arg: args[1]}, nil
	}
	return command{}, errUsage
}
