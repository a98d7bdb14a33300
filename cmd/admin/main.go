// 运维命令行：管理员角色只能在这里改，HTTP 接口不开放
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"ecosol/internal/core/config"
	"ecosol/internal/core/database"
	"ecosol/internal/core/logger"
	"ecosol/internal/domain"
	"ecosol/internal/repo"
	"ecosol/internal/service"
)

const usage = `usage: admin [--config path] <command> [email]

commands:
  promote <email>   grant ADMIN (creates the users row if missing)
  demote <email>    back to USER
  admins            list ADMIN emails
  migrate           run database migrations
`

func main() {
	_ = godotenv.Load()
	cfgPath := flag.StringP("config", "c", os.Getenv("CONFIG_PATH"), "config file")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad(*cfgPath)
	log, cleanup := logger.New(logger.Options{Level: cfg.Log.Level})
	defer cleanup()

	db, err := database.NewGorm(database.Opts{
		Driver:       cfg.DB.Driver,
		DSN:          cfg.DB.DSN,
		Username:     cfg.DB.Username,
		Password:     cfg.DB.Password,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		LogLevel:     cfg.DB.LogLevel,
		Log:          log,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	users := service.NewUserService(repo.NewUserRepo(db), log)
	if err := run(ctx, users, func() error { return repo.AutoMigrate(db) }, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, users *service.UserService, migrate func() error, args []string) error {
	email := ""
	if len(args) > 1 {
		email = domain.NormalizeEmail(args[1])
	}
	switch args[0] {
	case "promote", "demote":
		if email == "" {
			return fmt.Errorf("%s needs an email", args[0])
		}
		role := domain.RoleAdmin
		if args[0] == "demote" {
			role = domain.RoleUser
		}
		if _, err := users.EnsureUser(ctx, email); err != nil {
			return err
		}
		if err := users.SetRole(ctx, email, role); err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", email, role)
	case "admins":
		emails, err := users.Admins(ctx)
		if err != nil {
			return err
		}
		for _, e := range emails {
			fmt.Println(e)
		}
	case "migrate":
		if err := migrate(); err != nil {
			return err
		}
		fmt.Println("migrated")
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}
