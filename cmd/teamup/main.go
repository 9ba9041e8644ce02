// ABOUTME: Entry point for the teamup server and its operator commands
// ABOUTME: serve, bootstrap, token and health subcommands over one config file

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/teamup/internal/account"
	"github.com/2389/teamup/internal/config"
	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/server"
)

// Version is set with -ldflags at build time.
var version = "dev"

const banner = `
  _
 | |_ ___  __ _ _ __ ___  _   _ _ __
 | __/ _ \/ _' | '_ ' _ \| | | | '_ \
 | ||  __/ (_| | | | | | | |_| | |_) |
  \__\___|\__,_|_| |_| |_|\__,_| .__/
                               |_|
`

func usage() {
	fmt.Println("Usage: teamup <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                                               Start the server")
	fmt.Println("  bootstrap --email E --username U --password P       Create the first organizator")
	fmt.Println("  token --subject ID --kind KIND                      Issue a token for an existing user")
	fmt.Println("  health                                              Check server health")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "bootstrap":
		err = runBootstrap(ctx, os.Args[2:])
	case "token":
		err = runToken(ctx, os.Args[2:])
	case "health":
		err = runHealth(ctx)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := config.Path()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", describeDatabase(cfg.Database))
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   %s\n", cfg.Metrics.Path)
	}
	fmt.Println()

	logger.Info("starting teamup",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"driver", cfg.Database.Driver,
	)

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.Run(ctx)
}

// describeDatabase never prints the postgres DSN, which may hold a password.
func describeDatabase(db config.DatabaseConfig) string {
	switch db.Driver {
	case config.DriverSQLite:
		return "sqlite " + db.Path
	case config.DriverMemory:
		return "memory (not persisted)"
	default:
		return db.Driver
	}
}

// parseFlags reads "--name value" and "--name=value" pairs for the allowed names.
func parseFlags(args []string, allowed ...string) (map[string]string, error) {
	values := make(map[string]string, len(allowed))
	isAllowed := func(name string) bool {
		for _, a := range allowed {
			if a == name {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument: %s", arg)
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !isAllowed(name) {
			return nil, fmt.Errorf("unknown flag: %s", arg)
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--%s requires a value", name)
			}
			value = args[i+1]
			i++
		}
		values[name] = value
	}

	for _, name := range allowed {
		if strings.TrimSpace(values[name]) == "" {
			return nil, fmt.Errorf("--%s flag is required", name)
		}
	}
	return values, nil
}

// loadOrCreateConfig loads the config, writing a sqlite config with a random
// JWT secret first if none exists.
func loadOrCreateConfig() (*config.Config, string, error) {
	configPath := config.Path()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeDefaultConfig(configPath); err != nil {
			return nil, "", err
		}
		color.New(color.FgGreen).Printf("  ✓ Created config: %s\n", configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, configPath, nil
}

func writeDefaultConfig(configPath string) error {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

	dataPath := config.DataPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	configContent := fmt.Sprintf(`# teamup configuration
# Generated by teamup bootstrap

server:
  http_addr: "localhost:8080"
  shutdown_timeout: "5s"

database:
  driver: "sqlite"
  path: "%s"

auth:
  jwt_secret: "%s"
  bcrypt_cost: 10

logging:
  level: "info"
  format: "text"

metrics:
  enabled: true
  path: "/metrics"
`, filepath.Join(dataPath, "teamup.db"), jwtSecret)

	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// runBootstrap creates the first organizator and prints a token for it:
//
//	teamup bootstrap --email admin@example.com --username admin --password ...
func runBootstrap(ctx context.Context, args []string) error {
	flags, err := parseFlags(args, "email", "username", "password")
	if err != nil {
		return err
	}

	cfg, configPath, err := loadOrCreateConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverMemory {
		return fmt.Errorf("bootstrap needs a persistent database, %s uses the memory driver", configPath)
	}

	logger := setupLogger(cfg.Logging)
	client, err := server.OpenStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer client.Close()

	services, err := server.NewServices(cfg, client, logger)
	if err != nil {
		return err
	}

	user, err := services.Accounts.Bootstrap(ctx, flags["email"], flags["username"], flags["password"])
	if err != nil {
		return fmt.Errorf("bootstrapping: %w", err)
	}
	if _, err := services.Repos.Audit.Append(ctx, entity.CreateAuditEntry{
		Actor:  user.ID,
		Action: entity.AuditBootstrap,
		Target: user.ID.Record(),
	}); err != nil {
		logger.Warn("failed to append audit entry", "action", entity.AuditBootstrap, "error", err)
	}
	token, err := services.Verifier.Issue(account.Kind(user.Role), user.ID.Key())
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	green.Printf("  ✓ Database: %s\n", describeDatabase(cfg.Database))
	fmt.Println()
	green.Println("  Bootstrap complete!")
	fmt.Println()
	cyan.Println("  Organizator")
	cyan.Println("  -----------")
	fmt.Printf("  ID:       %s\n", user.ID.Key())
	fmt.Printf("  Email:    %s\n", user.Email)
	fmt.Printf("  Username: %s\n", user.Username)
	fmt.Printf("  Token:    %s\n", token)
	fmt.Println()

	yellow.Println("  Ready to go:")
	fmt.Println("    teamup serve    # start the server")
	fmt.Println()
	return nil
}

// runToken issues a token for an existing user. The kind must match the
// user's role or the server will reject the token.
func runToken(ctx context.Context, args []string) error {
	flags, err := parseFlags(args, "subject", "kind")
	if err != nil {
		return err
	}
	role, err := entity.ParseRole(flags["kind"])
	if err != nil {
		return err
	}
	id, err := entity.ParseID[entity.User](flags["subject"])
	if err != nil {
		return fmt.Errorf("invalid --subject: %w", err)
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg.Logging)
	client, err := server.OpenStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer client.Close()

	services, err := server.NewServices(cfg, client, logger)
	if err != nil {
		return err
	}
	user, err := services.Accounts.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("finding user %s: %w", id.Key(), err)
	}
	if user.Role != role {
		return fmt.Errorf("user %s is a %s, not a %s", user.Username, user.Role, role)
	}

	token, err := services.Verifier.Issue(account.Kind(role), id.Key())
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}
	fmt.Println(token)
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health/ready", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
