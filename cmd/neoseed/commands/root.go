package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	neoseed "github.com/saulfrancisco-ruizacevedo/go-neoseed"
	"github.com/saulfrancisco-ruizacevedo/go-neoseed/cmd/neoseed/output"
)

var (
	// Global flags
	configFile   string
	fixturesFile string
	logLevel     string

	logger  = slog.Default()
	console = output.NewConsole(os.Stdout)

	// openConnection is replaced in tests.
	openConnection = func(ctx context.Context, cfg neoseed.Config) (connection, error) {
		conn, err := neoseed.Open(ctx, cfg, neoseed.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
)

// connection is the part of *neoseed.Connection the commands use.
type connection interface {
	neoseed.Executor
	Verify(ctx context.Context) error
	Close(ctx context.Context) error
}

// rootCmd represents the base command. Without a subcommand it runs the
// full workflow.
var rootCmd = &cobra.Command{
	Use:   "neoseed",
	Short: "Seed a Neo4j database with a role/user/test graph",
	Long: `neoseed wipes a Neo4j database, loads roles, users and tests, links them
by their roleId and creatorId attributes, runs a few report queries and
finally adds and removes a user to show the graph is left unchanged.

Connection settings come from flags, NEO4J_* environment variables (a .env
file in the working directory is read too), or a YAML config file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runWorkflow,
}

// Execute runs the root command and exits with its status
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line in args and returns the exit status: 1 when
// the configuration is invalid or the database cannot be reached, 0
// otherwise, even if some steps failed.
func execute(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.String("uri", "", "Bolt URI (default bolt://localhost:7687)")
	flags.String("user", "", "Database user (default neo4j)")
	flags.String("password", "", "Database password")
	flags.String("database", "", "Database name (default neo4j)")
	flags.StringVar(&fixturesFile, "fixtures", "", "YAML seed data file (default: built-in data)")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func setup(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig merges defaults, the config file, NEO4J_* variables and flags,
// in increasing order of precedence.
func loadConfig(flags *pflag.FlagSet) (neoseed.Config, error) {
	v := viper.New()

	def := neoseed.DefaultConfig()
	v.SetDefault("uri", def.URI)
	v.SetDefault("user", def.User)
	v.SetDefault("password", def.Password)
	v.SetDefault("database", def.Database)
	v.SetDefault("max_pool_size", def.MaxPoolSize)
	v.SetDefault("connect_timeout", def.ConnectTimeout)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return neoseed.Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("NEO4J")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"uri", "user", "password", "database"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return neoseed.Config{}, err
		}
	}

	var cfg neoseed.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return neoseed.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return neoseed.Config{}, err
	}
	return cfg, nil
}

func loadFixtures() (*neoseed.Fixtures, error) {
	if fixturesFile == "" {
		return neoseed.DefaultFixtures()
	}
	return neoseed.LoadFixtures(fixturesFile)
}

// connect opens a verified connection. The caller must close it.
func connect(ctx context.Context, cmd *cobra.Command) (connection, error) {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return openConnection(ctx, cfg)
}

func closeConnection(ctx context.Context, conn connection) {
	if err := conn.Close(ctx); err != nil {
		logger.Warn("failed to close connection", "error", err)
	}
}

func newLoader(conn neoseed.Executor) (*neoseed.Loader, error) {
	fixtures, err := loadFixtures()
	if err != nil {
		return nil, err
	}
	return neoseed.NewLoader(conn, fixtures,
		neoseed.WithReporter(console),
		neoseed.WithLoaderLogger(logger))
}

// reportSummary lists failed steps as a note. A run with failed steps still
// completes normally.
func reportSummary(s neoseed.Summary) {
	if s.OK() {
		return
	}
	console.Muted("%d step(s) failed: %s", len(s.FailedSteps), strings.Join(s.FailedSteps, ", "))
}

// teardown closes the connection and prints the closing lines.
func teardown(ctx context.Context, conn connection) {
	closeConnection(ctx, conn)
	console.Success("Connection closed")
	console.Success("All operations complete")
}
