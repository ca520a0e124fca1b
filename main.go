package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	api "github.com/rpupo63/rpgm-blog/api"
	"github.com/rpupo63/rpgm-blog/config"
	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/services"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}
	cfg := config.New()

	if refs := config.SSMReferences(cfg); len(refs) > 0 {
		if err := resolveSecrets(cfg); err != nil {
			fmt.Printf("Error reading parameters from SSM: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Resolved %d settings from SSM\n", len(refs))
	}

	db, err := openDatabase(cfg)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(cfg, "GENERATE_COLUMN_REPORT", false) {
		fmt.Println("Generating column mismatch report...")
		printColumnReport(db)
		return
	}

	if err := database.Migrate(db); err != nil {
		fmt.Printf("Error migrating database: %v\n", err)
		os.Exit(1)
	}

	currentDB := database.New(db)
	ctx := context.Background()

	svc, closeServices, err := buildServices(ctx, cfg, currentDB)
	if err != nil {
		fmt.Printf("Error initializing services: %v\n", err)
		os.Exit(1)
	}
	defer closeServices()

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(currentDB, svc)
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// resolveSecrets reads the ssm: values of cfg from Parameter Store.
func resolveSecrets(cfg map[string]string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := config.NewSSMClient(ctx, config.GetString(cfg, "AWS_REGION", config.GetString(cfg, "S3_REGION", "us-east-1")))
	if err != nil {
		return err
	}
	return config.ResolveSSM(ctx, cfg, client)
}

func openDatabase(cfg map[string]string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	gormConfig := &gorm.Config{
		PrepareStmt:    false,
		Logger:         newLogger,
		TranslateError: true,
	}

	dbType := config.GetString(cfg, "DB_TYPE", "sqlite")
	fmt.Printf("DB_TYPE: %s\n", dbType)

	var dialector gorm.Dialector
	switch dbType {
	case "supa":
		connStr := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			config.GetString(cfg, "SUPABASE_DB_HOST", ""),
			config.GetString(cfg, "SUPABASE_DB_USER", ""),
			config.GetString(cfg, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(cfg, "SUPABASE_DB_NAME", ""),
			config.GetString(cfg, "SUPABASE_DB_PORT", "5432"),
		)
		fmt.Println("Connecting to Supabase database...")
		dialector = postgres.New(postgres.Config{DSN: connStr, PreferSimpleProtocol: true})
	case "postgres":
		fmt.Println("Connecting to Postgres database...")
		dialector = postgres.New(postgres.Config{DSN: config.GetString(cfg, "DATABASE_URL", ""), PreferSimpleProtocol: true})
	case "sqlite":
		path := config.GetString(cfg, "SQLITE_PATH", "rpgm-blog.db")
		fmt.Printf("Opening SQLite database %s...\n", path)
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, err
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("test connection: %w", err)
	}
	return db, nil
}

// buildServices wires the services from configuration and runs the startup
// tasks: loading settings, seeding groups and access entries, and creating
// the administrator.
func buildServices(ctx context.Context, cfg map[string]string, db database.Database) (api.Services, func(), error) {
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	settings := services.NewSettings(db.SettingRepo())
	if err := settings.Load(ctx); err != nil {
		return api.Services{}, closeAll, err
	}

	access := services.NewAccessService(db.AccessRepo())
	if err := access.EnsureGroupsAndPermissions(ctx); err != nil {
		fmt.Printf("Warning: could not set up groups and permissions: %v\n", err)
	}

	users := services.NewUserService(db.UserRepo())
	if username := config.GetString(cfg, "ADMIN_USERNAME", ""); username != "" {
		if err := users.EnsureAdmin(ctx, username, config.GetString(cfg, "ADMIN_PASSWORD", "")); err != nil {
			return api.Services{}, closeAll, fmt.Errorf("create administrator: %w", err)
		}
	}

	secret := config.GetString(cfg, "JWT_SECRET", "")
	if secret == "" {
		return api.Services{}, closeAll, fmt.Errorf("JWT_SECRET is required")
	}
	tokens := services.NewTokenIssuer(secret, time.Duration(config.GetInt(cfg, "JWT_TTL_MINUTES", 720))*time.Minute)

	store, err := assetStore(ctx, cfg, db)
	if err != nil {
		return api.Services{}, closeAll, err
	}

	baseURL := strings.TrimRight(config.GetString(cfg, "BASE_URL", ""), "/")
	akismet := services.NewAkismetClient(settings.Akismet, baseURL)
	comments := services.NewCommentService(db.CommentRepo(), db.BlogPostRepo(),
		services.WithSpamChecker(akismet),
		services.WithCommentNotifier(services.NewMailer(settings.Email)),
		services.WithSiteURL(baseURL),
	)

	var throttle services.CommentThrottle = services.NoThrottle{}
	if redisURL := config.GetString(cfg, "REDIS_URL", ""); redisURL != "" {
		limit := config.GetInt(cfg, "COMMENT_RATE_LIMIT", 5)
		window := time.Duration(config.GetInt(cfg, "COMMENT_RATE_WINDOW_SECONDS", 600)) * time.Second
		redisThrottle, err := services.NewRedisThrottle(redisURL, limit, window)
		if err != nil {
			fmt.Printf("Warning: comment throttling disabled: %v\n", err)
		} else {
			throttle = redisThrottle
			closers = append(closers, func() { _ = redisThrottle.Close() })
		}
	}

	return api.Services{
		Users:     users,
		Tokens:    tokens,
		Access:    access,
		Blog:      services.NewBlogService(db.BlogPostRepo()),
		Comments:  comments,
		Settings:  settings,
		Uploads:   services.NewFileUploadService(store),
		Recaptcha: services.NewRecaptchaVerifier(settings.Recaptcha),
		Throttle:  throttle,
		Akismet:   akismet,
	}, closeAll, nil
}

func assetStore(ctx context.Context, cfg map[string]string, db database.Database) (services.AssetStore, error) {
	switch storage := config.GetString(cfg, "ASSET_STORAGE", "db"); storage {
	case "db":
		return services.NewDBAssetStore(db.AssetRepo()), nil
	case "s3":
		s3Config := services.S3Config{
			Bucket:          config.GetString(cfg, "S3_BUCKET", ""),
			Region:          config.GetString(cfg, "S3_REGION", "us-east-1"),
			Endpoint:        config.GetString(cfg, "S3_ENDPOINT", ""),
			AccessKeyID:     config.GetString(cfg, "S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: config.GetString(cfg, "S3_SECRET_ACCESS_KEY", ""),
		}
		if s3Config.Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when ASSET_STORAGE is s3")
		}
		client, err := services.NewS3Client(ctx, s3Config)
		if err != nil {
			return nil, err
		}
		return services.NewS3AssetStore(client, s3Config.Bucket, db.AssetRepo()), nil
	default:
		return nil, fmt.Errorf("unsupported ASSET_STORAGE %q", storage)
	}
}

func printColumnReport(db *gorm.DB) {
	report, err := database.ColumnMismatchReport(db)
	if err != nil {
		fmt.Printf("Error generating column report: %v\n", err)
		os.Exit(1)
	}
	if len(report) == 0 {
		fmt.Println("All tables match their models.")
		return
	}
	for _, mismatch := range report {
		if mismatch.Missing {
			fmt.Printf("%s: table does not exist\n", mismatch.Table)
			continue
		}
		fmt.Printf("%s: columns without a model field: %s\n", mismatch.Table, strings.Join(mismatch.Columns, ", "))
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
