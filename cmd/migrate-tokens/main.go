// Command migrate-tokens re-encrypts one user's mailbox tokens from the
// deprecated static-key scheme into session-bound envelopes, for
// operator-assisted runs where the user cannot trigger the migration from
// the UI. Key derivation binds to the supplied user ID and email, which
// must match the identity the user signs in with.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/mailpulse/internal/app"
	"github.com/pscheid92/mailpulse/internal/crypto"
	"github.com/pscheid92/mailpulse/internal/database"
	"github.com/pscheid92/mailpulse/internal/domain"
	"github.com/pscheid92/mailpulse/internal/redis"
)

// staticSessionProvider serves the operator-supplied identity. The session
// token plays no role in key derivation, so a placeholder suffices.
type staticSessionProvider struct {
	sess *domain.Session
}

func (p staticSessionProvider) Current(_ context.Context) (*domain.Session, error) {
	if p.sess == nil {
		return nil, domain.ErrNoSession
	}
	return p.sess, nil
}

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "Postgres URL (or set DATABASE_URL env)")
		redisURL    = flag.String("redis", os.Getenv("REDIS_URL"), "Redis URL (or set REDIS_URL env)")
		userIDStr   = flag.String("user", "", "User ID whose tokens to migrate")
		email       = flag.String("email", "", "Email the user signs in with (key-derivation input)")
		dryRun      = flag.Bool("dry-run", false, "Report pending migration state without changing anything")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Postgres URL required (--database or DATABASE_URL env)")
	}
	if *redisURL == "" {
		log.Fatal("Redis URL required (--redis or REDIS_URL env)")
	}
	if *userIDStr == "" || *email == "" {
		log.Fatal("--user and --email are required")
	}
	userID, err := uuid.Parse(*userIDStr)
	if err != nil {
		log.Fatalf("Invalid user ID: %v", err)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	ctx := context.Background()

	db, err := database.Connect(ctx, *databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient, err := redis.NewClient(ctx, *redisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	accounts := database.NewAccountRepo(db)
	secrets := redis.NewSecretStore(redisClient)

	if *dryRun {
		reportPending(ctx, accounts, secrets, userID)
		return
	}

	sessions := staticSessionProvider{sess: &domain.Session{
		UserID: userID,
		Email:  *email,
		Token:  "operator-assisted-migration",
	}}

	migrator := app.NewTokenMigrator(
		accounts,
		secrets,
		sessions,
		crypto.NewTokenCipher(sessions),
		clockwork.NewRealClock(),
	)

	result, err := migrator.Run(ctx)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	slog.Info("Migration complete",
		"user_id", userID,
		"migrated", result.MigratedCount,
		"corrupted", result.CorruptedCount)
}

// reportPending logs what a real run would operate on, without decrypting or
// writing anything.
func reportPending(ctx context.Context, accounts domain.MailboxAccountRepository, secrets domain.LegacySecretStore, userID uuid.UUID) {
	_, err := secrets.Get(ctx, userID)
	if errors.Is(err, domain.ErrNoLegacySecret) {
		slog.Info("Dry run: no legacy secret present, nothing to migrate", "user_id", userID)
		return
	}
	if err != nil {
		log.Fatalf("Failed to read legacy secret: %v", err)
	}

	list, err := accounts.ListByUser(ctx, userID)
	if err != nil {
		log.Fatalf("Failed to list mailbox accounts: %v", err)
	}

	pending := 0
	for _, account := range list {
		if account.AccessToken != nil || account.RefreshToken != nil {
			pending++
		}
	}
	slog.Info("Dry run: migration pending", "user_id", userID, "accounts", len(list), "with_tokens", pending)
}
