package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/modmark-app/modmark/internal/api/http"
	"github.com/modmark-app/modmark/internal/assignment"
	"github.com/modmark-app/modmark/internal/auth"
	"github.com/modmark-app/modmark/internal/config"
	"github.com/modmark-app/modmark/internal/db"
	"github.com/modmark-app/modmark/internal/email"
	"github.com/modmark-app/modmark/internal/eventlog"
	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/team"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	teams := team.NewSQLStore(dbh)
	assignments := assignment.NewSQLStore(dbh)
	marks := marking.NewSQLStore(dbh)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL)
	var codes auth.CodeStore
	switch cfg.CodeStore {
	case "redis":
		codes = auth.NewRedisCodeStore(cfg.RedisAddr, cfg.CodeTTL)
	default:
		codes = auth.NewMemoryCodeStore(cfg.CodeTTL)
	}

	// --- Email ---
	var mailer email.Mailer
	switch cfg.EmailDriver {
	case "sendgrid":
		mailer = email.NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	default:
		mailer = email.NewConsoleMailer()
	}

	r := api.Routes(api.Deps{
		DB:          dbh,
		AuthSvc:     authSvc,
		Codes:       codes,
		Mailer:      mailer,
		Teams:       teams,
		Assignments: assignments,
		Marks:       marks,
		AssignSvc:   assignment.NewService(assignments, teams, marks),
		MarkSvc:     marking.NewService(marks, assignments),
		Events:      eventlog.NewRepo(dbh),
		PublicURL:   cfg.PublicURL,
		CORSOrigins: cfg.CORSOrigins,
	})

	log.Printf("listening on %s (db=%s, email=%s, codes=%s)",
		cfg.HTTPAddr, cfg.DBDriver, cfg.EmailDriver, cfg.CodeStore)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
