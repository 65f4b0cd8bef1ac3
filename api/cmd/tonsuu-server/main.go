package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/config"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/handle"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/httpserver"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/store"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision/gemini"
)

func main() {
	cfg := config.Load()

	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	} else if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8000"
	}

	tables := masterdata.Default()
	if cfg.MasterdataPath != "" {
		var err error
		tables, err = masterdata.Load(cfg.MasterdataPath)
		if err != nil {
			log.Fatalf("masterdata: %v", err)
		}
	}

	// DATABASE_URL is optional for the API server: without it /estimate
	// works stateless and /actual and /exemplars report unavailable.
	var records *store.RecordRepo
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("sql.Open: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db.Ping: %v", err)
		}
		records = store.NewRecordRepo(db)
		if err := records.EnsureSchema(ctx); err != nil {
			log.Fatalf("schema: %v", err)
		}
	}

	h := handle.New(gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel), tables, records)

	addr := ":" + cfg.Port
	log.Fatal(httpserver.StartHTTP(addr, h))
}
