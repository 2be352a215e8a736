// Command ledger-export writes a store's production and purchase ledger to an XLSX file.
//
//	ledger-export -store <id> [-from 2026-01-01] [-to 2026-02-01] [-template <id>] [-out ledger.xlsx]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fekuna/omnipos-production-service/config"
	"github.com/fekuna/omnipos-production-service/internal/audit/dto"
	auditRepoPkg "github.com/fekuna/omnipos-production-service/internal/audit/repository"
	auditUCPkg "github.com/fekuna/omnipos-production-service/internal/audit/usecase"
	"github.com/fekuna/omnipos-production-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func main() {
	storeID := flag.String("store", "", "store id (required)")
	from := flag.String("from", "", "inclusive start date, YYYY-MM-DD")
	to := flag.String("to", "", "exclusive end date, YYYY-MM-DD")
	templateID := flag.String("template", "", "only events for this recipe template")
	out := flag.String("out", "ledger.xlsx", "output file")
	flag.Parse()

	if *storeID == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		Encoding:          "console",
		Level:             cfg.Logger.Level,
		DisableStacktrace: true,
	})
	defer appLogger.Sync()

	filters := &dto.LedgerFilters{StoreID: *storeID, TemplateID: *templateID}
	var err error
	if filters.StartDate, err = parseDate(*from); err != nil {
		appLogger.Fatal("Invalid -from", zap.Error(err))
	}
	if filters.EndDate, err = parseDate(*to); err != nil {
		appLogger.Fatal("Invalid -to", zap.Error(err))
	}

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()

	auditUC := auditUCPkg.NewAuditUseCase(auditRepoPkg.NewPGRepository(db), nil, appLogger)

	f, err := os.Create(*out)
	if err != nil {
		appLogger.Fatal("Could not create output file", zap.Error(err))
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := auditUC.Export(ctx, f, filters); err != nil {
		appLogger.Fatal("Export failed", zap.Error(err))
	}

	appLogger.Info("Ledger exported", zap.String("store_id", *storeID), zap.String("file", *out))
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("expected %s: %w", dateLayout, err)
	}
	return &t, nil
}
