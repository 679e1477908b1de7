package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/config"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/correlate"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/database"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/kml"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/logging"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/shapefile"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/sonar"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

func main() {
	cfg, err := config.Load("aircontrol-kml", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	creds, err := promptCredentials(os.Stdin, os.Stderr, terminalPassword(os.Stdin), cfg.Username, cfg.Password)
	if err != nil {
		log.WithError(err).Error("credentials")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, creds, log)
	stop()
	if err != nil {
		log.WithError(err).Error("export failed; no output written")
		os.Exit(1)
	}
}

// run correlates devices with locations and writes every configured output.
// Nothing is written unless correlation succeeds.
func run(ctx context.Context, cfg *config.Config, creds sonar.Credentials, log logrus.FieldLogger) error {
	start := time.Now()
	client := sonar.NewClient(cfg.BaseURL, creds,
		sonar.WithTimeout(cfg.HTTPTimeout),
		sonar.WithLogger(log),
	)

	pipeline := newPipeline(cfg, client, log)
	result, err := pipeline.Correlate(ctx)
	if err != nil {
		return err
	}
	points := correlate.Points(result)

	if err := kml.WriteFile(cfg.Output, points); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"path": cfg.Output, "count": len(points)}).Info("wrote kml")

	if cfg.Shapefile != "" {
		if err := shapefile.WriteFile(cfg.Shapefile, points); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"path": cfg.Shapefile, "count": len(points)}).Info("wrote shapefile")
	}

	if cfg.Oracle {
		if err := writeOracle(ctx, cfg.Database, points); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"table": cfg.Database.Table, "count": len(points)}).Info("replaced oracle locations")
	}

	log.WithField("elapsed", time.Since(start).Truncate(time.Millisecond)).Info("export complete")
	return nil
}

func newPipeline(cfg *config.Config, client *sonar.Client, log logrus.FieldLogger) *correlate.Pipeline {
	p := correlate.NewPipeline(client, log)
	p.Filter.ManufacturerID = types.ID(cfg.ManufacturerID)
	p.Filter.ExcludedAssigneeTypes = cfg.ExcludedAssigneeTypes
	p.Filter.Parallel = cfg.Parallel
	p.Geo.Parallel = cfg.Parallel
	if cfg.Strict {
		p.Policy = correlate.FailUnmatched
	}
	return p
}

func writeOracle(ctx context.Context, dbCfg database.DBConfig, points []types.CorrelatedPoint) error {
	db, err := database.NewDatabase(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.ReplaceLocations(ctx, points)
}
