package job

import (
	"context"
	"fmt"

	"CaseSync/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DailyRunner is satisfied by *service.IngestionService.
type DailyRunner interface {
	RunDaily(ctx context.Context) (*service.RunResult, error)
}

// StartCronJob schedules the daily ingestion (standard 5-field spec, e.g.
// "0 8 * * *"). A run still in progress makes the next tick skip. The caller
// stops the returned scheduler.
func StartCronJob(spec string, runner DailyRunner, logger *logrus.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(logger)),
		cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
	))

	if _, err := c.AddFunc(spec, func() { runDaily(context.Background(), runner, logger) }); err != nil {
		return nil, fmt.Errorf("schedule daily ingestion %q: %w", spec, err)
	}
	c.Start()
	logger.WithField("spec", spec).Info("daily ingestion scheduled")
	return c, nil
}

func runDaily(ctx context.Context, runner DailyRunner, logger *logrus.Logger) {
	log := logger.WithField("job", "daily_ingestion")
	log.Info("daily ingestion starting")

	res, err := runner.RunDaily(ctx)
	if err != nil {
		log.WithError(err).Error("daily ingestion could not start")
		return
	}
	entry := log.WithFields(logrus.Fields{
		"log_id":        res.LogID,
		"attempt":       res.Attempt,
		"cases_found":   res.CasesFound,
		"cases_created": res.CasesCreated,
	})
	if res.Success {
		entry.Info("daily ingestion finished")
		return
	}
	entry.WithField("error", res.Error).Error("daily ingestion failed")
}
