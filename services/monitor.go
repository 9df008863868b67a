package services

import (
	"context"

	"propwatch/config"
	"propwatch/models"
	"propwatch/notify"
	"propwatch/scraper"
	"propwatch/utils"
)

// DefaultSource is used when no --source flag is given.
const DefaultSource = "redfin_miami"

// Store is the persistence surface the monitor needs.
type Store interface {
	Upsert(ctx context.Context, record *models.PropertyRecord) (int64, bool, error)
	MarkNotified(ctx context.Context, id int64) error
	Stats(ctx context.Context) (models.Stats, error)
	StartRun(ctx context.Context, source string) (string, error)
	FinishRun(ctx context.Context, runID string, status models.RunStatus, found, newCount int) error
}

// Monitor sequences the requested sources, deduplicates their results and
// dispatches notifications for newly discovered records. Sources run one
// at a time; the store is the only shared state between them.
type Monitor struct {
	cfg      *config.Config
	store    Store
	channels []notify.Channel
	logger   *utils.Logger

	newSource func(name string) (scraper.Source, error)
}

func NewMonitor(cfg *config.Config, store Store, channels []notify.Channel, logger *utils.Logger) *Monitor {
	return &Monitor{
		cfg:      cfg,
		store:    store,
		channels: channels,
		logger:   logger,
		newSource: func(name string) (scraper.Source, error) {
			return scraper.New(name, cfg, logger)
		},
	}
}

// Run executes one monitoring pass. Unrecognized source names are the only
// fatal condition; every per-source failure degrades to zero results and
// the run still finishes with a report.
func (m *Monitor) Run(ctx context.Context, sources []string, dryRun bool) error {
	if len(sources) == 0 {
		sources = m.cfg.Counties
	}
	if len(sources) == 0 {
		sources = []string{DefaultSource}
	}

	type namedSource struct {
		name string
		src  scraper.Source
	}
	var toRun []namedSource
	for _, name := range sources {
		src, err := m.newSource(name)
		if err != nil {
			m.logger.Warn("Skipping source: %v", err)
			continue
		}
		toRun = append(toRun, namedSource{name: name, src: src})
	}
	if len(toRun) == 0 {
		return &UnknownSourcesError{Requested: sources, Available: scraper.Names()}
	}

	var allNew []models.PropertyRecord
	for _, ns := range toRun {
		m.logger.Info("--- %s ---", ns.name)
		allNew = append(allNew, m.runSource(ctx, ns.name, ns.src, dryRun)...)
	}

	m.logger.Info("Found %d new properties", len(allNew))
	m.logGrouped(allNew)

	if len(allNew) > 0 {
		if dryRun {
			m.logger.Info("[DRY RUN] Skipping notifications")
		} else {
			m.logger.Info("Sending notifications...")
			results := notify.Dispatch(ctx, m.channels, allNew, m.logger)
			for channel, ok := range results {
				status := "sent"
				if !ok {
					status = "failed"
				}
				m.logger.Info("  %s: %s", channel, status)
			}

			// "Attempted" is enough to mark; per-channel failures do not
			// requeue records for a later dispatch.
			for _, record := range allNew {
				if err := m.store.MarkNotified(ctx, record.ID); err != nil {
					m.logger.Error("Mark notified %d: %v", record.ID, err)
				}
			}
		}
	}

	m.reportStats(ctx)
	return nil
}

// runSource owns one source's full lifecycle: session up, fetch+filter,
// upsert, session down. It never returns an error; the run report carries
// the outcome.
func (m *Monitor) runSource(ctx context.Context, name string, src scraper.Source, dryRun bool) []models.PropertyRecord {
	runID, err := m.store.StartRun(ctx, name)
	if err != nil {
		m.logger.Error("[%s] Start run: %v", name, err)
	}

	if err := src.Start(ctx); err != nil {
		m.logger.Error("[%s] Cannot start source: %v", name, err)
		m.finishRun(ctx, runID, models.RunStatusFailed, 0, 0)
		return nil
	}
	defer src.Stop()

	listings := scraper.FetchAll(ctx, src, m.cfg, m.logger)

	var newRecords []models.PropertyRecord
	for _, listing := range listings {
		record := scraper.ToRecord(src, listing)
		_, isNew, err := m.store.Upsert(ctx, &record)
		if err != nil {
			m.logger.Error("[%s] Upsert %s: %v", name, record.NaturalKey(), err)
			continue
		}
		if !isNew {
			continue
		}

		m.logger.Info("NEW: %s | %s | %s", record.Address, record.FormattedPrice(), record.RecordType)
		newRecords = append(newRecords, record)

		if m.cfg.ScreenshotOnNew && !dryRun && record.URL != "" {
			m.screenshot(ctx, src, record)
		}
	}

	m.finishRun(ctx, runID, models.RunStatusCompleted, len(listings), len(newRecords))
	return newRecords
}

func (m *Monitor) screenshot(ctx context.Context, src scraper.Source, record models.PropertyRecord) {
	shooter, ok := src.(scraper.Screenshotter)
	if !ok {
		return
	}
	name := record.ParcelID
	if len(name) > 12 {
		name = name[:12]
	}
	if err := shooter.Screenshot(ctx, record.URL, name); err != nil {
		m.logger.Warn("Screenshot failed: %v", err)
	}
}

func (m *Monitor) finishRun(ctx context.Context, runID string, status models.RunStatus, found, newCount int) {
	if runID == "" {
		return
	}
	if err := m.store.FinishRun(ctx, runID, status, found, newCount); err != nil {
		m.logger.Error("Finish run %s: %v", runID, err)
	}
}

func (m *Monitor) logGrouped(records []models.PropertyRecord) {
	var sales, foreclosures []models.PropertyRecord
	for _, r := range records {
		switch r.RecordType {
		case "sale":
			sales = append(sales, r)
		case "foreclosure":
			foreclosures = append(foreclosures, r)
		}
	}

	logGroup := func(label string, group []models.PropertyRecord) {
		if len(group) == 0 {
			return
		}
		m.logger.Info("%s (%d):", label, len(group))
		for i, r := range group {
			if i >= 10 {
				break
			}
			m.logger.Info("  %s - %s", r.FormattedPrice(), r.Address)
		}
	}
	logGroup("Sales", sales)
	logGroup("Foreclosures", foreclosures)
}

// reportStats always runs, even after a source failed entirely.
func (m *Monitor) reportStats(ctx context.Context) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Error("Statistics unavailable: %v", err)
		return
	}
	m.logger.Info("Database: %d total records (%d notified)", stats.TotalRecords, stats.Notified)
	PrintStats(stats)
}

// UnknownSourcesError reports a run request in which no source name was
// recognized.
type UnknownSourcesError struct {
	Requested []string
	Available []string
}

func (e *UnknownSourcesError) Error() string {
	return "no valid sources requested"
}
