// Package run wires the pipeline stages into a complete export: walk the
// account history, classify each operation, enrich side-chain trades,
// reconstruct their fills, and assemble the ledgers.
package run

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hiveledger-dev/hiveledger/internal/classify"
	"github.com/hiveledger-dev/hiveledger/internal/config"
	"github.com/hiveledger-dev/hiveledger/internal/engine"
	"github.com/hiveledger-dev/hiveledger/internal/enrich"
	"github.com/hiveledger-dev/hiveledger/internal/hive"
	"github.com/hiveledger-dev/hiveledger/internal/ledger"
	"github.com/hiveledger-dev/hiveledger/internal/model"
	"github.com/hiveledger-dev/hiveledger/internal/rates"
	"github.com/hiveledger-dev/hiveledger/internal/rawio"
	"github.com/hiveledger-dev/hiveledger/internal/reconstruct"
	"github.com/hiveledger-dev/hiveledger/internal/rpc"
	"github.com/hiveledger-dev/hiveledger/internal/walker"
)

// Summary reports what a run did. Every count is exact; nothing is sampled.
type Summary struct {
	RunID          string
	Account        string
	Found          int
	ByCategory     map[model.Category]int
	DetailsFetched int
	DetailsFailed  int
	Fills          int
	RegularRows    int
	DustRows       int
	Warnings       int
	RegularPath    string
	DustPath       string
	RawPath        string
}

// Runner executes exports against a validated configuration.
type Runner struct {
	cfg   *config.Config
	log   zerolog.Logger
	runID string
}

// New creates a Runner. Every log line from the run carries the same run id,
// so interleaved output from concurrent invocations stays attributable.
func New(cfg *config.Config, log zerolog.Logger) *Runner {
	runID := uuid.NewString()
	return &Runner{
		cfg:   cfg,
		log:   log.With().Str("run_id", runID).Logger(),
		runID: runID,
	}
}

func (r *Runner) policy() rpc.Policy {
	p := rpc.DefaultPolicy()
	if r.cfg.Fetch.MaxAttempts > 0 {
		p.MaxAttempts = r.cfg.Fetch.MaxAttempts
	}
	if r.cfg.Fetch.BaseDelayMs > 0 {
		p.BaseDelay = time.Duration(r.cfg.Fetch.BaseDelayMs) * time.Millisecond
	}
	return p
}

// Export walks the live account history for the configured window and writes
// the ledgers. If saveRaw is non-empty the raw operations are also written
// there, so later runs can use EnrichFromRaw without hitting the history API.
func (r *Runner) Export(ctx context.Context, saveRaw string) (*Summary, error) {
	window, err := r.cfg.Window()
	if err != nil {
		return nil, err
	}

	hiveClient := hive.NewClient(r.cfg.Nodes.Hive, r.cfg.Timeout(), r.log)
	w := walker.New(hiveClient, r.cfg.Fetch.PageSize, r.policy(), r.log)

	r.log.Info().
		Str("account", r.cfg.Account).
		Time("from", window.Start).
		Time("to", window.End).
		Msg("walking account history")

	ops, err := w.Walk(ctx, r.cfg.Account, window)
	if err != nil {
		return nil, fmt.Errorf("walking history for %s: %w", r.cfg.Account, err)
	}

	if saveRaw != "" {
		snap := rawio.Snapshot{
			Account:    r.cfg.Account,
			Token:      r.cfg.Token,
			Window:     window,
			Operations: ops,
		}
		if err := rawio.Save(saveRaw, snap); err != nil {
			return nil, err
		}
		r.log.Info().Str("path", saveRaw).Int("operations", len(ops)).Msg("raw snapshot saved")
	}

	summary, err := r.process(ctx, hiveClient, ops, window)
	if err != nil {
		return nil, err
	}
	summary.RawPath = saveRaw
	return summary, nil
}

// EnrichFromRaw re-runs classification and everything downstream against a
// previously saved snapshot. The history API is never contacted; the
// side-chain and rate APIs still are.
func (r *Runner) EnrichFromRaw(ctx context.Context, rawPath string) (*Summary, error) {
	snap, err := rawio.Load(rawPath)
	if err != nil {
		return nil, err
	}
	if snap.Account != r.cfg.Account {
		return nil, fmt.Errorf("snapshot %s is for account %s, config says %s",
			rawPath, snap.Account, r.cfg.Account)
	}

	hiveClient := hive.NewClient(r.cfg.Nodes.Hive, r.cfg.Timeout(), r.log)
	summary, err := r.process(ctx, hiveClient, snap.Operations, snap.Window)
	if err != nil {
		return nil, err
	}
	summary.RawPath = rawPath
	return summary, nil
}

func (r *Runner) process(ctx context.Context, hiveClient *hive.Client, ops []model.RawOperation, window model.Window) (*Summary, error) {
	dust, err := r.cfg.Dust()
	if err != nil {
		return nil, err
	}

	classifier := classify.New(r.cfg.Account, r.cfg.Token, r.log)
	byCategory := make(map[model.Category]int)
	classified := make([]model.ClassifiedOperation, 0, len(ops))
	for _, op := range ops {
		c := classifier.Classify(op)
		byCategory[c.Category]++
		classified = append(classified, c)
	}

	engineClient := engine.NewClient(r.cfg.Nodes.Engine, r.cfg.Timeout(), r.log)
	enricher := enrich.New(engineClient, r.policy(), r.cfg.RequestDelay(), r.log)
	reconstructor := reconstruct.New(r.cfg.Account, r.cfg.Token, r.log)

	var fills []model.Fill
	detailsFailed := 0
	for _, c := range classified {
		if _, ok := c.Details.(model.EngineTradeDetails); !ok {
			continue
		}
		rec, err := enricher.Enrich(ctx, c.Raw.TxID)
		if err != nil {
			// A trade we cannot settle is reported, not silently dropped.
			detailsFailed++
			r.log.Warn().Err(err).Str("tx", c.Raw.TxID).Msg("trade detail unavailable")
			continue
		}
		fills = append(fills, reconstructor.Fills(rec, c.Raw.Timestamp)...)
	}

	rateCache := rates.New(hiveClient, r.policy(), r.log)
	builder := ledger.NewBuilder(rateCache, r.log)
	rows := builder.Rows(ctx, classified, fills)

	assembler := ledger.NewAssembler(dust)
	regular, dustRows := assembler.Assemble(rows)

	regularPath, dustPath := r.outputPaths(window)
	if err := ledger.WriteFile(regularPath, regular); err != nil {
		return nil, err
	}
	if err := ledger.WriteFile(dustPath, dustRows); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:          r.runID,
		Account:        r.cfg.Account,
		Found:          len(ops),
		ByCategory:     byCategory,
		DetailsFetched: enricher.Fetches(),
		DetailsFailed:  detailsFailed,
		Fills:          len(fills),
		RegularRows:    len(regular),
		DustRows:       len(dustRows),
		Warnings:       reconstructor.Warnings() + builder.Skipped(),
		RegularPath:    regularPath,
		DustPath:       dustPath,
	}

	r.log.Info().
		Int("operations", summary.Found).
		Int("fills", summary.Fills).
		Int("rows", summary.RegularRows).
		Int("dust_rows", summary.DustRows).
		Int("warnings", summary.Warnings).
		Msg("export complete")

	return summary, nil
}

// outputPaths derives the ledger file names from the account and window.
func (r *Runner) outputPaths(window model.Window) (regular, dust string) {
	label := fmt.Sprintf("%s-%s", window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	if r.cfg.Year > 0 && r.cfg.From == "" && r.cfg.To == "" {
		label = fmt.Sprintf("%d", r.cfg.Year)
	}
	base := fmt.Sprintf("%s-%s", r.cfg.Account, label)
	return filepath.Join(r.cfg.OutDir, base+".csv"),
		filepath.Join(r.cfg.OutDir, base+"-dust.csv")
}
