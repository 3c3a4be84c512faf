package classify

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/brojonat/swapledger/service/helius"
	"github.com/brojonat/swapledger/service/metrics"
	"github.com/shopspring/decimal"
)

// ProgressFunc receives incremental progress notifications while a batch
// is being processed: the number of records handled so far (classified or
// skipped) and the batch total.
type ProgressFunc func(processed, total int)

// BatchResult is the outcome of processing one batch of raw transactions.
type BatchResult struct {
	// Trades holds the classified transactions in input order,
	// skipped records omitted.
	Trades []*Trade

	// Skipped counts records that failed classification and were
	// dropped from Trades.
	Skipped int

	// TotalSOL is the signed sum of SOLAmount over Trades.
	TotalSOL decimal.Decimal
}

// Processor runs the classifier over a batch of raw transactions,
// isolating per-record failures so one bad record never aborts the batch.
type Processor struct {
	classifier *Classifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	progress   ProgressFunc
}

// NewProcessor creates a batch processor. If m is nil no metrics are
// recorded; if progress is nil no progress notifications are emitted.
func NewProcessor(classifier *Classifier, m *metrics.Metrics, logger *slog.Logger, progress ProgressFunc) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Processor{
		classifier: classifier,
		metrics:    m,
		logger:     logger,
		progress:   progress,
	}
}

// Process classifies each raw transaction in input order. Records that
// fail to classify are logged with their signature, counted as skipped,
// and omitted from the result; the batch as a whole only fails if ctx is
// cancelled. Cancellation is checked between items, so no record is ever
// left half-classified.
func (p *Processor) Process(ctx context.Context, raws []helius.RawTransaction) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{
		Trades:   make([]*Trade, 0, len(raws)),
		TotalSOL: decimal.Zero,
	}

	for i := range raws {
		if err := ctx.Err(); err != nil {
			if p.metrics != nil {
				p.metrics.RecordBatch("cancelled", time.Since(start).Seconds())
			}
			return nil, err
		}

		trade, err := p.classifier.Classify(&raws[i])
		if err != nil {
			p.logger.WarnContext(ctx, "skipping unclassifiable transaction",
				"signature", raws[i].Signature,
				"error", err,
			)
			result.Skipped++
			if p.metrics != nil {
				p.metrics.RecordTradeSkipped(raws[i].FeePayer, "parse_error")
			}
			p.notify(i+1, len(raws))
			continue
		}

		result.Trades = append(result.Trades, trade)
		result.TotalSOL = result.TotalSOL.Add(trade.SOLAmount)
		if p.metrics != nil {
			p.metrics.RecordTradeClassified(trade.FeePayer, string(trade.Direction))
		}
		p.notify(i+1, len(raws))
	}

	if p.metrics != nil {
		p.metrics.RecordBatch("success", time.Since(start).Seconds())
	}
	p.logger.InfoContext(ctx, "processed batch",
		"total", len(raws),
		"classified", len(result.Trades),
		"skipped", result.Skipped,
		"total_sol", result.TotalSOL.String(),
	)

	return result, nil
}

func (p *Processor) notify(processed, total int) {
	if p.progress != nil {
		p.progress(processed, total)
	}
}
