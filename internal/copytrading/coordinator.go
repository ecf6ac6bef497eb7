package copytrading

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/copytrade-hub/internal/models"
	"github.com/copytrade-hub/internal/repository"
	"golang.org/x/sync/errgroup"
)

// SubscriberError records one subscriber's processing failure without
// affecting the rest of the fan-out.
type SubscriberError struct {
	CopierID uint   `json:"copier_id"`
	Err      string `json:"error"`
}

// Result summarizes one fan-out invocation.
type Result struct {
	Copied  int               `json:"copied"`
	Skipped int               `json:"skipped"`
	Errors  []SubscriberError `json:"errors,omitempty"`
}

// Coordinator fans one trade out across all active subscribers of its
// trader. Subscribers are processed independently and in no particular
// order; one subscriber's failure never blocks another's evaluation.
type Coordinator struct {
	subs      SubscriptionSource
	gate      *RiskGate
	writer    *Writer
	evaluator Evaluator
	logger    *log.Logger

	concurrency       int
	subscriberTimeout time.Duration
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(
	subs SubscriptionSource,
	gate *RiskGate,
	writer *Writer,
	evaluator Evaluator,
	concurrency int,
	subscriberTimeout time.Duration,
	logger *log.Logger,
) *Coordinator {
	if concurrency <= 0 {
		concurrency = 8
	}
	if subscriberTimeout <= 0 {
		subscriberTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		subs:              subs,
		gate:              gate,
		writer:            writer,
		evaluator:         evaluator,
		concurrency:       concurrency,
		subscriberTimeout: subscriberTimeout,
		logger:            logger,
	}
}

// CopyTradeToSubscribers evaluates every active subscriber of the trade's
// trader and records a copy for each eligible one. It never returns an
// error: a failed subscription-list query is reported as a single error
// entry with zero counts, per-subscriber failures land in Result.Errors
// and count as skipped.
func (c *Coordinator) CopyTradeToSubscribers(ctx context.Context, trade *models.Trade) Result {
	subs, err := c.subs.ActiveByTraderID(ctx, trade.TraderID)
	if err != nil {
		c.logger.Printf("[fanout] trade %d: subscription query failed: %v", trade.ID, err)
		return Result{Errors: []SubscriberError{{Err: fmt.Sprintf("load subscriptions: %v", err)}}}
	}

	var (
		mu  sync.Mutex
		res Result
	)

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)
	for i := range subs {
		sub := subs[i]
		g.Go(func() error {
			outcome := c.processSubscriber(ctx, trade, &sub)

			mu.Lock()
			switch {
			case outcome.err != nil:
				res.Skipped++
				res.Errors = append(res.Errors, SubscriberError{CopierID: sub.CopierID, Err: outcome.err.Error()})
			case outcome.copied:
				res.Copied++
			default:
				res.Skipped++
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return res
}

// LogResult writes the fan-out summary and each per-subscriber error to
// the operator log.
func (c *Coordinator) LogResult(trade *models.Trade, res Result) {
	c.logger.Printf("[fanout] trade %d (%s): copied=%d skipped=%d errors=%d",
		trade.ID, trade.Pair(), res.Copied, res.Skipped, len(res.Errors))
	for _, e := range res.Errors {
		c.logger.Printf("[fanout] trade %d copier %d: %s", trade.ID, e.CopierID, e.Err)
	}
}

type subscriberOutcome struct {
	copied bool
	err    error
}

// processSubscriber runs one subscriber through the risk gate, the
// evaluator, and the ledger writer, under its own deadline so a stuck
// call cannot stall the rest of the fan-out.
func (c *Coordinator) processSubscriber(ctx context.Context, trade *models.Trade, sub *models.Subscription) subscriberOutcome {
	sctx, cancel := context.WithTimeout(ctx, c.subscriberTimeout)
	defer cancel()

	// No settings means no policy to apply: skip, never guess a default.
	if sub.Settings == nil {
		return subscriberOutcome{}
	}

	if !c.gate.Allowed(sctx, sub.CopierID, sub.Settings) {
		return subscriberOutcome{}
	}

	decision := c.evaluator.Evaluate(trade, sub.Settings)
	if !decision.Copy {
		return subscriberOutcome{}
	}

	if err := c.writer.RecordCopy(sctx, trade, sub.CopierID, decision.Amount); err != nil {
		if errors.Is(err, repository.ErrCopyExists) {
			// Re-invocation after a retry: the copy is already on the ledger.
			return subscriberOutcome{}
		}
		c.logger.Printf("[fanout] trade %d copier %d: record copy failed: %v", trade.ID, sub.CopierID, err)
		return subscriberOutcome{err: err}
	}
	return subscriberOutcome{copied: true}
}
