package overlay

import (
	"time"

	"github.com/rxtech-lab/straddle-overlay/internal/logger"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
	"go.uber.org/zap"
)

// SnapshotProvider supplies the option chain for an exact bar timestamp.
// An empty slice with a nil error means no chain rows exist at that bar.
type SnapshotProvider interface {
	SnapshotAt(timestamp time.Time) ([]types.OptionQuote, error)
}

// SessionConfig holds the parameters of one overlay run.
type SessionConfig struct {
	InitialCapital float64
	Schedule       types.Schedule
	// Location is the clock the schedule is expressed in; bar timestamps are
	// converted into it before schedule evaluation.
	Location *time.Location
}

// Session is one independent overlay run. The open position set, the
// schedule fire signature and the cash balance are all owned here; nothing
// is process-wide, so independent sessions can run in parallel.
type Session struct {
	schedule *ScheduleEvaluator
	account  *Account
	ledger   *Ledger
	location *time.Location
	tradeLog []types.TradeRecord
	cumPnL   float64
	log      *logger.Logger
}

// NewSession creates a session with no open positions, no fired slots and
// cash equal to the configured initial capital.
func NewSession(config SessionConfig, log *logger.Logger) *Session {
	return &Session{
		schedule: NewScheduleEvaluator(config.Schedule),
		account:  NewAccount(config.InitialCapital),
		ledger:   NewLedger(),
		location: config.Location,
		tradeLog: nil,
		cumPnL:   0,
		log:      log,
	}
}

// Advance processes one bar: expired positions settle first, then the
// schedule is evaluated and at most one new straddle opens. Settled trades
// are appended to the trade log and also returned for the caller to persist.
// A scheduled slot whose selection fails is consumed without retry.
func (s *Session) Advance(timestamp time.Time, spot float64, provider SnapshotProvider) ([]types.TradeRecord, error) {
	settled := s.ledger.Advance(timestamp, spot, s.account)

	for _, trade := range settled {
		s.tradeLog = append(s.tradeLog, trade)
		s.cumPnL += trade.PnL

		s.log.Info("position settled",
			zap.Time("exit_time", trade.ExitTime),
			zap.Float64("strike", trade.Strike),
			zap.Float64("size", trade.Size),
			zap.Float64("pnl", trade.PnL),
			zap.Float64("cash", s.account.Cash()),
		)
	}

	fired := s.schedule.Evaluate(timestamp.In(s.location))
	if fired.IsNone() {
		return settled, nil
	}

	entry := fired.Unwrap()

	quotes, err := provider.SnapshotAt(timestamp)
	if err != nil {
		return settled, err
	}

	selected := SelectStraddle(timestamp, spot, quotes)
	if selected.IsNone() {
		s.log.Warn("scheduled slot skipped, no straddle available",
			zap.Time("timestamp", timestamp),
			zap.String("slot", entry.TimeOfDay()),
		)

		return settled, nil
	}

	quote := selected.Unwrap()
	position := s.account.OpenPosition(timestamp, spot, entry.Portion, quote)
	s.ledger.Add(position)

	s.log.Info("straddle opened",
		zap.Time("entry_time", position.EntryTime),
		zap.Time("expiry_time", position.ExpiryTime),
		zap.Float64("strike", position.Strike),
		zap.Float64("size", position.Size),
		zap.Float64("cash", s.account.Cash()),
	)

	return settled, nil
}

// Cash returns the current cash balance.
func (s *Session) Cash() float64 {
	return s.account.Cash()
}

// CumulativePnL returns the total realized profit and loss so far.
func (s *Session) CumulativePnL() float64 {
	return s.cumPnL
}

// OpenPositionCount returns the number of positions still open.
func (s *Session) OpenPositionCount() int {
	return s.ledger.OpenCount()
}

// OpenPositions returns a copy of the open position set.
func (s *Session) OpenPositions() []types.Position {
	return s.ledger.OpenPositions()
}

// TradeLog returns a copy of the append-only settled trade log, in
// settlement order.
func (s *Session) TradeLog() []types.TradeRecord {
	trades := make([]types.TradeRecord, len(s.tradeLog))
	copy(trades, s.tradeLog)

	return trades
}
