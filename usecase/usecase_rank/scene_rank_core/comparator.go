package scene_rank_core

import (
	"context"
	"errors"
	"sync"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/Super-Badmen-Viper/songrank/internal/logging"
	"github.com/rs/zerolog"
)

var (
	ErrSameSong            = errors.New("cannot compare a song with itself")
	ErrComparisonPending   = errors.New("a comparison is already awaiting a choice")
	ErrNoPendingComparison = errors.New("no comparison is awaiting a choice")
	ErrInvalidChoice       = errors.New("chosen song is not part of the pending pair")
)

// DecisionSurface 展示待选的一对歌曲，调用方不等待其返回结果
type DecisionSurface interface {
	PresentPair(left, right scene_rank_models.Song)
}

// ProgressSink 每次用户完成一次比较后接收百分比
type ProgressSink interface {
	ReportProgress(percent int)
}

// LedgerPersister 账本持久化，失败不影响内存中的排序
type LedgerPersister interface {
	SaveLedger(ctx context.Context, ledger *Ledger) error
}

type ComparatorState int

const (
	StateIdle ComparatorState = iota
	StateAwaitingChoice
)

func (s ComparatorState) String() string {
	if s == StateAwaitingChoice {
		return "awaiting_choice"
	}
	return "idle"
}

// 比较结果来源
const (
	OutcomeLedger   = "ledger"
	OutcomeInferred = "inferred"
	OutcomeAsked    = "asked"
)

type pendingComparison struct {
	left, right scene_rank_models.Song
	choice      chan string
}

// Comparator 完成一次两两比较：先查账本，再做传递推断，都无法判定时挂起等待 Choose。
// 只有用户选择这一条路径会写账本。
type Comparator struct {
	ledger    *Ledger
	surface   DecisionSurface
	persister LedgerPersister
	progress  *Progress
	sink      ProgressSink
	observe   func(outcome string)
	logger    zerolog.Logger

	mu      sync.Mutex
	pending *pendingComparison
	stats   scene_rank_models.CompareStats
}

// NewComparator persister、progress、sink 均可为 nil
func NewComparator(
	ledger *Ledger,
	surface DecisionSurface,
	persister LedgerPersister,
	progress *Progress,
	sink ProgressSink,
) *Comparator {
	return &Comparator{
		ledger:    ledger,
		surface:   surface,
		persister: persister,
		progress:  progress,
		sink:      sink,
		logger:    logging.With().Str("component", "comparator").Logger(),
	}
}

// SetObserver 每次比较得出结果时回调，用于指标统计
func (c *Comparator) SetObserver(observe func(outcome string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observe = observe
}

func (c *Comparator) Compare(ctx context.Context, a, b scene_rank_models.Song) (scene_rank_models.Song, error) {
	if a.ID == b.ID {
		return scene_rank_models.Song{}, ErrSameSong
	}

	// 1. 账本中已有直接结果
	if winnerID, ok := c.ledger.Lookup(PairKeyOf(a.ID, b.ID)); ok {
		c.count(OutcomeLedger)
		if winnerID == a.ID {
			return a, nil
		}
		return b, nil
	}

	// 2. 传递推断，结果不回写账本
	if winner, ok := Infer(a, b, c.ledger); ok {
		c.count(OutcomeInferred)
		return winner, nil
	}

	// 3. 挂起等待用户选择
	return c.ask(ctx, a, b)
}

func (c *Comparator) ask(ctx context.Context, a, b scene_rank_models.Song) (scene_rank_models.Song, error) {
	p := &pendingComparison{left: a, right: b, choice: make(chan string, 1)}

	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return scene_rank_models.Song{}, ErrComparisonPending
	}
	c.pending = p
	c.mu.Unlock()

	if c.surface != nil {
		c.surface.PresentPair(a, b)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		if c.pending == p {
			c.pending = nil
		}
		c.mu.Unlock()
		return scene_rank_models.Song{}, ctx.Err()
	case winnerID := <-p.choice:
		winner := b
		if winnerID == a.ID {
			winner = a
		}
		key := c.ledger.Record(a, b, winnerID)
		c.count(OutcomeAsked)
		c.logger.Debug().Str("pair", string(key)).Str("winner", winnerID).Msg("记录用户选择")

		if c.persister != nil {
			if err := c.persister.SaveLedger(ctx, c.ledger); err != nil {
				c.logger.Warn().Err(err).Msg("账本持久化失败，继续排序")
			}
		}
		if c.progress != nil && c.sink != nil {
			c.sink.ReportProgress(c.progress.Percent(c.ledger.Len()))
		}
		return winner, nil
	}
}

// Choose 外部触发的选择入口，把结果交给挂起中的 Compare
func (c *Comparator) Choose(songID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	if p == nil {
		return ErrNoPendingComparison
	}
	if songID != p.left.ID && songID != p.right.ID {
		return ErrInvalidChoice
	}
	c.pending = nil
	p.choice <- songID
	return nil
}

// Pending 当前等待选择的一对歌曲
func (c *Comparator) Pending() (scene_rank_models.Song, scene_rank_models.Song, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return scene_rank_models.Song{}, scene_rank_models.Song{}, false
	}
	return c.pending.left, c.pending.right, true
}

func (c *Comparator) State() ComparatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return StateAwaitingChoice
	}
	return StateIdle
}

func (c *Comparator) Stats() scene_rank_models.CompareStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Comparator) count(outcome string) {
	c.mu.Lock()
	switch outcome {
	case OutcomeLedger:
		c.stats.LedgerHits++
	case OutcomeInferred:
		c.stats.Inferred++
	case OutcomeAsked:
		c.stats.Asked++
	}
	observe := c.observe
	c.mu.Unlock()

	if observe != nil {
		observe(outcome)
	}
}
