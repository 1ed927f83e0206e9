package scene_rank_session_usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/Super-Badmen-Viper/songrank/internal/metrics"
	"github.com/Super-Badmen-Viper/songrank/usecase/usecase_rank/scene_rank_core"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// session 一个歌单的排名过程。引擎在独立 goroutine 中运行，
// HTTP 请求只通过 comparator.Choose 与其交互，状态变化通过 changed 广播。
type session struct {
	playlistID string
	songs      []scene_rank_models.Song // 目录原始顺序
	ledger     *scene_rank_core.Ledger
	progress   *scene_rank_core.Progress
	persist    func(ctx context.Context, s *session, ledger *scene_rank_core.Ledger) error
	complete   func(ctx context.Context, s *session, ranked []scene_rank_models.Song)
	logger     zerolog.Logger

	// opMu 串行化 choose / undo / reset
	opMu sync.Mutex

	mu         sync.Mutex
	state      string
	pending    *scene_rank_models.PendingPair
	percent    int
	comparator *scene_rank_core.Comparator
	cancel     context.CancelFunc
	done       chan struct{}
	result     []scene_rank_models.Song
	failure    error
	changed    chan struct{}
}

func newSession(playlistID string, songs []scene_rank_models.Song, ledger *scene_rank_core.Ledger, logger zerolog.Logger) *session {
	return &session{
		playlistID: playlistID,
		songs:      songs,
		ledger:     ledger,
		progress:   scene_rank_core.NewProgress(len(songs)),
		logger:     logger.With().Str("playlist_id", playlistID).Logger(),
		state:      scene_rank_models.SessionStateStopped,
		changed:    make(chan struct{}),
	}
}

// start 以 parent 派生的上下文启动一次引擎运行，会先按账本重放已有结果
func (s *session) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	comparator := scene_rank_core.NewComparator(s.ledger, s, s, s.progress, s)
	comparator.SetObserver(metrics.RecordComparison)
	done := make(chan struct{})

	s.mu.Lock()
	s.comparator = comparator
	s.cancel = cancel
	s.done = done
	s.state = scene_rank_models.SessionStateRunning
	s.pending = nil
	s.result = nil
	s.failure = nil
	s.percent = s.progress.Percent(s.ledger.Len())
	s.broadcastLocked()
	s.mu.Unlock()

	go s.run(ctx, comparator, done, uuid.NewString())
}

func (s *session) run(ctx context.Context, comparator *scene_rank_core.Comparator, done chan struct{}, runID string) {
	defer close(done)
	logger := s.logger.With().Str("run_id", runID).Logger()
	logger.Debug().Int("songs", len(s.songs)).Int("ledger", s.ledger.Len()).Msg("排序开始")

	ranked, err := scene_rank_core.NewEngine(comparator).Rank(ctx, s.songs)
	if err != nil {
		s.mu.Lock()
		s.pending = nil
		if errors.Is(err, context.Canceled) {
			s.state = scene_rank_models.SessionStateStopped
		} else {
			s.state = scene_rank_models.SessionStateFailed
			s.failure = err
			logger.Error().Err(err).Msg("排序失败")
		}
		s.broadcastLocked()
		s.mu.Unlock()
		return
	}

	if s.complete != nil {
		s.complete(ctx, s, ranked)
	}
	s.markCompleted(ranked)
	metrics.SessionsCompletedTotal.Inc()
	logger.Info().Interface("stats", comparator.Stats()).Msg("排序完成")
}

func (s *session) markCompleted(ranked []scene_rank_models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = scene_rank_models.SessionStateCompleted
	s.result = ranked
	s.pending = nil
	s.percent = 100
	s.broadcastLocked()
}

// stop 取消当前运行并等待引擎 goroutine 退出
func (s *session) stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// PresentPair 引擎挂起等待选择
func (s *session) PresentPair(left, right scene_rank_models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = scene_rank_models.SessionStateAwaitingChoice
	s.pending = &scene_rank_models.PendingPair{Left: left, Right: right}
	s.broadcastLocked()
}

func (s *session) ReportProgress(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percent = percent
	s.broadcastLocked()
}

func (s *session) SaveLedger(ctx context.Context, ledger *scene_rank_core.Ledger) error {
	if s.persist == nil {
		return nil
	}
	return s.persist(ctx, s, ledger)
}

// choose 交给挂起中的比较；持有 mu 时调用不会死锁，Choose 只写带缓冲的通道
func (s *session) choose(songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.comparator == nil || s.state != scene_rank_models.SessionStateAwaitingChoice {
		return scene_rank_core.ErrNoPendingComparison
	}
	if err := s.comparator.Choose(songID); err != nil {
		return err
	}
	s.state = scene_rank_models.SessionStateRunning
	s.pending = nil
	s.broadcastLocked()
	return nil
}

func (s *session) pendingPair() *scene_rank_models.PendingPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	pair := *s.pending
	return &pair
}

// waitSettled 等待引擎停在待选状态或结束；ctx 结束时直接返回当前状态
func (s *session) waitSettled(ctx context.Context) {
	for {
		s.mu.Lock()
		if s.state != scene_rank_models.SessionStateRunning {
			s.mu.Unlock()
			return
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}

func (s *session) currentState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) resultSnapshot() []scene_rank_models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != scene_rank_models.SessionStateCompleted {
		return nil
	}
	out := make([]scene_rank_models.Song, len(s.result))
	copy(out, s.result)
	return out
}

func (s *session) status() *scene_rank_models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &scene_rank_models.SessionStatus{
		PlaylistID:          s.playlistID,
		State:               s.state,
		SongCount:           len(s.songs),
		ExpectedComparisons: s.progress.Expected(),
		ResolvedComparisons: s.ledger.Len(),
		Percent:             s.percent,
	}
	if s.pending != nil {
		pair := *s.pending
		status.Pending = &pair
	}
	if s.comparator != nil {
		status.Stats = s.comparator.Stats()
	}
	if s.failure != nil {
		status.Error = s.failure.Error()
	}
	return status
}

func (s *session) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
