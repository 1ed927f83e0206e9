package scene_rank_session_usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/Super-Badmen-Viper/songrank/internal/logging"
	"github.com/Super-Badmen-Viper/songrank/internal/metrics"
	"github.com/Super-Badmen-Viper/songrank/usecase/usecase_rank/scene_rank_core"
	"github.com/rs/zerolog"
)

const (
	SideLeft  = "left"
	SideRight = "right"
)

type rankSessionUsecase struct {
	catalog              scene_rank_interface.CatalogSource
	store                scene_rank_interface.KeyValueStore
	contextTimeout       time.Duration
	keepLedgerOnComplete bool
	logger               zerolog.Logger

	// 引擎运行在 baseCtx 下，与单个请求的生命周期无关
	baseCtx context.Context
	cancel  context.CancelFunc

	// startMu 串行化会话创建，mu 只保护 sessions
	startMu  sync.Mutex
	mu       sync.Mutex
	sessions map[string]*session
}

func NewRankSessionUsecase(
	catalog scene_rank_interface.CatalogSource,
	store scene_rank_interface.KeyValueStore,
	timeout time.Duration,
	keepLedgerOnComplete bool,
) scene_rank_interface.RankSessionUsecase {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &rankSessionUsecase{
		catalog:              catalog,
		store:                store,
		contextTimeout:       timeout,
		keepLedgerOnComplete: keepLedgerOnComplete,
		logger:               logging.With().Str("component", "rank_session").Logger(),
		baseCtx:              baseCtx,
		cancel:               cancel,
		sessions:             make(map[string]*session),
	}
}

func (u *rankSessionUsecase) StartSession(ctx context.Context, playlistID string) (*scene_rank_models.SessionStatus, error) {
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return nil, scene_rank_interface.ErrPlaylistNotFound
	}

	u.startMu.Lock()
	defer u.startMu.Unlock()

	if s := u.lookup(playlistID); s != nil {
		switch s.currentState() {
		case scene_rank_models.SessionStateFailed, scene_rank_models.SessionStateStopped:
			u.drop(playlistID)
		default:
			s.waitSettled(ctx)
			return s.status(), nil
		}
	}

	s := u.loadCompleted(ctx, playlistID)
	if s == nil {
		var err error
		if s, err = u.createSession(ctx, playlistID); err != nil {
			return nil, err
		}
		s.start(u.baseCtx)
	}
	u.put(s)
	metrics.SessionsStartedTotal.Inc()

	s.waitSettled(ctx)
	return s.status(), nil
}

func (u *rankSessionUsecase) createSession(ctx context.Context, playlistID string) (*session, error) {
	songs, err := u.catalog.GetSongs(ctx, playlistID)
	if err != nil {
		u.logger.Error().Err(err).Str("playlist_id", playlistID).Msg("加载歌单失败")
		return nil, err
	}
	if err := scene_rank_core.ValidateSongs(songs); err != nil {
		return nil, fmt.Errorf("%w: %w", scene_rank_interface.ErrInvalidCatalog, err)
	}

	return u.newSession(playlistID, songs, u.loadLedger(ctx, playlistID)), nil
}

func (u *rankSessionUsecase) newSession(playlistID string, songs []scene_rank_models.Song, ledger *scene_rank_core.Ledger) *session {
	s := newSession(playlistID, songs, ledger, u.logger)
	s.persist = u.persistLedger
	s.complete = u.saveCompleted
	return s
}

func (u *rankSessionUsecase) GetStatus(ctx context.Context, playlistID string) (*scene_rank_models.SessionStatus, error) {
	s, err := u.sessionFor(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return s.status(), nil
}

func (u *rankSessionUsecase) Choose(ctx context.Context, playlistID, songID string) (*scene_rank_models.SessionStatus, error) {
	s, err := u.sessionFor(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	return chooseLocked(ctx, s, songID)
}

// ChooseSide 按展示位置选择，left 为合并时左侧的歌曲。
// 读取待选对与提交选择在同一个 opMu 临界区内完成。
func (u *rankSessionUsecase) ChooseSide(ctx context.Context, playlistID, side string) (*scene_rank_models.SessionStatus, error) {
	s, err := u.sessionFor(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.waitSettled(ctx)
	pair := s.pendingPair()
	if pair == nil {
		return nil, scene_rank_interface.ErrNoPendingChoice
	}
	switch strings.ToLower(strings.TrimSpace(side)) {
	case SideLeft:
		return chooseLocked(ctx, s, pair.Left.ID)
	case SideRight:
		return chooseLocked(ctx, s, pair.Right.ID)
	default:
		return nil, scene_rank_interface.ErrInvalidSide
	}
}

// chooseLocked 调用方持有 s.opMu
func chooseLocked(ctx context.Context, s *session, songID string) (*scene_rank_models.SessionStatus, error) {
	s.waitSettled(ctx)
	if err := s.choose(songID); err != nil {
		return nil, translateChoiceError(err)
	}
	s.waitSettled(ctx)
	return s.status(), nil
}

// Undo 撤销最近一次选择：停止引擎、回退账本并持久化，再从头重放，
// 被撤销的那一对会重新出现在待选位置。
func (u *rankSessionUsecase) Undo(ctx context.Context, playlistID string) (*scene_rank_models.SessionStatus, error) {
	s, err := u.sessionFor(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.ledger.CanUndo() {
		return nil, scene_rank_interface.ErrNothingToUndo
	}

	s.stop()
	key, _ := s.ledger.UndoLast()
	if err := u.persistLedger(ctx, s, s.ledger); err != nil {
		s.logger.Warn().Err(err).Msg("撤销后持久化账本失败")
	}
	u.removeKey(ctx, SortedKey(playlistID))
	s.logger.Info().Str("pair", string(key)).Msg("已撤销最近一次选择")

	s.start(u.baseCtx)
	s.waitSettled(ctx)
	return s.status(), nil
}

// Reset 清空账本与结果，会话从内存中移除
func (u *rankSessionUsecase) Reset(ctx context.Context, playlistID string) error {
	if s := u.lookup(playlistID); s != nil {
		s.opMu.Lock()
		s.stop()
		s.ledger.Clear()
		s.opMu.Unlock()
		u.drop(playlistID)
	}

	ctx, cancel := context.WithTimeout(ctx, u.contextTimeout)
	defer cancel()

	var errs []error
	for _, key := range []string{ComparisonsKey(playlistID), SortedKey(playlistID)} {
		if err := u.store.Remove(ctx, key); err != nil {
			metrics.RecordStoreError("remove")
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("reset %s: %w", playlistID, err)
	}
	u.logger.Info().Str("playlist_id", playlistID).Msg("排名已重置")
	return nil
}

func (u *rankSessionUsecase) GetResult(ctx context.Context, playlistID, search string) ([]scene_rank_models.Song, error) {
	s, err := u.sessionFor(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	result := s.resultSnapshot()
	if result == nil {
		return nil, scene_rank_interface.ErrSessionNotComplete
	}
	return filterSongs(result, search), nil
}

// GetRanks 按目录原始顺序列出每首歌的名次
func (u *rankSessionUsecase) GetRanks(ctx context.Context, playlistID string) ([]scene_rank_models.RankEntry, error) {
	s, err := u.sessionFor(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	result := s.resultSnapshot()
	if result == nil {
		return nil, scene_rank_interface.ErrSessionNotComplete
	}

	rankByID := make(map[string]int, len(result))
	for i, song := range result {
		rankByID[song.ID] = i + 1
	}
	entries := make([]scene_rank_models.RankEntry, 0, len(s.songs))
	for _, song := range s.songs {
		entries = append(entries, scene_rank_models.RankEntry{Rank: rankByID[song.ID], Song: song})
	}
	return entries, nil
}

// Close 停止所有引擎，账本保留在存储中，重启后可继续
func (u *rankSessionUsecase) Close() {
	u.cancel()

	u.mu.Lock()
	sessions := make([]*session, 0, len(u.sessions))
	for _, s := range u.sessions {
		sessions = append(sessions, s)
	}
	u.mu.Unlock()

	for _, s := range sessions {
		s.stop()
	}
}

// sessionFor 内存中没有时尝试从已保存的结果恢复
func (u *rankSessionUsecase) sessionFor(ctx context.Context, playlistID string) (*session, error) {
	if s := u.lookup(playlistID); s != nil {
		return s, nil
	}

	u.startMu.Lock()
	defer u.startMu.Unlock()
	if s := u.lookup(playlistID); s != nil {
		return s, nil
	}
	if s := u.loadCompleted(ctx, playlistID); s != nil {
		u.put(s)
		return s, nil
	}
	return nil, scene_rank_interface.ErrSessionNotFound
}

func (u *rankSessionUsecase) removeKey(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, u.contextTimeout)
	defer cancel()
	if err := u.store.Remove(ctx, key); err != nil {
		metrics.RecordStoreError("remove")
		u.logger.Warn().Err(err).Str("key", key).Msg("删除键失败")
	}
}

func (u *rankSessionUsecase) lookup(playlistID string) *session {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sessions[playlistID]
}

func (u *rankSessionUsecase) put(s *session) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sessions[s.playlistID] = s
	metrics.ActiveSessions.Set(float64(len(u.sessions)))
}

func (u *rankSessionUsecase) drop(playlistID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.sessions, playlistID)
	metrics.ActiveSessions.Set(float64(len(u.sessions)))
}

func translateChoiceError(err error) error {
	switch {
	case errors.Is(err, scene_rank_core.ErrNoPendingComparison):
		return scene_rank_interface.ErrNoPendingChoice
	case errors.Is(err, scene_rank_core.ErrInvalidChoice):
		return scene_rank_interface.ErrInvalidChoice
	}
	return err
}
