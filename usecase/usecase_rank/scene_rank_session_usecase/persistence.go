package scene_rank_session_usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/Super-Badmen-Viper/songrank/internal/metrics"
	"github.com/Super-Badmen-Viper/songrank/usecase/usecase_rank/scene_rank_core"
	"github.com/goccy/go-json"
)

const keyPrefix = "songrank:"

// ComparisonsKey 账本在 KV 存储中的键
func ComparisonsKey(playlistID string) string {
	return keyPrefix + playlistID + ":comparisons"
}

// SortedKey 最终排序结果在 KV 存储中的键
func SortedKey(playlistID string) string {
	return keyPrefix + playlistID + ":sorted"
}

// savedResult 完成后保存的结果，自带目录顺序，恢复时无需再次拉取目录
type savedResult struct {
	Sorted       []scene_rank_models.Song `json:"sorted"`
	CatalogOrder []string                 `json:"catalog_order"`
}

func (u *rankSessionUsecase) persistLedger(ctx context.Context, s *session, ledger *scene_rank_core.Ledger) error {
	data, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, u.contextTimeout)
	defer cancel()
	if err := u.store.Set(ctx, ComparisonsKey(s.playlistID), string(data)); err != nil {
		metrics.RecordStoreError("set")
		return err
	}
	return nil
}

// loadLedger 读取失败或内容损坏时返回空账本，不阻止会话开始
func (u *rankSessionUsecase) loadLedger(ctx context.Context, playlistID string) *scene_rank_core.Ledger {
	ledger := scene_rank_core.NewLedger()
	logger := u.logger.With().Str("playlist_id", playlistID).Logger()

	ctx, cancel := context.WithTimeout(ctx, u.contextTimeout)
	defer cancel()

	raw, ok, err := u.store.Get(ctx, ComparisonsKey(playlistID))
	if err != nil {
		metrics.RecordStoreError("get")
		logger.Warn().Err(err).Msg("读取账本失败，从空账本开始")
		return ledger
	}
	if !ok {
		return ledger
	}

	parsed, err := scene_rank_core.ParseLedger([]byte(raw))
	if err != nil {
		logger.Warn().Err(err).Msg("账本已损坏，丢弃后重新开始")
		if err := u.store.Remove(ctx, ComparisonsKey(playlistID)); err != nil {
			metrics.RecordStoreError("remove")
		}
		return scene_rank_core.NewLedger()
	}

	logger.Info().Int("entries", parsed.Len()).Msg("已恢复账本")
	return parsed
}

// saveCompleted 保存排序结果，默认同时删除已无用的账本
func (u *rankSessionUsecase) saveCompleted(ctx context.Context, s *session, ranked []scene_rank_models.Song) {
	doc := savedResult{Sorted: ranked, CatalogOrder: make([]string, 0, len(s.songs))}
	for _, song := range s.songs {
		doc.CatalogOrder = append(doc.CatalogOrder, song.ID)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		s.logger.Warn().Err(err).Msg("序列化排序结果失败")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, u.contextTimeout)
	defer cancel()

	if err := u.store.Set(ctx, SortedKey(s.playlistID), string(data)); err != nil {
		metrics.RecordStoreError("set")
		s.logger.Warn().Err(err).Msg("保存排序结果失败")
		return
	}
	if u.keepLedgerOnComplete {
		return
	}
	if err := u.store.Remove(ctx, ComparisonsKey(s.playlistID)); err != nil {
		metrics.RecordStoreError("remove")
		s.logger.Warn().Err(err).Msg("删除账本失败")
	}
}

var errSavedResultMismatch = errors.New("saved result does not match its catalog order")

// loadCompleted 已保存的结果恢复为完成状态的会话，不存在时返回 nil
func (u *rankSessionUsecase) loadCompleted(ctx context.Context, playlistID string) *session {
	logger := u.logger.With().Str("playlist_id", playlistID).Logger()

	ctx, cancel := context.WithTimeout(ctx, u.contextTimeout)
	defer cancel()

	raw, ok, err := u.store.Get(ctx, SortedKey(playlistID))
	if err != nil {
		metrics.RecordStoreError("get")
		logger.Warn().Err(err).Msg("读取排序结果失败")
		return nil
	}
	if !ok {
		return nil
	}

	var doc savedResult
	err = json.Unmarshal([]byte(raw), &doc)
	if err == nil && len(doc.Sorted) != len(doc.CatalogOrder) {
		err = errSavedResultMismatch
	}
	songs := make([]scene_rank_models.Song, 0, len(doc.CatalogOrder))
	if err == nil {
		byID := make(map[string]scene_rank_models.Song, len(doc.Sorted))
		for _, song := range doc.Sorted {
			byID[song.ID] = song
		}
		for _, id := range doc.CatalogOrder {
			song, found := byID[id]
			if !found {
				err = errSavedResultMismatch
				break
			}
			songs = append(songs, song)
		}
	}
	if err != nil {
		logger.Warn().Err(err).Msg("排序结果已损坏，丢弃")
		if err := u.store.Remove(ctx, SortedKey(playlistID)); err != nil {
			metrics.RecordStoreError("remove")
		}
		return nil
	}

	s := u.newSession(playlistID, songs, u.loadLedger(ctx, playlistID))
	s.markCompleted(doc.Sorted)
	logger.Debug().Int("songs", len(songs)).Msg("已恢复排序结果")
	return s
}
