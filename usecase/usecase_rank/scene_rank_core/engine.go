package scene_rank_core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
)

var (
	ErrInvalidSongID   = errors.New("invalid song id")
	ErrDuplicateSongID = errors.New("duplicate song id")
)

// ValidateSongs 歌曲 ID 必须非空、互不相同，且不能与 PairKey 分隔符混淆
func ValidateSongs(songs []scene_rank_models.Song) error {
	seen := make(map[string]struct{}, len(songs))
	for _, song := range songs {
		id := song.ID
		if id == "" || strings.Contains(id, PairSeparator) ||
			strings.HasPrefix(id, "_") || strings.HasSuffix(id, "_") {
			return fmt.Errorf("%w: %q", ErrInvalidSongID, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateSongID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Engine 以 Comparator 为比较原语的归并排序，胜者排在前面
type Engine struct {
	comparator *Comparator
}

func NewEngine(comparator *Comparator) *Engine {
	return &Engine{comparator: comparator}
}

// Rank 左半部分完整排完再排右半部分，合并时从左到右比较，
// 相同账本与输入顺序下向用户提问的顺序是确定的。
func (e *Engine) Rank(ctx context.Context, songs []scene_rank_models.Song) ([]scene_rank_models.Song, error) {
	if len(songs) <= 1 {
		out := make([]scene_rank_models.Song, len(songs))
		copy(out, songs)
		return out, nil
	}

	middle := len(songs) / 2
	left, err := e.Rank(ctx, songs[:middle])
	if err != nil {
		return nil, err
	}
	right, err := e.Rank(ctx, songs[middle:])
	if err != nil {
		return nil, err
	}
	return e.merge(ctx, left, right)
}

func (e *Engine) merge(ctx context.Context, left, right []scene_rank_models.Song) ([]scene_rank_models.Song, error) {
	result := make([]scene_rank_models.Song, 0, len(left)+len(right))
	leftIndex, rightIndex := 0, 0

	for leftIndex < len(left) && rightIndex < len(right) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		winner, err := e.comparator.Compare(ctx, left[leftIndex], right[rightIndex])
		if err != nil {
			return nil, err
		}
		if winner.ID == left[leftIndex].ID {
			result = append(result, left[leftIndex])
			leftIndex++
		} else {
			result = append(result, right[rightIndex])
			rightIndex++
		}
	}

	// 剩余部分已有序，直接追加
	result = append(result, left[leftIndex:]...)
	result = append(result, right[rightIndex:]...)
	return result, nil
}
