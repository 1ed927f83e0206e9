package scene_rank_core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/stretchr/testify/require"
)

type Song = scene_rank_models.Song

func song(id string) scene_rank_models.Song {
	return scene_rank_models.Song{ID: id, Title: "Title " + id, Artist: "Artist " + id}
}

func songs(ids ...string) []scene_rank_models.Song {
	out := make([]scene_rank_models.Song, 0, len(ids))
	for _, id := range ids {
		out = append(out, song(id))
	}
	return out
}

func ids(list []scene_rank_models.Song) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

// lowerIDWins 模拟总是选择编号更小歌曲的用户
func lowerIDWins(left, right scene_rank_models.Song) string {
	if left.ID < right.ID {
		return left.ID
	}
	return right.ID
}

// scriptedSurface 在 PresentPair 中同步调用 Choose
type scriptedSurface struct {
	t          *testing.T
	comparator *Comparator
	pick       func(left, right scene_rank_models.Song) string
	presented  []PairKey
}

func (s *scriptedSurface) PresentPair(left, right scene_rank_models.Song) {
	s.presented = append(s.presented, PairKeyOf(left.ID, right.ID))
	if s.pick == nil {
		return
	}
	require.NoError(s.t, s.comparator.Choose(s.pick(left, right)))
}

func newScriptedComparator(t *testing.T, ledger *Ledger, pick func(left, right scene_rank_models.Song) string) (*Comparator, *scriptedSurface) {
	surface := &scriptedSurface{t: t, pick: pick}
	comparator := NewComparator(ledger, surface, nil, nil, nil)
	surface.comparator = comparator
	return comparator, surface
}

type recordingPersister struct {
	mu    sync.Mutex
	saves int
	err   error
}

func (p *recordingPersister) SaveLedger(_ context.Context, _ *Ledger) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	return p.err
}

type recordingSink struct {
	reports []int
}

func (s *recordingSink) ReportProgress(percent int) {
	s.reports = append(s.reports, percent)
}

var errStoreDown = errors.New("store down")
