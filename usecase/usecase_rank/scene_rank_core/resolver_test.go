package scene_rank_core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer_Transitive(t *testing.T) {
	ledger := NewLedger()
	ledger.Record(song("A"), song("B"), "A")
	ledger.Record(song("B"), song("C"), "B")

	winner, ok := Infer(song("A"), song("C"), ledger)
	require.True(t, ok)
	assert.Equal(t, "A", winner.ID)

	winner, ok = Infer(song("C"), song("A"), ledger)
	require.True(t, ok)
	assert.Equal(t, "A", winner.ID)

	assert.Equal(t, 2, ledger.Len(), "inference is never written back")
}

func TestInfer_NoPath(t *testing.T) {
	ledger := NewLedger()
	ledger.Record(song("A"), song("B"), "A")
	ledger.Record(song("C"), song("B"), "C")

	// A、C 都胜过 B，但彼此之间没有链路
	_, ok := Infer(song("A"), song("C"), ledger)
	assert.False(t, ok)

	_, ok = Infer(song("A"), song("B"), NewLedger())
	assert.False(t, ok)
}

func TestInfer_LongChain(t *testing.T) {
	ledger := NewLedger()
	chain := []string{"S1", "S2", "S3", "S4", "S5", "S6"}
	for i := 0; i+1 < len(chain); i++ {
		ledger.Record(song(chain[i]), song(chain[i+1]), chain[i])
	}

	winner, ok := Infer(song("S6"), song("S1"), ledger)
	require.True(t, ok)
	assert.Equal(t, "S1", winner.ID)
}

func TestInfer_CycleTerminates(t *testing.T) {
	ledger := NewLedger()
	ledger.Record(song("A"), song("B"), "A")
	ledger.Record(song("B"), song("C"), "B")
	ledger.Record(song("C"), song("A"), "C")

	// 有环时 a -> b 先被检查
	winner, ok := Infer(song("A"), song("C"), ledger)
	require.True(t, ok)
	assert.Equal(t, "A", winner.ID)

	_, ok = Infer(song("A"), song("D"), ledger)
	assert.False(t, ok)
}

func TestInfer_DisjointPairs(t *testing.T) {
	ledger := NewLedger()
	ledger.Record(song("A"), song("B"), "A")
	ledger.Record(song("C"), song("D"), "C")

	_, ok := Infer(song("A"), song("D"), ledger)
	assert.False(t, ok)
}
