package scene_rank_core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/goccy/go-json"
)

// PairSeparator 拼接 PairKey 的分隔符，歌曲 ID 中不允许出现
const PairSeparator = "__"

// PairKey 无序歌曲对的规范键
type PairKey string

// PairKeyOf 两个 ID 按字典序排序后拼接，PairKeyOf(a,b) == PairKeyOf(b,a)
func PairKeyOf(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey(a + PairSeparator + b)
}

// Split 拆回两个 ID
func (k PairKey) Split() (string, string, bool) {
	a, b, ok := strings.Cut(string(k), PairSeparator)
	if !ok || a == "" || b == "" || strings.Contains(b, PairSeparator) {
		return "", "", false
	}
	return a, b, true
}

var ErrCorruptLedger = errors.New("corrupt comparison ledger")

// Ledger 记录用户直接做出的两两比较结果。
// 同一对歌曲至多一条结果，重复写入直接覆盖；只保留一级撤销。
type Ledger struct {
	mu      sync.RWMutex
	entries map[PairKey]string
	undo    *undoRecord
}

// undoRecord 最近一次写入前该键的状态
type undoRecord struct {
	Key         PairKey `json:"key"`
	Previous    string  `json:"previous,omitempty"`
	HadPrevious bool    `json:"had_previous"`
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[PairKey]string)}
}

func (l *Ledger) Lookup(key PairKey) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	winner, ok := l.entries[key]
	return winner, ok
}

// Record 写入 a、b 之间的胜者并记为最近一次写入
func (l *Ledger) Record(a, b scene_rank_models.Song, winnerID string) PairKey {
	key := PairKeyOf(a.ID, b.ID)

	l.mu.Lock()
	defer l.mu.Unlock()
	previous, had := l.entries[key]
	l.undo = &undoRecord{Key: key, Previous: previous, HadPrevious: had}
	l.entries[key] = winnerID
	return key
}

// UndoLast 撤销最近一次写入，该键恢复到写入前的状态。没有可撤销的写入时返回 false。
func (l *Ledger) UndoLast() (PairKey, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.undo == nil {
		return "", false
	}
	u := l.undo
	l.undo = nil
	if u.HadPrevious {
		l.entries[u.Key] = u.Previous
	} else {
		delete(l.entries, u.Key)
	}
	return u.Key, true
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[PairKey]string)
	l.undo = nil
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// CanUndo 是否存在可撤销的写入
func (l *Ledger) CanUndo() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.undo != nil
}

// Entries 返回快照
func (l *Ledger) Entries() map[PairKey]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[PairKey]string, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// outcomeGraph 胜者 -> 败者 邻接表，按需从账本推导，不单独保存
func (l *Ledger) outcomeGraph() map[string][]string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	graph := make(map[string][]string, len(l.entries))
	for key, winner := range l.entries {
		a, b, ok := key.Split()
		if !ok {
			continue
		}
		loser := b
		if winner == b {
			loser = a
		}
		graph[winner] = append(graph[winner], loser)
	}
	// map 遍历无序，邻接表排序后 BFS 访问顺序稳定
	for winner := range graph {
		sort.Strings(graph[winner])
	}
	return graph
}

type ledgerDocument struct {
	Comparisons map[PairKey]string `json:"comparisons"`
	Last        *undoRecord        `json:"last,omitempty"`
}

func (l *Ledger) MarshalJSON() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc := ledgerDocument{Comparisons: l.entries, Last: l.undo}
	if doc.Comparisons == nil {
		doc.Comparisons = map[PairKey]string{}
	}
	return json.Marshal(doc)
}

// ParseLedger 解析持久化的账本。直接调用 UnmarshalJSON，
// 解码器的语法错误同样包装为 ErrCorruptLedger。
func ParseLedger(data []byte) (*Ledger, error) {
	l := NewLedger()
	if err := l.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return l, nil
}

// UnmarshalJSON 同时兼容旧版浏览器端写入的扁平 {pairKey: winnerId} 格式
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptLedger, err)
	}

	doc := ledgerDocument{}
	if _, ok := raw["comparisons"]; ok {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptLedger, err)
		}
	} else {
		flat := make(map[PairKey]string, len(raw))
		if err := json.Unmarshal(data, &flat); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptLedger, err)
		}
		doc.Comparisons = flat
	}

	entries := make(map[PairKey]string, len(doc.Comparisons))
	for key, winner := range doc.Comparisons {
		a, b, ok := key.Split()
		if !ok || (winner != a && winner != b) {
			return fmt.Errorf("%w: invalid entry %q -> %q", ErrCorruptLedger, key, winner)
		}
		entries[PairKeyOf(a, b)] = winner
	}
	if doc.Last != nil {
		if _, _, ok := doc.Last.Key.Split(); !ok {
			doc.Last = nil
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.undo = doc.Last
	return nil
}
