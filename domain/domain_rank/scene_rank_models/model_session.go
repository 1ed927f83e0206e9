package scene_rank_models

const (
	SessionStateRunning        = "running"
	SessionStateAwaitingChoice = "awaiting_choice"
	SessionStateCompleted      = "completed"
	SessionStateStopped        = "stopped"
	SessionStateFailed         = "failed"
)

// PendingPair 当前等待用户选择的一对歌曲
type PendingPair struct {
	Left  Song `json:"left"`
	Right Song `json:"right"`
}

// CompareStats 比较结果来源统计
type CompareStats struct {
	LedgerHits int `json:"ledger_hits"`
	Inferred   int `json:"inferred"`
	Asked      int `json:"asked"`
}

type SessionStatus struct {
	PlaylistID          string       `json:"playlist_id"`
	State               string       `json:"state"`
	SongCount           int          `json:"song_count"`
	ExpectedComparisons float64      `json:"expected_comparisons"`
	ResolvedComparisons int          `json:"resolved_comparisons"`
	Percent             int          `json:"percent"`
	Pending             *PendingPair `json:"pending,omitempty"`
	Stats               CompareStats `json:"stats"`
	Error               string       `json:"error,omitempty"`
}
