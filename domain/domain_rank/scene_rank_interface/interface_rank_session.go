package scene_rank_interface

import (
	"context"
	"errors"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
)

type RankSessionUsecase interface {
	StartSession(ctx context.Context, playlistID string) (*scene_rank_models.SessionStatus, error)
	GetStatus(ctx context.Context, playlistID string) (*scene_rank_models.SessionStatus, error)

	Choose(ctx context.Context, playlistID, songID string) (*scene_rank_models.SessionStatus, error)
	ChooseSide(ctx context.Context, playlistID, side string) (*scene_rank_models.SessionStatus, error)
	Undo(ctx context.Context, playlistID string) (*scene_rank_models.SessionStatus, error)
	Reset(ctx context.Context, playlistID string) error

	GetResult(ctx context.Context, playlistID, search string) ([]scene_rank_models.Song, error)
	GetRanks(ctx context.Context, playlistID string) ([]scene_rank_models.RankEntry, error)

	Close()
}

var (
	ErrSessionNotFound    = errors.New("ranking session not found")
	ErrSessionNotComplete = errors.New("ranking session has not completed")
	ErrNoPendingChoice    = errors.New("no comparison is awaiting a choice")
	ErrInvalidChoice      = errors.New("choice is not part of the pending pair")
	ErrInvalidSide        = errors.New("side must be left or right")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrInvalidCatalog     = errors.New("catalog contains invalid or duplicate song ids")
)
