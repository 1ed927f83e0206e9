package domain

const (
	CollectionRankKeyValue = "songrank_kv_store"
)

const (
	CollectionRankPlaylistTrack = "songrank_playlist_tracks"
)
const (
	CollectionRankMediaFile = "songrank_media_files"
)
