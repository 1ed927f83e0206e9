package scene_rank_session_usecase

import (
	"strings"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
)

// filterSongs 标题、表演者、专辑或表演者拼音包含关键字即命中，保持原有顺序
func filterSongs(songs []scene_rank_models.Song, search string) []scene_rank_models.Song {
	query := strings.ToLower(strings.TrimSpace(search))
	if query == "" {
		return songs
	}

	matched := make([]scene_rank_models.Song, 0, len(songs))
	for _, song := range songs {
		if matchesSong(song, query) {
			matched = append(matched, song)
		}
	}
	return matched
}

func matchesSong(song scene_rank_models.Song, query string) bool {
	pinyin := strings.ToLower(song.ArtistPinyin)
	for _, field := range []string{
		song.Title,
		song.Artist,
		song.Album,
		pinyin,
		strings.ReplaceAll(pinyin, " ", ""),
	} {
		if field != "" && strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
