package scene_rank_catalog_repository

import (
	"strings"
	"unicode/utf8"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// repairText 标签中常见 GBK 编码的中文，非法 UTF-8 时尝试 GBK 与 GB18030 解码
func repairText(input string) string {
	input = strings.TrimSpace(input)
	if utf8.ValidString(input) {
		return input
	}

	if output, _, err := transform.String(simplifiedchinese.GBK.NewDecoder(), input); err == nil && utf8.ValidString(output) {
		return output
	}
	if output, _, err := transform.String(simplifiedchinese.GB18030.NewDecoder(), input); err == nil && utf8.ValidString(output) {
		return output
	}
	return strings.ToValidUTF8(input, "")
}

// artistPinyin 表演者拼音，用于结果搜索；非中文字符被忽略
func artistPinyin(artist string) string {
	return strings.Join(pinyin.LazyConvert(artist, nil), " ")
}

// normalizeSong 所有目录来源返回前统一清洗
func normalizeSong(song scene_rank_models.Song) scene_rank_models.Song {
	song.Title = repairText(song.Title)
	song.Artist = repairText(song.Artist)
	song.Album = repairText(song.Album)
	if song.ArtistPinyin == "" {
		song.ArtistPinyin = artistPinyin(song.Artist)
	}
	return song
}
