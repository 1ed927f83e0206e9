package scene_rank_models

// Song 参与排名的歌曲，ID 一经创建不可变，相等性与 map 键只看 ID
type Song struct {
	ID           string  `bson:"_id" json:"id"`
	Title        string  `bson:"title" json:"title"`
	Artist       string  `bson:"artist" json:"artist"`
	ArtistPinyin string  `bson:"artist_pinyin,omitempty" json:"artist_pinyin,omitempty"`
	Album        string  `bson:"album,omitempty" json:"album,omitempty"`
	Image        string  `bson:"image,omitempty" json:"image,omitempty"` // 封面地址
	Duration     float64 `bson:"duration,omitempty" json:"duration,omitempty"`
}

// RankEntry 按目录原始顺序导出的名次
type RankEntry struct {
	Rank int  `json:"rank"`
	Song Song `json:"song"`
}
