package domain

// TimeCode is an in-episode playback timestamp.
type TimeCode struct {
	Secs int `bson:"secs" json:"secs"`
	Mins int `bson:"mins" json:"mins"`
	Hrs  int `bson:"hrs" json:"hrs"`
}

// Bit is a named comedic segment referenced within an episode.
//
// Episode is a soft reference to Episode.Num: it is whatever episode owned the
// enclosing bit list when the bit was matched, and is never cross-checked.
type Bit struct {
	Name          string    `bson:"name" json:"name"`
	AltName       *string   `bson:"alt_name" json:"altName"`
	Episode       int       `bson:"episode" json:"episode"`
	TimeCode      *TimeCode `bson:"time_cd" json:"timeCd"`
	IsHistoryRoad bool      `bson:"is_history_road" json:"isHistoryRoad"`
	IsLegendary   bool      `bson:"is_legendary" json:"isLegendary"`

	// Links holds embedded URLs in first-appearance order. Never nil.
	Links []string `bson:"links" json:"links"`
}
