package domain

// Episode is one podcast episode header recognized in the glossary.
type Episode struct {
	// Num is the episode number taken from the "Episode <N>" title text.
	Num int `bson:"num" json:"num"`

	// Name is the title text after the ": " delimiter, verbatim.
	Name string `bson:"name" json:"name"`

	// StreamLink is the href of the title link, when present.
	StreamLink *string `bson:"stream_link" json:"streamLink"`
}
