package glossary

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	episodeNumber = regexp.MustCompile(`Episode ([0-9]+)`)
	episodeName   = regexp.MustCompile(`: .+`)
)

// EpisodeTitle is the number and name pulled out of an episode title.
type EpisodeTitle struct {
	Num  int
	Name string
}

// ParseEpisodeTitle extracts the episode number from "Episode <N>" and the
// name following the first ": " delimiter, e.g. "Episode 1: History Road".
func ParseEpisodeTitle(t string) (EpisodeTitle, error) {
	m := episodeNumber.FindStringSubmatch(t)
	if m == nil {
		return EpisodeTitle{}, fmt.Errorf("%w: '%s'", ErrMissingEpisodeNumber, t)
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return EpisodeTitle{}, fmt.Errorf("%w: '%s': %v", ErrMissingEpisodeNumber, t, err)
	}

	name := episodeName.FindString(t)
	if name == "" {
		return EpisodeTitle{}, fmt.Errorf("%w: '%s'", ErrMissingEpisodeName, t)
	}

	return EpisodeTitle{Num: num, Name: name[2:]}, nil
}
