package glossary

import (
	"errors"
	"fmt"
)

var (
	ErrMissingEpisodeNumber       = errors.New("title missing episode number")
	ErrMissingEpisodeName         = errors.New("title missing episode name")
	ErrMissingEpisodeTitle        = errors.New("missing episode title")
	ErrUnrecognizedTimeCodeFormat = errors.New("unrecognized timecode format")
	ErrInvalidTimeCode            = errors.New("non-numeric types in timecode")
	ErrUnmatchedBitFragment       = errors.New("could not match bit content")
)

// UnmatchedBitFragmentError reports a bit fragment that no template claimed.
// Fragment holds the markup verbatim.
type UnmatchedBitFragmentError struct {
	Fragment string
}

func (e *UnmatchedBitFragmentError) Error() string {
	return fmt.Sprintf("%v '%s'", ErrUnmatchedBitFragment, e.Fragment)
}

func (e *UnmatchedBitFragmentError) Is(target error) bool {
	return target == ErrUnmatchedBitFragment
}

// FragmentError wraps a failure with the episode and bit fragment that caused it.
type FragmentError struct {
	Episode  int
	Fragment string
	Err      error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("parse bit fragment (episode %d): %v", e.Episode, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}
