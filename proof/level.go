package proof

import "fmt"

// Level is the common {none, low, medium, high} scale used for
// thoroughness, understanding, and advisory/issue severity (spec.md §3).
// Trust has its own scale, TrustLevel.
type Level int

const (
	LevelNone Level = iota
	LevelLow
	LevelMedium
	LevelHigh
)

var levelNames = [...]string{"none", "low", "medium", "high"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel parses one of "none", "low", "medium", "high".
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("proof: unknown level %q", s)
}

func (l Level) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

func (l *Level) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// TrustLevel is the trust-specific scale, which additionally has a
// "distrust" value below "none" in severity but special in the WoT engine.
type TrustLevel int

const (
	TrustDistrust TrustLevel = iota
	TrustNone
	TrustLow
	TrustMedium
	TrustHigh
)

var trustLevelNames = [...]string{"distrust", "none", "low", "medium", "high"}

func (t TrustLevel) String() string {
	if t < 0 || int(t) >= len(trustLevelNames) {
		return fmt.Sprintf("TrustLevel(%d)", int(t))
	}
	return trustLevelNames[t]
}

// ParseTrustLevel parses one of "distrust", "none", "low", "medium", "high".
func ParseTrustLevel(s string) (TrustLevel, error) {
	for i, name := range trustLevelNames {
		if name == s {
			return TrustLevel(i), nil
		}
	}
	return 0, fmt.Errorf("proof: unknown trust level %q", s)
}

func (t TrustLevel) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *TrustLevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseTrustLevel(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Rating is the package-review rating scale.
type Rating int

const (
	RatingDangerous Rating = iota
	RatingNegative
	RatingNeutral
	RatingPositive
	RatingStrong
)

var ratingNames = [...]string{"dangerous", "negative", "neutral", "positive", "strong"}

func (r Rating) String() string {
	if r < 0 || int(r) >= len(ratingNames) {
		return fmt.Sprintf("Rating(%d)", int(r))
	}
	return ratingNames[r]
}

// ParseRating parses one of "dangerous", "negative", "neutral", "positive", "strong".
func ParseRating(s string) (Rating, error) {
	for i, name := range ratingNames {
		if name == s {
			return Rating(i), nil
		}
	}
	return 0, fmt.Errorf("proof: unknown rating %q", s)
}

func (r Rating) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

func (r *Rating) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseRating(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Positive reports whether a rating counts toward a passing review
// (spec.md §4.6 step 5).
func (r Rating) Positive() bool {
	return r == RatingPositive || r == RatingStrong
}

// AdvisoryRange describes how far back an advisory's fix reaches.
type AdvisoryRange int

const (
	RangeAll AdvisoryRange = iota
	RangeMajor
	RangeMinor
)

var rangeNames = [...]string{"all", "major", "minor"}

func (r AdvisoryRange) String() string {
	if r < 0 || int(r) >= len(rangeNames) {
		return fmt.Sprintf("AdvisoryRange(%d)", int(r))
	}
	return rangeNames[r]
}

// ParseAdvisoryRange parses one of "all", "major", "minor".
func ParseAdvisoryRange(s string) (AdvisoryRange, error) {
	for i, name := range rangeNames {
		if name == s {
			return AdvisoryRange(i), nil
		}
	}
	return 0, fmt.Errorf("proof: unknown advisory range %q", s)
}

func (r AdvisoryRange) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

func (r *AdvisoryRange) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseAdvisoryRange(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
