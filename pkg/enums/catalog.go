package enums

import (
	"fmt"
	"strings"
)

// Platform is a storefront platform a game ships on.
type Platform string

const (
	PlatformPC          Platform = "pc"
	PlatformPlayStation Platform = "playstation"
	PlatformXbox        Platform = "xbox"
	PlatformSwitch      Platform = "switch"
	PlatformMac         Platform = "mac"
)

var validPlatforms = []Platform{
	PlatformPC,
	PlatformPlayStation,
	PlatformXbox,
	PlatformSwitch,
	PlatformMac,
}

func (p Platform) String() string {
	return string(p)
}

func (p Platform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlatform is case-insensitive.
func ParsePlatform(value string) (Platform, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPlatforms {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform %q", value)
}

// Genre is a catalog genre tag.
type Genre string

const (
	GenreAction    Genre = "action"
	GenreAdventure Genre = "adventure"
	GenreRPG       Genre = "rpg"
	GenreStrategy  Genre = "strategy"
	GenreSports    Genre = "sports"
	GenreRacing    Genre = "racing"
	GenrePuzzle    Genre = "puzzle"
	GenreShooter   Genre = "shooter"
	GenreSimulator Genre = "simulation"
	GenreIndie     Genre = "indie"
)

var validGenres = []Genre{
	GenreAction,
	GenreAdventure,
	GenreRPG,
	GenreStrategy,
	GenreSports,
	GenreRacing,
	GenrePuzzle,
	GenreShooter,
	GenreSimulator,
	GenreIndie,
}

func (g Genre) String() string {
	return string(g)
}

func (g Genre) IsValid() bool {
	for _, candidate := range validGenres {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGenre is case-insensitive.
func ParseGenre(value string) (Genre, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validGenres {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid genre %q", value)
}
