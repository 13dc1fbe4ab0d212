package models

import "fmt"

// Rating is a content-maturity classification for a custom avatar, ordered
// G < PG < R < X with G the most permissive.
type Rating string

const (
	RatingG  Rating = "G"
	RatingPG Rating = "PG"
	RatingR  Rating = "R"
	RatingX  Rating = "X"
)

var ratingRanks = map[Rating]int{
	RatingG:  1,
	RatingPG: 2,
	RatingR:  3,
	RatingX:  4,
}

// Rank returns the rating's position in the total order. An empty or unknown
// rating ranks as G: an attachment with no rating recorded must be treated as
// most permissive, never most restrictive.
func (r Rating) Rank() int {
	if rank, ok := ratingRanks[r]; ok {
		return rank
	}
	return ratingRanks[RatingG]
}

// ParseRating validates a rating string. Malformed values are rejected, not
// coerced.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if _, ok := ratingRanks[r]; !ok {
		return "", fmt.Errorf("invalid rating %q", s)
	}
	return r, nil
}
