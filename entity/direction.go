package entity

import (
	"fmt"
	"math"
)

// Direction is a compass heading. The zero value NONE means standing still.
type Direction int

const (
	NONE Direction = iota
	UP
	UP_RIGHT
	RIGHT
	DOWN_RIGHT
	DOWN
	DOWN_LEFT
	LEFT
	UP_LEFT
)

var directionNames = [...]string{
	NONE:       "STAND",
	UP:         "UP",
	UP_RIGHT:   "UP_RIGHT",
	RIGHT:      "RIGHT",
	DOWN_RIGHT: "DOWN_RIGHT",
	DOWN:       "DOWN",
	DOWN_LEFT:  "DOWN_LEFT",
	LEFT:       "LEFT",
	UP_LEFT:    "UP_LEFT",
}

func (d Direction) String() string {
	if d < NONE || d > UP_LEFT {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection maps a wire name back to a Direction.
func ParseDirection(s string) (Direction, error) {
	for d, name := range directionNames {
		if name == s {
			return Direction(d), nil
		}
	}
	return NONE, fmt.Errorf("unknown direction %q", s)
}

// Cardinal reports whether d is one of UP, RIGHT, DOWN, LEFT.
func (d Direction) Cardinal() bool {
	return d == UP || d == RIGHT || d == DOWN || d == LEFT
}

// Split decomposes d into its horizontal and vertical cardinal parts.
// Missing parts are NONE.
func (d Direction) Split() (h, v Direction) {
	switch d {
	case UP, DOWN:
		return NONE, d
	case LEFT, RIGHT:
		return d, NONE
	case UP_RIGHT:
		return RIGHT, UP
	case DOWN_RIGHT:
		return RIGHT, DOWN
	case DOWN_LEFT:
		return LEFT, DOWN
	case UP_LEFT:
		return LEFT, UP
	}
	return NONE, NONE
}

// Vector converts a Direction to a normalized (dx, dy) vector.
func (d Direction) Vector() (float64, float64) {
	// Normalize diagonal vectors to maintain consistent speed
	const diag = 0.70710678118 // 1 / sqrt(2)
	switch d {
	case UP:
		return 0, -1
	case UP_RIGHT:
		return diag, -diag
	case RIGHT:
		return 1, 0
	case DOWN_RIGHT:
		return diag, diag
	case DOWN:
		return 0, 1
	case DOWN_LEFT:
		return -diag, diag
	case LEFT:
		return -1, 0
	case UP_LEFT:
		return -diag, -diag
	default: // NONE or any other unexpected direction
		return 0, 0
	}
}

// FromVector picks the compass direction closest to (dx, dy).
func FromVector(dx, dy float64) Direction {
	if dx == 0 && dy == 0 {
		return NONE
	}
	angle := math.Atan2(dy, dx)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	sector := (int(math.Round(angle/(math.Pi/4))) + 2) % 8
	return UP + Direction(sector)
}

// Dominant picks a cardinal direction from the larger axis of (dx, dy).
// Ties favour the horizontal axis.
func Dominant(dx, dy int) Direction {
	switch {
	case dx == 0 && dy == 0:
		return NONE
	case abs(dx) >= abs(dy):
		if dx > 0 {
			return RIGHT
		}
		return LEFT
	case dy > 0:
		return DOWN
	}
	return UP
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
