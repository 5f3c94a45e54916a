// Package catalog holds the static movement and obstacle code tables the
// backend and firmware agree on. It is a leaf package with no internal
// imports.
package catalog

import "math/rand"

// Entry is one row of a code catalog.
type Entry struct {
	ID   int
	Name string
}

// Moves lists the movement commands the carbot understands, in display order.
var Moves = []Entry{
	{ID: 1, Name: "Forward"},
	{ID: 2, Name: "Backward"},
	{ID: 3, Name: "Stop"},
	{ID: 4, Name: "Forward right turn"},
	{ID: 5, Name: "Forward left turn"},
	{ID: 6, Name: "Backward right turn"},
	{ID: 7, Name: "Backward left turn"},
	{ID: 8, Name: "Spin 90° right"},
	{ID: 9, Name: "Spin 90° left"},
	{ID: 10, Name: "Spin 360° right"},
	{ID: 11, Name: "Spin 360° left"},
}

// Obstacles lists the obstacle detection codes.
var Obstacles = []Entry{
	{ID: 1, Name: "Ahead"},
	{ID: 2, Name: "Ahead-left"},
	{ID: 3, Name: "Ahead-right"},
	{ID: 4, Name: "Ahead-left-right"},
	{ID: 5, Name: "Backing off"},
}

var (
	movesByID     = indexByID(Moves)
	obstaclesByID = indexByID(Obstacles)
)

func indexByID(entries []Entry) map[int]Entry {
	m := make(map[int]Entry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}

// MoveLabel returns the human label for a movement code.
func MoveLabel(id int) (string, bool) {
	e, ok := movesByID[id]
	return e.Name, ok
}

// ObstacleLabel returns the human label for an obstacle code.
func ObstacleLabel(id int) (string, bool) {
	e, ok := obstaclesByID[id]
	return e.Name, ok
}

// ValidMove reports whether id is a known movement code.
func ValidMove(id int) bool {
	_, ok := movesByID[id]
	return ok
}

// RandomObstacle picks a random obstacle entry, used by the manual test
// button on the control panel.
func RandomObstacle() Entry {
	return Obstacles[rand.Intn(len(Obstacles))]
}
