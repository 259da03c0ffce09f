package game

import (
	"errors"

	"github.com/aldenhart/dungeon-balance-go/internal/engine"
)

// TileType categorizes a board square.
type TileType string

const (
	TileEmpty     TileType = "empty"
	TileWall      TileType = "wall"
	TileStart     TileType = "start"
	TileExit      TileType = "exit"
	TileTreasure  TileType = "treasure"
	TileEncounter TileType = "encounter"
)

var (
	ErrOutOfBounds = errors.New("position outside the board")
	ErrNotPassable = errors.New("destination tile is not passable")
	ErrOccupied    = errors.New("destination tile is occupied")
)

// Position is an (x, y) coordinate on the board.
type Position struct {
	X, Y int
}

// Tile is one square of the board.
type Tile struct {
	Type     TileType
	Occupant *Agent
}

// Board is a rectangular grid with a start tile, an exit tile, and a random
// scatter of walls, treasure, and encounter tiles.
type Board struct {
	Width  int
	Height int
	Start  Position
	Exit   Position
	tiles  [][]Tile
}

// LayoutConfig tunes random board generation.
type LayoutConfig struct {
	WallProbability      float64
	TreasureProbability  float64
	EncounterProbability float64
}

// DefaultLayout returns the standard tile densities.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		WallProbability:      0.12,
		TreasureProbability:  0.05,
		EncounterProbability: 0.05,
	}
}

// NewBoard generates a width x height board from the trial's random source.
// The start is the top-left corner and the exit the bottom-right; both are
// always kept clear.
func NewBoard(width, height int, layout LayoutConfig, src *engine.Source) *Board {
	if width < 4 {
		width = 4
	}
	if height < 4 {
		height = 4
	}

	b := &Board{
		Width:  width,
		Height: height,
		Start:  Position{0, 0},
		Exit:   Position{width - 1, height - 1},
		tiles:  make([][]Tile, height),
	}

	for y := 0; y < height; y++ {
		b.tiles[y] = make([]Tile, width)
		for x := 0; x < width; x++ {
			roll := src.Float64()
			switch {
			case roll < layout.WallProbability:
				b.tiles[y][x] = Tile{Type: TileWall}
			case roll < layout.WallProbability+layout.TreasureProbability:
				b.tiles[y][x] = Tile{Type: TileTreasure}
			case roll < layout.WallProbability+layout.TreasureProbability+layout.EncounterProbability:
				b.tiles[y][x] = Tile{Type: TileEncounter}
			default:
				b.tiles[y][x] = Tile{Type: TileEmpty}
			}
		}
	}

	b.tiles[b.Start.Y][b.Start.X] = Tile{Type: TileStart}
	b.tiles[b.Exit.Y][b.Exit.X] = Tile{Type: TileExit}
	return b
}

// InBounds reports whether the position is on the board.
func (b *Board) InBounds(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// TileAt returns the tile at p. Callers must check InBounds first.
func (b *Board) TileAt(p Position) *Tile {
	return &b.tiles[p.Y][p.X]
}

// Passable reports whether an agent can enter the tile.
func (b *Board) Passable(p Position) bool {
	return b.InBounds(p) && b.tiles[p.Y][p.X].Type != TileWall
}

// Place puts an agent on a tile. The tile must be passable and unoccupied.
func (b *Board) Place(a *Agent, p Position) error {
	if !b.InBounds(p) {
		return ErrOutOfBounds
	}
	if !b.Passable(p) {
		return ErrNotPassable
	}
	if b.tiles[p.Y][p.X].Occupant != nil {
		return ErrOccupied
	}
	b.tiles[p.Y][p.X].Occupant = a
	a.Pos = p
	return nil
}

// Move relocates an agent to a destination tile, clearing its old tile.
func (b *Board) Move(a *Agent, dest Position) error {
	if !b.InBounds(dest) {
		return ErrOutOfBounds
	}
	if !b.Passable(dest) {
		return ErrNotPassable
	}
	if occ := b.tiles[dest.Y][dest.X].Occupant; occ != nil && occ != a {
		return ErrOccupied
	}

	if b.InBounds(a.Pos) && b.tiles[a.Pos.Y][a.Pos.X].Occupant == a {
		b.tiles[a.Pos.Y][a.Pos.X].Occupant = nil
	}
	b.tiles[dest.Y][dest.X].Occupant = a
	a.Pos = dest
	return nil
}

// Remove clears a dead agent's tile.
func (b *Board) Remove(a *Agent) {
	if b.InBounds(a.Pos) && b.tiles[a.Pos.Y][a.Pos.X].Occupant == a {
		b.tiles[a.Pos.Y][a.Pos.X].Occupant = nil
	}
}

// Distance is the Manhattan distance between two positions.
func (b *Board) Distance(p, q Position) int {
	dx := p.X - q.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - q.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Adjacent returns the in-bounds orthogonal neighbors of p.
func (b *Board) Adjacent(p Position) []Position {
	candidates := []Position{
		{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1},
	}
	out := candidates[:0]
	for _, c := range candidates {
		if b.InBounds(c) {
			out = append(out, c)
		}
	}
	return out
}

// EntitiesInRange returns the agents within the given Manhattan radius of p,
// excluding any occupant of p itself.
func (b *Board) EntitiesInRange(p Position, radius int) []*Agent {
	var out []*Agent
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			occ := b.tiles[y][x].Occupant
			if occ == nil {
				continue
			}
			pos := Position{x, y}
			if pos == p {
				continue
			}
			if b.Distance(p, pos) <= radius {
				out = append(out, occ)
			}
		}
	}
	return out
}

// StepToward returns the passable, unoccupied neighbor of from that most
// reduces distance to dest, or from itself when no step helps.
func (b *Board) StepToward(from, dest Position) Position {
	best := from
	bestDist := b.Distance(from, dest)
	for _, c := range b.Adjacent(from) {
		if !b.Passable(c) || b.tiles[c.Y][c.X].Occupant != nil {
			continue
		}
		if d := b.Distance(c, dest); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// StepAway returns the passable, unoccupied neighbor of from that most
// increases distance to threat, or from itself when cornered.
func (b *Board) StepAway(from, threat Position) Position {
	best := from
	bestDist := b.Distance(from, threat)
	for _, c := range b.Adjacent(from) {
		if !b.Passable(c) || b.tiles[c.Y][c.X].Occupant != nil {
			continue
		}
		if d := b.Distance(c, threat); d > bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
