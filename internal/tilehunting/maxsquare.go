package tilehunting

import (
	"github.com/jengzang/sporttracker-backend-go/internal/models"
)

// MaxSquare finds the largest axis-aligned square of fully visited tiles.
//
// Every tile is tried as top-left corner in input order and the square is
// grown until a tile is missing. On equal size the first corner wins, so the
// result depends on the input order (callers pass tiles sorted by (x, y)).
// The returned tiles are ordered column by column: for dx, for dy.
func MaxSquare(tiles []models.TilePosition) []models.TilePosition {
	visited := make(map[models.TilePosition]struct{}, len(tiles))
	for _, t := range tiles {
		visited[t] = struct{}{}
	}

	bestSize := 0
	var bestCorner models.TilePosition

	for _, corner := range tiles {
		size := squareSizeAt(visited, corner)
		if size > bestSize {
			bestSize = size
			bestCorner = corner
		}
	}

	result := make([]models.TilePosition, 0, bestSize*bestSize)
	for dx := 0; dx < bestSize; dx++ {
		for dy := 0; dy < bestSize; dy++ {
			result = append(result, models.TilePosition{X: bestCorner.X + dx, Y: bestCorner.Y + dy})
		}
	}
	return result
}

// squareSizeAt grows a square from corner and returns the largest side whose
// tiles are all visited. A square of side s-1 being complete means only the
// new right column and bottom row have to be checked for side s.
func squareSizeAt(visited map[models.TilePosition]struct{}, corner models.TilePosition) int {
	size := 0
	for {
		next := size + 1
		edge := size // offset of the new column/row
		for i := 0; i < next; i++ {
			if !isVisited(visited, corner.X+edge, corner.Y+i) || !isVisited(visited, corner.X+i, corner.Y+edge) {
				return size
			}
		}
		size = next
	}
}

func isVisited(visited map[models.TilePosition]struct{}, x, y int) bool {
	_, ok := visited[models.TilePosition{X: x, Y: y}]
	return ok
}
