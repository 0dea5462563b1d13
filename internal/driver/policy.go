package driver

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/DoyleJ11/chessmate-smoke/internal/session"
	"github.com/DoyleJ11/chessmate-smoke/internal/wire"
)

const DefaultBoardSize = 8

// FixedMove always plays (x, y).
func FixedMove(x, y int) session.MovePolicy {
	return func(session.Session) wire.Move { return wire.Move{X: x, Y: y} }
}

// RandomMove plays uniformly random squares on a size x size board.
// The returned policy may be shared between concurrent runs.
func RandomMove(src rand.Source, size int) session.MovePolicy {
	if size <= 0 {
		size = DefaultBoardSize
	}
	var mu sync.Mutex
	r := rand.New(src)
	return func(session.Session) wire.Move {
		mu.Lock()
		defer mu.Unlock()
		return wire.Move{X: r.IntN(size), Y: r.IntN(size)}
	}
}

// ParseMovePolicy understands "x,y", "random" and "random:<size>".
func ParseMovePolicy(expr string) (session.MovePolicy, error) {
	expr = strings.TrimSpace(expr)
	if expr == "random" || strings.HasPrefix(expr, "random:") {
		size := DefaultBoardSize
		if rest, ok := strings.CutPrefix(expr, "random:"); ok {
			n, err := strconv.Atoi(rest)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("move policy %q: bad board size", expr)
			}
			size = n
		}
		return RandomMove(rand.NewPCG(rand.Uint64(), rand.Uint64()), size), nil
	}

	xs, ys, ok := strings.Cut(expr, ",")
	if !ok {
		return nil, fmt.Errorf("move policy %q: want \"x,y\" or \"random\"", expr)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return nil, fmt.Errorf("move policy %q: bad x: %w", expr, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return nil, fmt.Errorf("move policy %q: bad y: %w", expr, err)
	}
	return FixedMove(x, y), nil
}
