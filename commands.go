package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duongdatdev/miniisland-2.0-sub000/config"
	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/pathfinding"
	game "github.com/duongdatdev/miniisland-2.0-sub000/src"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

var (
	arenaTicks int
	arenaSeed  int64
	pathFrom   string
	pathTo     string
	pathMode   string
)

var arenaCmd = &cobra.Command{
	Use:   "arena",
	Short: "Run an offline arena session with a scripted player",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		tuning, err := loadTuning(cfg)
		if err != nil {
			return err
		}

		sent := map[string]int{}
		engine, err := game.NewEngine(game.EngineConfig{
			Username: cfg.Username,
			Tuning:   tuning,
			Seed:     arenaSeed,
			Sender: game.SenderFunc(func(line string) error {
				keyword, _, _ := strings.Cut(line, ",")
				sent[keyword]++
				return nil
			}),
			Logger: log,
		})
		if err != nil {
			return err
		}
		defer engine.Close()

		deaths := 0
		engine.Context().OnScene = func(ev game.SceneEvent) {
			if ev.Kind == game.SceneDeath {
				deaths++
			}
		}

		started := false
		input := func() game.Input {
			if !started {
				started = true
				return game.Input{Teleport: config.ArenaMapID}
			}
			return scriptedInput(engine.Snapshot())
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(arenaTicks)*cfg.TickInterval)
		defer cancel()
		if err := engine.Run(ctx, input); err != nil {
			return err
		}

		s := engine.Snapshot()
		fmt.Println("--------------------------------------------------")
		fmt.Printf("Ticks:        %d\n", s.Tick)
		fmt.Printf("Wave:         %d (kills %d/%d, career %d)\n", s.Wave.Wave, s.Wave.Kills, s.Wave.Quota, s.Wave.CareerKills)
		fmt.Printf("Score:        %d\n", s.Player.Score)
		fmt.Printf("Health:       %d/%d\n", s.Player.Health, s.Player.MaxHealth)
		fmt.Printf("Deaths:       %d\n", deaths)
		fmt.Printf("Messages out: %v\n", sent)
		fmt.Println("--------------------------------------------------")
		log.Debug("arena session finished", zap.Int("ticks", arenaTicks))
		return nil
	},
}

// scriptedInput aims at the nearest monster and backs away from it when it
// gets close.
func scriptedInput(s *game.Snapshot) game.Input {
	if s == nil {
		return game.Input{}
	}
	px := s.Player.X + config.ENTITY_SIZE/2
	py := s.Player.Y + config.ENTITY_SIZE/2
	best, bestDist := -1, math.MaxFloat64
	for i, e := range s.Entities {
		if e.Kind != entity.Monster.String() {
			continue
		}
		if d := math.Hypot(float64(e.X-px), float64(e.Y-py)); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return game.Input{}
	}
	dx := float64(s.Entities[best].X - px)
	dy := float64(s.Entities[best].Y - py)
	in := game.Input{Fire: true, AimX: dx, AimY: dy}
	if bestDist < 3*config.TILE_SIZE {
		in.Move = entity.FromVector(-dx, -dy)
	}
	return in
}

var pathCmd = &cobra.Command{
	Use:   "path <layout-file>",
	Short: "Find a path on a layout file and print it",
	Long:  `Reads a layout (rows separated by newlines or ';', optional '|' overlay section) and prints the path between two cells.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		text := strings.ReplaceAll(strings.TrimSpace(string(data)), "\r\n", "\n")
		text = strings.ReplaceAll(text, "\n", ";")
		g, err := tilemap.ParseLayout(text, config.TILE_SIZE)
		if err != nil {
			return err
		}
		from, err := parseCellFlag(pathFrom)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		to, err := parseCellFlag(pathTo)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		mode, err := pathfinding.ParseMode(pathMode)
		if err != nil {
			return err
		}

		path := pathfinding.FindPath(g, mode, from, to)
		if len(path) == 0 {
			fmt.Println("No path found.")
			return nil
		}
		fmt.Printf("Path found with %d cells (%s):\n", len(path), mode)
		printPath(g, path)
		return nil
	},
}

func parseCellFlag(s string) (tilemap.Cell, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return tilemap.Cell{}, fmt.Errorf("want col,row, got %q", s)
	}
	col, err := strconv.Atoi(a)
	if err != nil {
		return tilemap.Cell{}, err
	}
	row, err := strconv.Atoi(b)
	if err != nil {
		return tilemap.Cell{}, err
	}
	return tilemap.Cell{Col: col, Row: row}, nil
}

func printPath(g *tilemap.Grid, path []tilemap.Cell) {
	on := make(map[tilemap.Cell]bool, len(path))
	for _, c := range path {
		on[c] = true
	}
	start, end := path[0], path[len(path)-1]
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			cell := tilemap.Cell{Col: c, Row: r}
			switch {
			case cell == start:
				fmt.Print("S ")
			case cell == end:
				fmt.Print("E ")
			case on[cell]:
				fmt.Print("+ ") // Path trail
			case !g.Walkable(c, r):
				fmt.Print("● ") // Obstacle
			case g.Effective(c, r) == tilemap.Water:
				fmt.Print("~ ")
			default:
				fmt.Print(". ")
			}
		}
		fmt.Println()
	}
}

func init() {
	arenaCmd.Flags().IntVar(&arenaTicks, "ticks", 600, "Number of ticks to simulate.")
	arenaCmd.Flags().Int64Var(&arenaSeed, "seed", 1, "Seed for the arena layout and spawns.")
	pathCmd.Flags().StringVar(&pathFrom, "from", "0,0", "Start cell as col,row.")
	pathCmd.Flags().StringVar(&pathTo, "to", "0,0", "Goal cell as col,row.")
	pathCmd.Flags().StringVar(&pathMode, "mode", "astar", "Search mode: astar or bfs.")
}
