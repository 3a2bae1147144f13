package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MonsterSpec describes one monster archetype.
type MonsterSpec struct {
	Name     string `yaml:"name"`
	Health   int    `yaml:"health"`
	Speed    int    `yaml:"speed"`
	Damage   int    `yaml:"damage"`
	Score    int    `yaml:"score"`
	Size     int    `yaml:"size"`
	PathMode string `yaml:"path_mode"` // "astar" or "bfs"
	Boss     bool   `yaml:"boss"`
}

// WeightTier is a weighted type table that applies once the player's
// career kills reach MinCareerKills.
type WeightTier struct {
	MinCareerKills int            `yaml:"min_career_kills"`
	Weights        map[string]int `yaml:"weights"`
}

// WaveTuning holds the wave spawner progression knobs. Intervals are in ticks.
type WaveTuning struct {
	InitialQuota    int     `yaml:"initial_quota"`
	QuotaStep       int     `yaml:"quota_step"`
	MaxQuota        int     `yaml:"max_quota"`
	InitialInterval int     `yaml:"initial_interval"`
	IntervalStep    int     `yaml:"interval_step"`
	MinInterval     int     `yaml:"min_interval"`
	Cap             int     `yaml:"cap"`
	BatchSize       int     `yaml:"batch_size"`
	BossEvery       int     `yaml:"boss_every"`
	BossType        string  `yaml:"boss_type"`
	MinSpawnTiles   int     `yaml:"min_spawn_tiles"`
	PowerUpChance   float64 `yaml:"power_up_chance"`
	PowerUpHeal     int     `yaml:"power_up_heal"`
	ReplanEvery     int     `yaml:"replan_every"`
}

// HazardSpec describes one maze hazard type.
type HazardSpec struct {
	Name           string  `yaml:"name"`
	Damage         int     `yaml:"damage"`
	CooldownTicks  int     `yaml:"cooldown_ticks"`
	RevealTicks    int     `yaml:"reveal_ticks"`
	SlowMultiplier float64 `yaml:"slow_multiplier"` // 0 or 1 means no slow
	SlowTicks      int     `yaml:"slow_ticks"`
}

// MazeTuning holds the maze spawner knobs.
type MazeTuning struct {
	Hazards           int      `yaml:"hazards"`
	Enemies           int      `yaml:"enemies"`
	EnemyType         string   `yaml:"enemy_type"`
	MinPlayerDistance int      `yaml:"min_player_distance"`
	MaxAttempts       int      `yaml:"max_attempts"`
	HazardTypes       []string `yaml:"hazard_types"`
}

// ProjectileSpec describes one projectile type.
type ProjectileSpec struct {
	Name   string  `yaml:"name"`
	Speed  float64 `yaml:"speed"`
	Range  float64 `yaml:"range"`
	Damage int     `yaml:"damage"`
	Pierce int     `yaml:"pierce"` // entities it may hit before stopping
}

// Tuning is the full set of data-driven gameplay tables.
type Tuning struct {
	DefaultMonster string           `yaml:"default_monster"`
	Monsters       []MonsterSpec    `yaml:"monsters"`
	Tiers          []WeightTier     `yaml:"tiers"`
	Wave           WaveTuning       `yaml:"wave"`
	Maze           MazeTuning       `yaml:"maze"`
	Hazards        []HazardSpec     `yaml:"hazards"`
	Projectiles    []ProjectileSpec `yaml:"projectiles"`
}

// DefaultTuning returns the built-in tables.
func DefaultTuning() Tuning {
	return Tuning{
		DefaultMonster: "slime",
		Monsters: []MonsterSpec{
			{Name: "slime", Health: 20, Speed: 1, Damage: 5, Score: 10, Size: 20, PathMode: "bfs"},
			{Name: "goblin", Health: 30, Speed: 2, Damage: 8, Score: 20, Size: 22, PathMode: "astar"},
			{Name: "orc", Health: 60, Speed: 2, Damage: 12, Score: 40, Size: 26, PathMode: "astar"},
			{Name: "skeleton", Health: 45, Speed: 3, Damage: 10, Score: 35, Size: 22, PathMode: "astar"},
			{Name: "dragon", Health: 300, Speed: 2, Damage: 25, Score: 250, Size: 30, PathMode: "astar", Boss: true},
		},
		Tiers: []WeightTier{
			{MinCareerKills: 0, Weights: map[string]int{"slime": 70, "goblin": 30}},
			{MinCareerKills: 25, Weights: map[string]int{"slime": 40, "goblin": 40, "skeleton": 20}},
			{MinCareerKills: 75, Weights: map[string]int{"slime": 15, "goblin": 35, "skeleton": 30, "orc": 20}},
			{MinCareerKills: 200, Weights: map[string]int{"goblin": 20, "skeleton": 40, "orc": 40}},
		},
		Wave: WaveTuning{
			InitialQuota:    5,
			QuotaStep:       3,
			MaxQuota:        40,
			InitialInterval: 60,
			IntervalStep:    5,
			MinInterval:     15,
			Cap:             10,
			BatchSize:       2,
			BossEvery:       5,
			BossType:        "dragon",
			MinSpawnTiles:   5,
			PowerUpChance:   0.1,
			PowerUpHeal:     25,
			ReplanEvery:     DefaultReplanAt,
		},
		Maze: MazeTuning{
			Hazards:           12,
			Enemies:           4,
			EnemyType:         "skeleton",
			MinPlayerDistance: 3,
			MaxAttempts:       50,
			HazardTypes:       []string{"spikes", "mud", "fire"},
		},
		Hazards: []HazardSpec{
			{Name: "spikes", Damage: 15, CooldownTicks: 40, RevealTicks: 20},
			{Name: "mud", Damage: 2, CooldownTicks: 30, RevealTicks: 30, SlowMultiplier: 0.5, SlowTicks: 60},
			{Name: "fire", Damage: 10, CooldownTicks: 20, RevealTicks: 10},
		},
		Projectiles: []ProjectileSpec{
			{Name: "bullet", Speed: DefaultProjectileSpeed, Range: 320, Damage: 10, Pierce: 1},
			{Name: "arrow", Speed: 10, Range: 480, Damage: 8, Pierce: 3},
		},
	}
}

// LoadTuning returns DefaultTuning overlaid with the YAML file at path.
// An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning %s: %w", path, err)
	}
	return ParseTuning(data)
}

// ParseTuning overlays YAML data onto DefaultTuning. Top-level keys absent
// from data keep their defaults.
func ParseTuning(data []byte) (Tuning, error) {
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate checks cross-table references and value ranges.
func (t Tuning) Validate() error {
	names := make(map[string]bool, len(t.Monsters))
	for _, m := range t.Monsters {
		if m.Name == "" {
			return fmt.Errorf("tuning: monster with empty name")
		}
		names[m.Name] = true
	}
	if !names[t.DefaultMonster] {
		return fmt.Errorf("tuning: default monster %q not defined", t.DefaultMonster)
	}
	if t.Wave.MinInterval <= 0 || t.Wave.InitialInterval < t.Wave.MinInterval {
		return fmt.Errorf("tuning: wave interval %d below floor %d", t.Wave.InitialInterval, t.Wave.MinInterval)
	}
	if t.Wave.InitialQuota <= 0 || t.Wave.MaxQuota < t.Wave.InitialQuota {
		return fmt.Errorf("tuning: wave quota %d above max %d", t.Wave.InitialQuota, t.Wave.MaxQuota)
	}
	for _, p := range t.Projectiles {
		if p.Speed <= 0 || p.Range <= 0 {
			return fmt.Errorf("tuning: projectile %q needs positive speed and range, got %v and %v", p.Name, p.Speed, p.Range)
		}
	}
	hz := make(map[string]bool, len(t.Hazards))
	for _, h := range t.Hazards {
		hz[h.Name] = true
	}
	for _, name := range t.Maze.HazardTypes {
		if !hz[name] {
			return fmt.Errorf("tuning: maze hazard %q not defined", name)
		}
	}
	return nil
}
