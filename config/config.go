package config

import "time"

// World geometry
const (
	TILE_SIZE       = 32 // Tile edge in pixels
	ENTITY_SIZE     = 24 // Default player/monster hit box edge in pixels
	ProjectileSize  = 8  // Projectile hit box edge in pixels
	DefaultMapCols  = 25
	DefaultMapRows  = 19
	TrailCapacity   = 8 // Positions kept in a projectile trail
	DefaultReplanAt = 20
)

// Game Speeds (pixels per tick)
const (
	DefaultPlayerSpeed     = 4
	DefaultMonsterSpeed    = 2
	DefaultProjectileSpeed = 8.0
)

// Simulation cadence
const (
	TICK_INTERVAL        = 50 * time.Millisecond // 20 ticks per second
	PROJECTILE_STEP      = 16 * time.Millisecond // Fixed delay between projectile steps
	MaxLiveProjectiles   = 64
	ContactCooldownTicks = 10
)

// Maps
const (
	LobbyMapID = "lobby"
	ArenaMapID = "arena"
	MazeMapID  = "maze"
)

// DefaultMapID is the map a freshly identified player is placed on.
const DefaultMapID = LobbyMapID

// DefaultPlayerSpawn is the fallback spawn point in pixels.
var DefaultPlayerSpawn = [2]int{
	TILE_SIZE + (TILE_SIZE-ENTITY_SIZE)/2,
	TILE_SIZE + (TILE_SIZE-ENTITY_SIZE)/2,
}

// PlayerMaxHealth is the health a player spawns with.
const PlayerMaxHealth = 100
