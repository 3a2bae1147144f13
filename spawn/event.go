package spawn

import "github.com/duongdatdev/miniisland-2.0-sub000/entity"

// EventKind classifies what a spawner did during an update.
type EventKind int

const (
	Spawned EventKind = iota
	BossSpawned
	Killed
	WaveAdvanced
	PlayerHit
	PowerUpDropped
	PowerUpCollected
	HazardTriggered
)

func (k EventKind) String() string {
	switch k {
	case Spawned:
		return "spawned"
	case BossSpawned:
		return "boss_spawned"
	case Killed:
		return "killed"
	case WaveAdvanced:
		return "wave_advanced"
	case PlayerHit:
		return "player_hit"
	case PowerUpDropped:
		return "power_up_dropped"
	case PowerUpCollected:
		return "power_up_collected"
	case HazardTriggered:
		return "hazard_triggered"
	}
	return "unknown"
}

// Event reports one spawner-side change to the caller.
type Event struct {
	Kind   EventKind
	Entity *entity.Entity
	Amount int // damage, heal, score or wave number depending on Kind
}
