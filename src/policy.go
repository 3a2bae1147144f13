package game

// TrustPolicy holds every decision about who is believed when a hit is
// resolved. Message shapes do not depend on it; only where damage is
// applied does.
type TrustPolicy interface {
	// ApplyMonsterDamage reports whether PvE damage is applied locally
	// before MonsterHit/MonsterDead are reported.
	ApplyMonsterDamage() bool
	// ApplyShooterDamage reports whether the shooter's client applies
	// damage to a remote player it hit, rather than only notifying.
	ApplyShooterDamage() bool
	// AcceptHit reports whether the local player, named as victim in an
	// inbound BulletCollision, takes the damage.
	AcceptHit(shooter string) bool
}

// ClientTrustPolicy is the behaviour the collaborator server expects:
// monster damage is decided by the shooting client and reported after the
// fact, while PvP damage is decided by the victim's client when it receives
// the hit notification.
type ClientTrustPolicy struct{}

func (ClientTrustPolicy) ApplyMonsterDamage() bool { return true }
func (ClientTrustPolicy) ApplyShooterDamage() bool { return false }
func (ClientTrustPolicy) AcceptHit(string) bool    { return true }
