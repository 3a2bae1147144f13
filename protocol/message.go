package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
)

// Kind discriminates message records.
type Kind int

const (
	KindID Kind = iota
	KindNewClient
	KindUpdate
	KindShot
	KindBulletCollision
	KindRemove
	KindTeleport
	KindEnterMaze
	KindMaze
	KindChat
	KindMonsterHit
	KindMonsterDead
	KindScoreUpdate
	KindLeaderboard
)

// Message is one decoded protocol line.
type Message interface {
	Kind() Kind
	values() []string
}

// ID assigns the local identity.
type ID struct {
	ID       string
	Username string
}

// NewClient announces a player joining a map.
type NewClient struct {
	Username string
	X, Y     int
	Dir      entity.Direction
	ID       string
	Map      string
}

// Update carries a player's position and facing.
type Update struct {
	Username string
	X, Y     int
	Dir      entity.Direction
}

// Shot announces that a player fired.
type Shot struct {
	Username string
}

// BulletCollision reports a PvP hit of Shooter on Victim.
type BulletCollision struct {
	Shooter string
	Victim  string
}

// Remove deletes an entity by ID.
type Remove struct {
	ID string
}

// Teleport moves a player to another map.
type Teleport struct {
	Username string
	Map      string
	X, Y     int
}

// EnterMaze asks the server for a maze layout.
type EnterMaze struct {
	Username string
}

// Maze delivers a full tile layout (see tilemap.ParseLayout).
type Maze struct {
	Layout string
}

// Chat is a chat line; Text may contain commas.
type Chat struct {
	Username string
	Text     string
}

// MonsterHit reports PvE damage dealt to a monster.
type MonsterHit struct {
	MonsterID string
	Damage    int
}

// MonsterDead reports a monster kill credited to Username.
type MonsterDead struct {
	MonsterID string
	Username  string
}

// ScoreUpdate reports a player's new score.
type ScoreUpdate struct {
	Username string
	Score    int
}

// LeaderboardEntry is one row of a leaderboard snapshot.
type LeaderboardEntry struct {
	Username string `json:"username" msgpack:"username"`
	Score    int    `json:"score" msgpack:"score"`
}

// Leaderboard replaces the whole leaderboard snapshot.
type Leaderboard struct {
	Entries []LeaderboardEntry
}

func (ID) Kind() Kind              { return KindID }
func (NewClient) Kind() Kind       { return KindNewClient }
func (Update) Kind() Kind          { return KindUpdate }
func (Shot) Kind() Kind            { return KindShot }
func (BulletCollision) Kind() Kind { return KindBulletCollision }
func (Remove) Kind() Kind          { return KindRemove }
func (Teleport) Kind() Kind        { return KindTeleport }
func (EnterMaze) Kind() Kind       { return KindEnterMaze }
func (Maze) Kind() Kind            { return KindMaze }
func (Chat) Kind() Kind            { return KindChat }
func (MonsterHit) Kind() Kind      { return KindMonsterHit }
func (MonsterDead) Kind() Kind     { return KindMonsterDead }
func (ScoreUpdate) Kind() Kind     { return KindScoreUpdate }
func (Leaderboard) Kind() Kind     { return KindLeaderboard }

func (m ID) values() []string { return []string{m.ID, m.Username} }
func (m NewClient) values() []string {
	return []string{m.Username, itoa(m.X), itoa(m.Y), m.Dir.String(), m.ID, m.Map}
}
func (m Update) values() []string {
	return []string{m.Username, itoa(m.X), itoa(m.Y), m.Dir.String()}
}
func (m Shot) values() []string            { return []string{m.Username} }
func (m BulletCollision) values() []string { return []string{m.Shooter, m.Victim} }
func (m Remove) values() []string          { return []string{m.ID} }
func (m Teleport) values() []string {
	return []string{m.Username, m.Map, itoa(m.X), itoa(m.Y)}
}
func (m EnterMaze) values() []string   { return []string{m.Username} }
func (m Maze) values() []string        { return []string{m.Layout} }
func (m Chat) values() []string        { return []string{m.Username, m.Text} }
func (m MonsterHit) values() []string  { return []string{m.MonsterID, itoa(m.Damage)} }
func (m MonsterDead) values() []string { return []string{m.MonsterID, m.Username} }
func (m ScoreUpdate) values() []string { return []string{m.Username, itoa(m.Score)} }
func (m Leaderboard) values() []string {
	parts := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		parts[i] = e.Username + entrySep + itoa(e.Score)
	}
	return []string{strings.Join(parts, listSep)}
}

const (
	listSep  = "|"
	entrySep = ":"
)

func parseLeaderboard(s string) ([]LeaderboardEntry, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, listSep)
	out := make([]LeaderboardEntry, 0, len(parts))
	for _, p := range parts {
		i := strings.LastIndex(p, entrySep)
		if i < 0 {
			return nil, fmt.Errorf("leaderboard entry %q has no score", p)
		}
		score, err := strconv.Atoi(p[i+1:])
		if err != nil {
			return nil, fmt.Errorf("leaderboard entry %q: %w", p, err)
		}
		out = append(out, LeaderboardEntry{Username: p[:i], Score: score})
	}
	return out, nil
}

func itoa(n int) string { return strconv.Itoa(n) }
