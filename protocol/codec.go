package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
)

// SchemaVersion identifies the field layout in the schema table below.
// Bump it when any kind gains, loses or reorders fields.
const SchemaVersion = 1

const fieldSep = ","

var (
	// ErrMalformed wraps every decode failure.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownKeyword is returned for a line whose keyword has no schema.
	ErrUnknownKeyword = errors.New("unknown keyword")
	// ErrFieldDelimiter is returned when encoding a value that would split.
	ErrFieldDelimiter = errors.New("field contains a delimiter")
)

// DecodeError describes a line that could not be decoded.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

// schema describes one message kind on the wire. The first keyword is used
// for encoding; all are accepted when decoding. When freeTail is set the
// last field takes the remainder of the line, delimiters included.
type schema struct {
	kind     Kind
	keywords []string
	fields   []string
	freeTail bool
	decode   func(f []string) (Message, error)
}

var schemas = []schema{
	{KindID, []string{"ID"}, []string{"id", "username"}, false, func(f []string) (Message, error) {
		return ID{ID: f[0], Username: f[1]}, nil
	}},
	{KindNewClient, []string{"NewClient"}, []string{"username", "x", "y", "dir", "id", "map"}, false, func(f []string) (Message, error) {
		x, y, err := ints(f[1], f[2])
		if err != nil {
			return nil, err
		}
		dir, err := entity.ParseDirection(f[3])
		if err != nil {
			return nil, err
		}
		return NewClient{Username: f[0], X: x, Y: y, Dir: dir, ID: f[4], Map: f[5]}, nil
	}},
	{KindUpdate, []string{"Update"}, []string{"username", "x", "y", "dir"}, false, func(f []string) (Message, error) {
		x, y, err := ints(f[1], f[2])
		if err != nil {
			return nil, err
		}
		dir, err := entity.ParseDirection(f[3])
		if err != nil {
			return nil, err
		}
		return Update{Username: f[0], X: x, Y: y, Dir: dir}, nil
	}},
	{KindShot, []string{"Shot"}, []string{"username"}, false, func(f []string) (Message, error) {
		return Shot{Username: f[0]}, nil
	}},
	{KindBulletCollision, []string{"BulletCollision"}, []string{"shooter", "victim"}, false, func(f []string) (Message, error) {
		return BulletCollision{Shooter: f[0], Victim: f[1]}, nil
	}},
	{KindRemove, []string{"Remove"}, []string{"id"}, false, func(f []string) (Message, error) {
		return Remove{ID: f[0]}, nil
	}},
	{KindTeleport, []string{"TeleportToMap", "TeleportMap"}, []string{"username", "map", "x", "y"}, false, func(f []string) (Message, error) {
		x, y, err := ints(f[2], f[3])
		if err != nil {
			return nil, err
		}
		return Teleport{Username: f[0], Map: f[1], X: x, Y: y}, nil
	}},
	{KindEnterMaze, []string{"EnterMaze"}, []string{"username"}, false, func(f []string) (Message, error) {
		return EnterMaze{Username: f[0]}, nil
	}},
	{KindMaze, []string{"Maze"}, []string{"layout"}, true, func(f []string) (Message, error) {
		return Maze{Layout: f[0]}, nil
	}},
	{KindChat, []string{"Chat"}, []string{"username", "text"}, true, func(f []string) (Message, error) {
		return Chat{Username: f[0], Text: f[1]}, nil
	}},
	{KindMonsterHit, []string{"MonsterHit"}, []string{"id", "damage"}, false, func(f []string) (Message, error) {
		dmg, err := strconv.Atoi(f[1])
		if err != nil {
			return nil, err
		}
		return MonsterHit{MonsterID: f[0], Damage: dmg}, nil
	}},
	{KindMonsterDead, []string{"MonsterDead"}, []string{"id", "username"}, false, func(f []string) (Message, error) {
		return MonsterDead{MonsterID: f[0], Username: f[1]}, nil
	}},
	{KindScoreUpdate, []string{"ScoreUpdate"}, []string{"username", "score"}, false, func(f []string) (Message, error) {
		score, err := strconv.Atoi(f[1])
		if err != nil {
			return nil, err
		}
		return ScoreUpdate{Username: f[0], Score: score}, nil
	}},
	{KindLeaderboard, []string{"Leaderboard"}, []string{"entries"}, true, func(f []string) (Message, error) {
		entries, err := parseLeaderboard(f[0])
		if err != nil {
			return nil, err
		}
		return Leaderboard{Entries: entries}, nil
	}},
}

var (
	byKind    = map[Kind]*schema{}
	byKeyword = map[string]*schema{}
)

func init() {
	for i := range schemas {
		s := &schemas[i]
		byKind[s.kind] = s
		for _, kw := range s.keywords {
			byKeyword[kw] = s
		}
	}
}

// Keyword returns the wire keyword used when encoding kind.
func Keyword(k Kind) string {
	if s, ok := byKind[k]; ok {
		return s.keywords[0]
	}
	return ""
}

// Encode formats m as a single line without the trailing newline.
func Encode(m Message) (string, error) {
	s, ok := byKind[m.Kind()]
	if !ok {
		return "", fmt.Errorf("encode: no schema for kind %d", m.Kind())
	}
	vals := m.values()
	for i, v := range vals {
		tail := s.freeTail && i == len(vals)-1
		if strings.ContainsAny(v, "\r\n") || (!tail && strings.Contains(v, fieldSep)) {
			return "", fmt.Errorf("encode %s.%s %q: %w", s.keywords[0], s.fields[i], v, ErrFieldDelimiter)
		}
	}
	if lb, ok := m.(Leaderboard); ok {
		for _, e := range lb.Entries {
			if strings.ContainsAny(e.Username, listSep+entrySep) {
				return "", fmt.Errorf("encode %s.username %q: %w", s.keywords[0], e.Username, ErrFieldDelimiter)
			}
		}
	}
	return s.keywords[0] + fieldSep + strings.Join(vals, fieldSep), nil
}

// MustEncode is Encode for values built from trusted fields; it panics on
// error and is meant for tests and constants.
func MustEncode(m Message) string {
	line, err := Encode(m)
	if err != nil {
		panic(err)
	}
	return line
}

// Decode parses one line. Trailing CR/LF is ignored.
func Decode(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	kw, rest, _ := strings.Cut(line, fieldSep)
	s, ok := byKeyword[kw]
	if !ok {
		return nil, &DecodeError{Line: line, Err: fmt.Errorf("%w %q", ErrUnknownKeyword, kw)}
	}

	var fields []string
	if s.freeTail {
		fields = strings.SplitN(rest, fieldSep, len(s.fields))
	} else {
		fields = strings.Split(rest, fieldSep)
	}
	if len(fields) != len(s.fields) {
		return nil, &DecodeError{Line: line, Err: fmt.Errorf("%s wants %d fields, got %d", kw, len(s.fields), len(fields))}
	}
	m, err := s.decode(fields)
	if err != nil {
		return nil, &DecodeError{Line: line, Err: err}
	}
	return m, nil
}

func ints(a, b string) (int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
