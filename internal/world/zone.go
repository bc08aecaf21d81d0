// Package world implements the world directory loader: a scan for files
// ending in ".zone", each parsed into a Zone of Rooms, linked into a single
// in-memory graph. Grounded on
// original_source/jMUD/src/server/world/WorldEngine.cpp.
package world

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultWorldDir is the conventional world directory. It equals the
// world_dir default in config.DefaultEngineConfig, which is the fallback
// jmudserver applies when settings don't specify server.game.world.
const DefaultWorldDir = "./data/world"

// DefaultStartingRoomVNum is the conventional starting room. The original
// hardcodes room 12; this repo generalizes that to a configurable value but
// keeps 12 as the inherited default (config.DefaultEngineConfig's
// starting_room_vnum, used when settings don't specify
// server.game.starting_room) so an unmodified jMUD world directory still
// resolves correctly.
const DefaultStartingRoomVNum = 12

// World is the loaded, linked room graph.
type World struct {
	log   *slog.Logger
	Zones []*Zone
	Rooms []*Room

	StartRoom *Room
}

// Load scans dir for "*.zone" files, parses each into a Zone, links every
// room's exits by vnum, and resolves startingRoomVNum as the entry point.
// Returns an error if the directory can't be read or the starting room
// can't be found after linking, matching WorldEngine::LoadWorld's fatal
// conditions.
func Load(log *slog.Logger, dir string, startingRoomVNum int) (*World, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Info("world location", "path", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("world: unable to open/read world directory %q: %w", dir, err)
	}

	w := &World{log: log}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zone") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		zone, err := loadZoneFile(log, path)
		if err != nil {
			log.Error("loading zone file failed", "file", path, "err", err)
			continue
		}
		if zone == nil {
			continue // malformed zone: missing name/description/vnum
		}
		w.Zones = append(w.Zones, zone)
		w.Rooms = append(w.Rooms, zone.Rooms...)
	}
	log.Info("world loaded", "rooms", len(w.Rooms), "zones", len(w.Zones))

	w.link()

	w.StartRoom = w.FindRoom(startingRoomVNum)
	if w.StartRoom == nil {
		return nil, fmt.Errorf("world: failed to find starting room %d", startingRoomVNum)
	}
	return w, nil
}

// FindRoom performs a linear search for vnum, exactly as
// WorldEngine::FindRoom does (it notes the inefficiency but keeps the
// simple implementation).
func (w *World) FindRoom(vnum int) *Room {
	for _, r := range w.Rooms {
		if r.VNum == vnum {
			return r
		}
	}
	return nil
}

// link resolves every room's direction vnums to pointers, and auto-wires
// the reciprocal exit when the target room has no exit of its own in the
// opposite direction, matching WorldEngine::LoadWorld's linking pass. A
// target whose opposite exit leads to some other room keeps that exit.
func (w *World) link() {
	for _, room := range w.Rooms {
		for i := Direction(0); i < numDirections; i++ {
			if room.exitVNum[i] == InvalidVNum || room.exits[i] != nil {
				continue
			}
			target := w.FindRoom(room.exitVNum[i])
			if target == nil {
				w.log.Error("reference to non-existing room", "vnum", room.exitVNum[i])
				continue
			}
			room.exits[i] = target
			opp := i.opposite()
			if target.exitVNum[opp] == InvalidVNum {
				target.exitVNum[opp] = room.VNum
			}
			if target.exitVNum[opp] == room.VNum {
				target.exits[opp] = room
			}
		}
	}
}

// lineCursor is a simple peekable line reader, used so zone and room
// parsing can share one pass over the file without double-consuming the
// "# [vnum]" header line that ends a room block (bufio.Scanner alone can't
// be un-read from across two functions).
type lineCursor struct {
	lines []string
	pos   int
}

func newLineCursor(f *os.File) (*lineCursor, error) {
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &lineCursor{lines: lines}, nil
}

func (c *lineCursor) peek() (string, bool) {
	if c.pos >= len(c.lines) {
		return "", false
	}
	return strings.TrimSpace(c.lines[c.pos]), true
}

func (c *lineCursor) next() (string, bool) {
	line, ok := c.peek()
	if ok {
		c.pos++
	}
	return line, ok
}

// loadZoneFile parses one ".zone" file. Returns (nil, nil) if the zone is
// well-formed syntactically but missing a required field (name,
// description, or vnum), matching LoadZone's "loading - FAILED" path which
// discards the zone without it being a hard error.
func loadZoneFile(log *slog.Logger, path string) (*Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cur, err := newLineCursor(f)
	if err != nil {
		return nil, err
	}

	zone := &Zone{VNum: InvalidVNum}
	for {
		line, ok := cur.peek()
		if !ok {
			break
		}

		if line == "" || strings.HasPrefix(line, "/") {
			cur.next()
			continue
		}

		if vnum, isHeader := matchRoomHeader(line); isHeader {
			cur.next()
			room := loadRoom(log, cur, vnum)
			if room != nil {
				zone.Rooms = append(zone.Rooms, room)
			}
			continue
		}

		cur.next()
		switch {
		case strings.HasPrefix(line, "zone="):
			zone.Name = strings.TrimPrefix(line, "zone=")
		case strings.HasPrefix(line, "zone_vnum="):
			if n, err := strconv.Atoi(strings.TrimPrefix(line, "zone_vnum=")); err == nil {
				zone.VNum = n
			}
		case strings.HasPrefix(line, "zone_desc="):
			zone.Description = strings.TrimPrefix(line, "zone_desc=")
		case strings.HasPrefix(line, "zone_author="), strings.HasPrefix(line, "date_created="),
			strings.HasPrefix(line, "zone_owner="), strings.HasPrefix(line, "date_updated="),
			strings.HasPrefix(line, "zone_notes="), strings.HasPrefix(line, "zone_spawn_room="),
			strings.HasPrefix(line, "version="):
			// Recognized but ignored, matching the original's TODO fields.
		default:
			log.Debug("unknown zone line", "file", path, "line", line)
		}
	}

	if zone.Name == "" || zone.Description == "" || zone.VNum == InvalidVNum {
		log.Debug("zone discarded: missing required field", "file", path)
		return nil, nil
	}
	return zone, nil
}

func matchRoomHeader(line string) (int, bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, false
	}
	start := strings.IndexByte(line, '[')
	end := strings.IndexByte(line, ']')
	if start < 0 || end < 0 || end < start {
		return 0, false
	}
	vnum, err := strconv.Atoi(strings.TrimSpace(line[start+1 : end]))
	if err != nil {
		return 0, false
	}
	return vnum, true
}

// loadRoom consumes lines from cur until the next "# [" room header (left
// unconsumed for the caller) or EOF, parsing room=, room_desc=, room_flags=
// (ignored) and the six-way exits= line. Returns nil if name, description,
// or a complete exits= line is missing, matching LoadRoom's discard-on-
// incomplete behavior.
func loadRoom(log *slog.Logger, cur *lineCursor, vnum int) *Room {
	room := &Room{VNum: vnum}
	for i := range room.exitVNum {
		room.exitVNum[i] = InvalidVNum
	}
	foundDirections := false

	for {
		line, ok := cur.peek()
		if !ok {
			break
		}
		if _, isHeader := matchRoomHeader(line); isHeader {
			break // next room's header: leave it for loadZoneFile
		}
		cur.next()

		if line == "" || strings.HasPrefix(line, "/") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "room_desc="):
			room.Description = strings.TrimPrefix(line, "room_desc=")
		case strings.HasPrefix(line, "room_flags="):
			// Recognized but ignored, matching the original's TODO.
		case strings.HasPrefix(line, "room="):
			room.Name = strings.TrimPrefix(line, "room=")
		case strings.HasPrefix(line, "exits="):
			if parseExits(strings.TrimPrefix(line, "exits="), room) {
				foundDirections = true
			}
		default:
			log.Debug("unknown room line", "vnum", vnum, "line", line)
		}
	}

	if room.Name == "" || room.Description == "" || !foundDirections {
		log.Debug("room discarded: missing required field", "vnum", vnum)
		return nil
	}
	return room
}

func parseExits(rest string, room *Room) bool {
	fields := strings.Fields(rest)
	want := []string{"north", "east", "up", "south", "west", "down"}
	values := make(map[string]int, 6)
	i := 0
	for i+1 < len(fields) {
		name := strings.ToLower(fields[i])
		valStr := strings.TrimPrefix(fields[i+1], ":")
		if n, err := strconv.Atoi(valStr); err == nil {
			values[name] = n
		}
		i += 2
	}
	for _, name := range want {
		if _, ok := values[name]; !ok {
			return false
		}
	}
	room.exitVNum[DirectionNorth] = values["north"]
	room.exitVNum[DirectionEast] = values["east"]
	room.exitVNum[DirectionUp] = values["up"]
	room.exitVNum[DirectionSouth] = values["south"]
	room.exitVNum[DirectionWest] = values["west"]
	room.exitVNum[DirectionDown] = values["down"]
	return true
}
