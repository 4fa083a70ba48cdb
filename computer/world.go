package computer

import "errors"

// Traversal caps guarding room and creature enumeration.
const (
	MaxRooms     = 256
	MaxCreatures = 1024
)

// ErrNoSpace is returned by TaskQueue.CreateTask when a build does not fit.
var ErrNoSpace = errors.New("no space for task")

// PlayerInfo is what the driver needs to know about a player slot.
type PlayerInfo struct {
	ID       PlayerID
	Active   bool
	Computer bool
	// Model is the archetype id; negative picks a skirmish archetype.
	Model int
}

// World is the game-state collaborator consumed by the engine and behaviors.
type World interface {
	Turn() Turn
	PlayerCount() int
	Player(id PlayerID) (PlayerInfo, bool)
	Dungeon(id PlayerID) Dungeon
	// PendingEvents returns game events addressed to the player this turn,
	// in the order they were raised.
	PendingEvents(id PlayerID) []GameEvent
	Opponents(id PlayerID) []PlayerID
	Tasks() TaskQueue
	// SurveyMap refreshes the map-wide resource lookup.
	SurveyMap()
}

type Availability int

const (
	AvailNever Availability = iota
	AvailLater
	AvailNow
)

type RoomKind int

const (
	RoomNone RoomKind = iota
	RoomEntrance
	RoomTreasury
	RoomLibrary
	RoomPrison
	RoomTorture
	RoomTraining
	RoomHeart
	RoomWorkshop
	RoomScavenger
	RoomTemple
	RoomGraveyard
	RoomBarracks
	RoomHatchery
	RoomLair
)

var roomNames = [...]string{
	RoomNone:      "none",
	RoomEntrance:  "entrance",
	RoomTreasury:  "treasury",
	RoomLibrary:   "library",
	RoomPrison:    "prison",
	RoomTorture:   "torture",
	RoomTraining:  "training",
	RoomHeart:     "heart",
	RoomWorkshop:  "workshop",
	RoomScavenger: "scavenger",
	RoomTemple:    "temple",
	RoomGraveyard: "graveyard",
	RoomBarracks:  "barracks",
	RoomHatchery:  "hatchery",
	RoomLair:      "lair",
}

func (k RoomKind) String() string {
	if k < 0 || int(k) >= len(roomNames) {
		return "room"
	}
	return roomNames[k]
}

// ParseRoomKind resolves a room kind name.
func ParseRoomKind(name string) (RoomKind, bool) {
	for k, n := range roomNames {
		if n == name {
			return RoomKind(k), true
		}
	}
	return RoomNone, false
}

// BuildableRooms is the order in which missing rooms are considered.
var BuildableRooms = []RoomKind{
	RoomTreasury, RoomLair, RoomHatchery, RoomTraining, RoomLibrary,
	RoomWorkshop, RoomPrison, RoomTorture, RoomBarracks, RoomTemple,
	RoomGraveyard, RoomScavenger,
}

type Room struct {
	ID       int
	Kind     RoomKind
	Slabs    int
	Capacity int
	Used     int
	X, Y     int
}

type Creature struct {
	ID        int
	Digger    bool
	Fighting  bool
	Health    int
	MaxHealth int
	X, Y      int
}

// Dungeon is one player's world-state handle.
type Dungeon interface {
	Owner() PlayerID
	HasHeart() bool
	Gold() int
	// KnownGold is the number of gold deposits found by the last survey.
	KnownGold() int
	RoomAvailable(kind RoomKind) Availability
	EachRoom(fn func(Room) bool)
	EachCreature(fn func(Creature) bool)
}

type GameEventKind int

const (
	GameEventNone GameEventKind = iota
	GameEventFight
	GameEventHeartAttacked
	GameEventRoomLost
	GameEventPayday
	GameEventDoorAttacked
)

// GameEvent is an occurrence raised by the game engine.
type GameEvent struct {
	Kind   GameEventKind
	Owner  PlayerID
	Target int
	X, Y   int
	Turn   Turn
}

type TaskKind int

const (
	TaskDigRoom TaskKind = iota + 1
	TaskDigToGold
	TaskDigToEntrance
	TaskDigToNeutral
	TaskPickupForAttack
	TaskDefend
	TaskSlapDiggers
	TaskSummonDigger
	TaskSightOfEvil
	TaskSellTraps
	TaskMoveGoldToTreasury
)

func (k TaskKind) String() string {
	switch k {
	case TaskDigRoom:
		return "dig_room"
	case TaskDigToGold:
		return "dig_to_gold"
	case TaskDigToEntrance:
		return "dig_to_entrance"
	case TaskDigToNeutral:
		return "dig_to_neutral"
	case TaskPickupForAttack:
		return "pickup_for_attack"
	case TaskDefend:
		return "defend"
	case TaskSlapDiggers:
		return "slap_diggers"
	case TaskSummonDigger:
		return "summon_digger"
	case TaskSightOfEvil:
		return "sight_of_evil"
	case TaskSellTraps:
		return "sell_traps"
	case TaskMoveGoldToTreasury:
		return "move_gold"
	default:
		return "task"
	}
}

// ParseTaskKind resolves a task kind name.
func ParseTaskKind(name string) (TaskKind, bool) {
	for k := TaskDigRoom; k <= TaskMoveGoldToTreasury; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

type TaskID int

// TaskRequest parameterizes task creation.
type TaskRequest struct {
	Kind TaskKind
	// Process is the index of the owning process, or -1.
	Process int
	Target  int
	Subject int
	X, Y    int
	Width   int
	Height  int
	Amount  int
}

// TaskQueue is the game-task subsystem.
type TaskQueue interface {
	CreateTask(owner PlayerID, req TaskRequest) (TaskID, error)
	CountTasks(owner PlayerID, kind TaskKind) int
	HasTasksFor(owner PlayerID, process int) bool
	ProcessTasks(owner PlayerID)
	RemoveTasks(owner PlayerID)
}

// EachRoom walks the player's rooms, aborting past MaxRooms.
func (c *Computer) EachRoom(fn func(Room) bool) {
	if c.dungeon == nil {
		return
	}
	n := 0
	c.dungeon.EachRoom(func(r Room) bool {
		n++
		if n > MaxRooms {
			c.log.Error("infinite loop detected when sweeping rooms list", "limit", MaxRooms)
			return false
		}
		return fn(r)
	})
}

// EachCreature walks the player's creatures, aborting past MaxCreatures.
func (c *Computer) EachCreature(fn func(Creature) bool) {
	if c.dungeon == nil {
		return
	}
	n := 0
	c.dungeon.EachCreature(func(cr Creature) bool {
		n++
		if n > MaxCreatures {
			c.log.Error("infinite loop detected when sweeping creatures list", "limit", MaxCreatures)
			return false
		}
		return fn(cr)
	})
}

// CreateTask creates a task owned by this player.
func (c *Computer) CreateTask(req TaskRequest) (TaskID, error) {
	tasks := c.tasks()
	if tasks == nil {
		return 0, errors.New("computer: no task subsystem")
	}
	id, err := tasks.CreateTask(c.Player, req)
	if err != nil {
		c.log.Debug("task not created", "kind", req.Kind.String(), "err", err)
		return 0, err
	}
	return id, nil
}

// CountTasks counts this player's tasks of a kind.
func (c *Computer) CountTasks(kind TaskKind) int {
	tasks := c.tasks()
	if tasks == nil {
		return 0
	}
	return tasks.CountTasks(c.Player, kind)
}

func (c *Computer) tasks() TaskQueue {
	if c.world == nil {
		return nil
	}
	return c.world.Tasks()
}
