package computer

import (
	"fmt"
	"sort"
	"strings"
)

// NoBehavior marks an intentionally empty callback slot in configuration.
const NoBehavior = "none"

var processRegistry = map[string]ProcessFunc{
	"check_build_all_rooms":   checkBuildAllRooms,
	"check_any_room":          checkAnyRoom,
	"check_dig_to_entrance":   checkDigToEntrance,
	"check_dig_to_gold":       checkDigToGold,
	"check_sight_of_evil":     checkSightOfEvil,
	"check_attack1":           checkAttack1,
	"check_safe_attack":       checkSafeAttack,
	"setup_any_room":          setupAnyRoom,
	"setup_any_room_continue": setupAnyRoom,
	"setup_dig_to_entrance":   setupDigToEntrance,
	"setup_dig_to_gold":       setupDigToGold,
	"setup_sight_of_evil":     setupSightOfEvil,
	"setup_attack1":           setupAttack1,
	"process_task":            processTask,
	"process_sight_of_evil":   processSightOfEvil,
	"completed_task":          completedTask,
	"completed_build_a_room":  completedBuildARoom,
	"completed_attack1":       completedAttack1,
	"paused_task":             pausedTask,
}

var checkRegistry = map[string]CheckFunc{
	"check_for_money":       checkForMoney,
	"check_no_imps":         checkNoImps,
	"check_slap_imps":       checkSlapImps,
	"check_for_expand_room": checkForExpandRoom,
	"check_neutral_places":  checkNeutralPlaces,
}

var eventRegistry = map[string]EventFunc{
	"event_battle":        eventBattle,
	"event_find_link":     eventFindLink,
	"event_check_payday":  eventCheckPayday,
	"event_rebuild_room":  eventRebuildRoom,
	"event_force_process": eventForceProcess,
}

var eventTestRegistry = map[string]EventTestFunc{
	"event_battle_test":        eventBattleTest,
	"event_check_rooms_full":   eventCheckRoomsFull,
	"event_check_imps_danger":  eventCheckImpsDanger,
	"event_check_gold_running": eventCheckGoldRunning,
}

// IsNone reports whether a configured name leaves the slot empty.
func IsNone(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || strings.EqualFold(name, NoBehavior)
}

// LookupProcess resolves a process callback name.
func LookupProcess(name string) (ProcessBehavior, bool) {
	if IsNone(name) {
		return ProcessBehavior{}, true
	}
	fn, ok := processRegistry[name]
	if !ok {
		return ProcessBehavior{ID: name}, false
	}
	return ProcessBehavior{ID: name, Fn: fn}, true
}

// LookupCheck resolves a check callback name.
func LookupCheck(name string) (CheckBehavior, bool) {
	if IsNone(name) {
		return CheckBehavior{}, true
	}
	fn, ok := checkRegistry[name]
	if !ok {
		return CheckBehavior{ID: name}, false
	}
	return CheckBehavior{ID: name, Fn: fn}, true
}

// LookupEvent resolves an event handler name.
func LookupEvent(name string) (EventBehavior, bool) {
	if IsNone(name) {
		return EventBehavior{}, true
	}
	fn, ok := eventRegistry[name]
	if !ok {
		return EventBehavior{ID: name}, false
	}
	return EventBehavior{ID: name, Fn: fn}, true
}

// LookupEventTest resolves an event test name.
func LookupEventTest(name string) (EventTestBehavior, bool) {
	if IsNone(name) {
		return EventTestBehavior{}, true
	}
	fn, ok := eventTestRegistry[name]
	if !ok {
		return EventTestBehavior{ID: name}, false
	}
	return EventTestBehavior{ID: name, Fn: fn}, true
}

// RegisterProcess adds a process callback. Names must be unique.
func RegisterProcess(name string, fn ProcessFunc) error {
	return register(processRegistry, "process", name, fn, fn == nil)
}

// RegisterCheck adds a check callback. Names must be unique.
func RegisterCheck(name string, fn CheckFunc) error {
	return register(checkRegistry, "check", name, fn, fn == nil)
}

// RegisterEvent adds an event handler. Names must be unique.
func RegisterEvent(name string, fn EventFunc) error {
	return register(eventRegistry, "event", name, fn, fn == nil)
}

// RegisterEventTest adds a periodic event test. Names must be unique.
func RegisterEventTest(name string, fn EventTestFunc) error {
	return register(eventTestRegistry, "event test", name, fn, fn == nil)
}

func register[F any](registry map[string]F, kind, name string, fn F, nilFn bool) error {
	if err := checkRegistration(name, nilFn); err != nil {
		return err
	}
	if _, exists := registry[name]; exists {
		return fmt.Errorf("computer: %s behavior %q already registered", kind, name)
	}
	registry[name] = fn
	return nil
}

func checkRegistration(name string, nilFn bool) error {
	if IsNone(name) {
		return fmt.Errorf("computer: reserved behavior name %q", name)
	}
	if nilFn {
		return fmt.Errorf("computer: nil behavior %q", name)
	}
	return nil
}

// BehaviorNames lists the registered names of each kind, sorted.
func BehaviorNames() map[string][]string {
	return map[string][]string{
		"process":    sortedKeys(processRegistry),
		"check":      sortedKeys(checkRegistry),
		"event":      sortedKeys(eventRegistry),
		"event_test": sortedKeys(eventTestRegistry),
	}
}

func sortedKeys[F any](m map[string]F) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
