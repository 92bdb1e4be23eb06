package routing

import (
	"slices"
	"sort"
)

// TrackList maps a client name to track labels.
type TrackList map[string][]string

// Clone returns a deep copy. A nil list clones to an empty one.
func (l TrackList) Clone() TrackList {
	out := make(TrackList, len(l))
	for client, tracks := range l {
		out[client] = slices.Clone(tracks)
	}
	return out
}

// Clients returns the client names, sorted.
func (l TrackList) Clients() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l TrackList) add(client, track string) {
	if !slices.Contains(l[client], track) {
		l[client] = append(l[client], track)
	}
}

// Tables are the routing tables owned by the plexer. Every map is keyed by
// controller name first and signal label second.
type Tables struct {
	Scenes     map[string]TrackList            `json:"scenes"`
	TriggerMap map[string]map[string]TrackList `json:"controller_signal_trigger_map"`
	SceneMap   map[string]map[string]string    `json:"controller_signal_scene_map"`
	ModeSwitch map[string][]string             `json:"mode_switch"`
}

// NewTables returns empty tables.
func NewTables() Tables {
	var t Tables
	t.normalize()
	return t
}

func (t *Tables) normalize() {
	if t.Scenes == nil {
		t.Scenes = make(map[string]TrackList)
	}
	for label, members := range t.Scenes {
		if members == nil {
			t.Scenes[label] = make(TrackList)
		}
	}
	if t.TriggerMap == nil {
		t.TriggerMap = make(map[string]map[string]TrackList)
	}
	if t.SceneMap == nil {
		t.SceneMap = make(map[string]map[string]string)
	}
	if t.ModeSwitch == nil {
		t.ModeSwitch = make(map[string][]string)
	}
}

// AddScene creates an empty scene unless it already exists.
func (t *Tables) AddScene(scene string) {
	if _, ok := t.Scenes[scene]; !ok {
		t.Scenes[scene] = make(TrackList)
	}
}

// AddTrackToScene adds a member to scene, creating the scene if needed.
func (t *Tables) AddTrackToScene(scene, client, track string) {
	t.AddScene(scene)
	t.Scenes[scene].add(client, track)
}

// SetScene replaces the members of scene.
func (t *Tables) SetScene(scene string, members TrackList) {
	t.Scenes[scene] = members.Clone()
}

// Scene returns the members of scene.
func (t *Tables) Scene(scene string) (TrackList, bool) {
	members, ok := t.Scenes[scene]
	return members, ok
}

// SceneLabels returns every scene label, sorted.
func (t *Tables) SceneLabels() []string {
	labels := make([]string, 0, len(t.Scenes))
	for label := range t.Scenes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// AssignTrack makes signal on controller toggle track on client in trigger
// mode. Assigning the same track twice has no further effect.
func (t *Tables) AssignTrack(controller, signal, client, track string) {
	bySignal, ok := t.TriggerMap[controller]
	if !ok {
		bySignal = make(map[string]TrackList)
		t.TriggerMap[controller] = bySignal
	}
	targets, ok := bySignal[signal]
	if !ok {
		targets = make(TrackList)
		bySignal[signal] = targets
	}
	targets.add(client, track)
}

// TriggerTargets returns what signal on controller toggles in trigger mode.
func (t *Tables) TriggerTargets(controller, signal string) (TrackList, bool) {
	targets, ok := t.TriggerMap[controller][signal]
	return targets, ok
}

// AssignScene makes signal on controller activate scene in scene mode,
// replacing any previous assignment. The scene is created empty if needed.
func (t *Tables) AssignScene(controller, signal, scene string) {
	t.AddScene(scene)
	bySignal, ok := t.SceneMap[controller]
	if !ok {
		bySignal = make(map[string]string)
		t.SceneMap[controller] = bySignal
	}
	bySignal[signal] = scene
}

// SceneFor returns the scene signal on controller activates.
func (t *Tables) SceneFor(controller, signal string) (string, bool) {
	scene, ok := t.SceneMap[controller][signal]
	return scene, ok
}

// AssignModeSwitch makes signal on controller flip the mode.
func (t *Tables) AssignModeSwitch(controller, signal string) {
	if !slices.Contains(t.ModeSwitch[controller], signal) {
		t.ModeSwitch[controller] = append(t.ModeSwitch[controller], signal)
	}
}

// IsModeSwitch reports whether signal on controller flips the mode.
func (t *Tables) IsModeSwitch(controller, signal string) bool {
	return slices.Contains(t.ModeSwitch[controller], signal)
}

// Clone returns a deep copy.
func (t *Tables) Clone() Tables {
	out := NewTables()
	for label, members := range t.Scenes {
		out.Scenes[label] = members.Clone()
	}
	for controller, bySignal := range t.TriggerMap {
		m := make(map[string]TrackList, len(bySignal))
		for signal, targets := range bySignal {
			m[signal] = targets.Clone()
		}
		out.TriggerMap[controller] = m
	}
	for controller, bySignal := range t.SceneMap {
		m := make(map[string]string, len(bySignal))
		for signal, scene := range bySignal {
			m[signal] = scene
		}
		out.SceneMap[controller] = m
	}
	for controller, signals := range t.ModeSwitch {
		out.ModeSwitch[controller] = slices.Clone(signals)
	}
	return out
}
