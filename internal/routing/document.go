package routing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/nerrad567/midiplexer/internal/client"
	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/track"
)

const filePermissions = 0o644

// Document is the on-disk routing file: devices plus tables.
type Document struct {
	Clients     []client.Config     `json:"clients"`
	Controllers []controller.Config `json:"controllers"`
	Tables
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Clients:     []client.Config{},
		Controllers: []controller.Config{},
		Tables:      NewTables(),
	}
}

func (d *Document) normalize() {
	if d.Clients == nil {
		d.Clients = []client.Config{}
	}
	if d.Controllers == nil {
		d.Controllers = []controller.Config{}
	}
	for i := range d.Clients {
		if d.Clients[i].Tracks == nil {
			d.Clients[i].Tracks = make(map[string]track.Config)
		}
	}
	for i := range d.Controllers {
		if d.Controllers[i].SignalMap == nil {
			d.Controllers[i].SignalMap = make(controller.SignalMap)
		}
	}
	d.Tables.normalize()
}

// Load reads the document at path. A missing file yields an empty document
// and no error. A file that cannot be decoded yields an empty document and
// an error wrapping ErrMalformed.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return NewDocument(), fmt.Errorf("reading routing file: %w", err)
	}
	return Decode(data)
}

// Decode parses a document. On failure it returns an empty document and an
// error wrapping ErrMalformed.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return NewDocument(), fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	doc.normalize()
	return &doc, nil
}

// Save writes doc to path as indented JSON. The file is replaced
// atomically.
func Save(path string, doc *Document) error {
	doc.normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding routing document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp routing file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("writing routing file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing routing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing routing file: %w", err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		return fmt.Errorf("setting routing file permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing routing file: %w", err)
	}
	return nil
}

// Validate checks device names are unique and every track definition
// composes. Dangling references in the tables are not errors; see Warnings.
func (d *Document) Validate() error {
	var errs []error
	names := make(map[string]bool)
	for _, c := range d.Clients {
		if names["client:"+c.Name] {
			errs = append(errs, fmt.Errorf("duplicate client %q", c.Name))
		}
		names["client:"+c.Name] = true
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range d.Controllers {
		if c.Name == "" {
			errs = append(errs, errors.New("controller: name is required"))
		}
		if names["controller:"+c.Name] {
			errs = append(errs, fmt.Errorf("duplicate controller %q", c.Name))
		}
		names["controller:"+c.Name] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Warnings lists table entries that refer to devices, tracks, signals or
// scenes the document does not define. They are tolerated at runtime.
func (d *Document) Warnings() []string {
	clients := make(map[string]client.Config, len(d.Clients))
	for _, c := range d.Clients {
		clients[c.Name] = c
	}
	controllers := make(map[string]controller.Config, len(d.Controllers))
	for _, c := range d.Controllers {
		controllers[c.Name] = c
	}

	var warnings []string
	checkSignal := func(table, ctrl, signal string) {
		c, ok := controllers[ctrl]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: unknown controller %q", table, ctrl))
			return
		}
		if !c.SignalMap.HasLabel(signal) {
			warnings = append(warnings, fmt.Sprintf("%s: controller %q has no signal %q", table, ctrl, signal))
		}
	}
	checkTracks := func(where string, members TrackList) {
		for _, name := range members.Clients() {
			c, ok := clients[name]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("%s: unknown client %q", where, name))
				continue
			}
			for _, label := range members[name] {
				if _, ok := c.Tracks[label]; !ok {
					warnings = append(warnings, fmt.Sprintf("%s: client %q has no track %q", where, name, label))
				}
			}
		}
	}

	for _, scene := range d.SceneLabels() {
		checkTracks("scene "+scene, d.Scenes[scene])
	}
	for _, ctrl := range sortedKeys(d.TriggerMap) {
		for _, signal := range sortedKeys(d.TriggerMap[ctrl]) {
			checkSignal("trigger map", ctrl, signal)
			checkTracks("trigger map", d.TriggerMap[ctrl][signal])
		}
	}
	for _, ctrl := range sortedKeys(d.SceneMap) {
		for _, signal := range sortedKeys(d.SceneMap[ctrl]) {
			checkSignal("scene map", ctrl, signal)
			if _, ok := d.Scenes[d.SceneMap[ctrl][signal]]; !ok {
				warnings = append(warnings, fmt.Sprintf("scene map: unknown scene %q", d.SceneMap[ctrl][signal]))
			}
		}
	}
	for _, ctrl := range sortedKeys(d.ModeSwitch) {
		for _, signal := range d.ModeSwitch[ctrl] {
			checkSignal("mode switch", ctrl, signal)
		}
	}
	return warnings
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
