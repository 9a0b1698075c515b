// Package provenance provides field-level tracking of which source supplied
// each value of a reconciled record, and why that source won.
package provenance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
)

// Reasons a value was selected.
const (
	ReasonFirstNonEmpty  = "first non-empty"
	ReasonFirstAvailable = "first available"
	ReasonSingleSource   = "single source"
	ReasonUnion          = "union"
	ReasonReference      = "reference"
	ReasonFallback       = "entity key fallback"
)

// Provenance records the origin of one field value.
type Provenance struct {
	Field     string    `yaml:"field"`
	Source    string    `yaml:"source"`          // winning source, or a comma list for unions
	Reason    string    `yaml:"reason"`          // one of the Reason constants
	Value     any       `yaml:"value,omitempty"` // selected value
	Timestamp time.Time `yaml:"timestamp,omitempty"`
}

// Map tracks provenance per entity. The key is "entity:field".
type Map map[string][]Provenance

// Entity returns a copy of the provenance of every field of entity, keyed by field.
func (m Map) Entity(entity string) map[string][]Provenance {
	result := make(map[string][]Provenance)
	prefix := entity + ":"
	for key, info := range m {
		if field, found := strings.CutPrefix(key, prefix); found && !strings.Contains(field, ":") {
			result[field] = append([]Provenance(nil), info...)
		}
	}
	return result
}

// Tracker manages provenance tracking during a run.
type Tracker interface {
	// Track records provenance for a field of an entity
	Track(entity string, history Provenance)

	// FindByField retrieves provenance for a specific field
	FindByField(entity, field string) []Provenance

	// FindByEntity retrieves all provenance for an entity
	FindByEntity(entity string) map[string][]Provenance

	// Map returns a copy of the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

type tracker struct {
	mu         sync.RWMutex
	provenance Map
	enabled    bool
	now        func() time.Time
}

// NewTracker creates a new provenance tracker. A disabled tracker records nothing.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
		now:        time.Now,
	}
}

func (p *tracker) Track(entity string, history Provenance) {
	if !p.enabled {
		return
	}
	if history.Timestamp.IsZero() {
		history.Timestamp = p.now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	key := makeKey(entity, history.Field)
	p.provenance[key] = append(p.provenance[key], history)
}

func (p *tracker) FindByField(entity, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Provenance(nil), p.provenance[makeKey(entity, field)]...)
}

func (p *tracker) FindByEntity(entity string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.provenance.Entity(entity)
}

func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

func (p *tracker) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provenance = make(Map)
}

// makeKey joins entity and field. Entity names may contain colons, so the
// field is always taken from after the last one.
func makeKey(entity, field string) string {
	return entity + ":" + field
}

func splitKey(key string) (entity, field string, ok bool) {
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// Report groups the latest provenance per entity and field.
type Report struct {
	Entities map[string]map[string]Provenance `yaml:"entities"`
}

// GenerateReport creates a report from a Map, keeping the most recent entry per field.
func GenerateReport(m Map) *Report {
	report := &Report{Entities: make(map[string]map[string]Provenance)}
	for key, infos := range m {
		entity, field, ok := splitKey(key)
		if !ok || len(infos) == 0 {
			continue
		}
		latest := infos[0]
		for _, info := range infos[1:] {
			if !info.Timestamp.Before(latest.Timestamp) {
				latest = info
			}
		}
		fields, exists := report.Entities[entity]
		if !exists {
			fields = make(map[string]Provenance)
			report.Entities[entity] = fields
		}
		fields[field] = latest
	}
	return report
}

// String renders the report as text, sorted by entity and field.
func (r *Report) String() string {
	var sb strings.Builder
	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	entities := make([]string, 0, len(r.Entities))
	for entity := range r.Entities {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	for _, entity := range entities {
		sb.WriteString(entity)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		fields := r.Entities[entity]
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := fields[name]
			fmt.Fprintf(&sb, "  %s: %s (%s)\n", name, p.Source, p.Reason)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// File represents a provenance file stored on disk.
type File struct {
	Provenance Map `yaml:"provenance"`
}

// Save writes the map as YAML to path, creating parent directories.
func Save(path string, m Map) error {
	data, err := yaml.Marshal(File{Provenance: m})
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Load reads provenance data from a YAML file.
// Returns nil, nil if the file doesn't exist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &f, nil
}
