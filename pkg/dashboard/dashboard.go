// Package dashboard holds the values the robot reports to its operator.
package dashboard

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Publisher is the write side of the dashboard.  Puts are fire-and-forget.
type Publisher interface {
	PutNumber(name string, value float64)
}

type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBoolean
)

type Entry struct {
	Name    string
	Kind    Kind
	Number  float64
	String  string
	Boolean bool
	Updated time.Time
}

// Format renders the value for display.
func (e Entry) Format() string {
	switch e.Kind {
	case KindString:
		return e.String
	case KindBoolean:
		return strconv.FormatBool(e.Boolean)
	default:
		return strconv.FormatFloat(e.Number, 'f', 1, 64)
	}
}

func (e Entry) value() interface{} {
	switch e.Kind {
	case KindString:
		return e.String
	case KindBoolean:
		return e.Boolean
	default:
		return e.Number
	}
}

// Table is an in-memory dashboard, safe for concurrent use.
type Table struct {
	lock    sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

var _ Publisher = (*Table)(nil)

func NewTable() *Table {
	return &Table{
		entries: map[string]Entry{},
		now:     time.Now,
	}
}

func (t *Table) put(e Entry) {
	t.lock.Lock()
	defer t.lock.Unlock()
	e.Updated = t.now()
	t.entries[e.Name] = e
}

func (t *Table) PutNumber(name string, value float64) {
	t.put(Entry{Name: name, Kind: KindNumber, Number: value})
}

func (t *Table) PutString(name string, value string) {
	t.put(Entry{Name: name, Kind: KindString, String: value})
}

func (t *Table) PutBoolean(name string, value bool) {
	t.put(Entry{Name: name, Kind: KindBoolean, Boolean: value})
}

// GetNumber returns the named number, or def if it is unset or not a number.
func (t *Table) GetNumber(name string, def float64) float64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	e, ok := t.entries[name]
	if !ok || e.Kind != KindNumber {
		return def
	}
	return e.Number
}

// Entries returns a snapshot sorted by name.
func (t *Table) Entries() []Entry {
	t.lock.Lock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	t.lock.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// DumpYAML renders the table as a flat name: value map.
func (t *Table) DumpYAML() ([]byte, error) {
	m := yaml.MapSlice{}
	for _, e := range t.Entries() {
		m = append(m, yaml.MapItem{Key: e.Name, Value: e.value()})
	}
	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal dashboard")
	}
	return out, nil
}
