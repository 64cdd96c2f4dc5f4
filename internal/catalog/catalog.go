// Package catalog provides the read-only scenario catalog. Records are
// loaded once at process start; there is no mutation path, so lookups need
// no locking.
package catalog

import (
	"fmt"

	"github.com/kaiwa-app/kaiwa/internal/domain"
)

// Catalog is an ordered, immutable id -> scenario table.
type Catalog struct {
	order   []string
	records map[string]domain.ScenarioRecord
}

// New builds a catalog from the given records, keeping their order.
// Later records with a duplicate id are ignored.
func New(records []domain.ScenarioRecord) *Catalog {
	c := &Catalog{
		records: make(map[string]domain.ScenarioRecord, len(records)),
	}
	for _, r := range records {
		if _, ok := c.records[r.ID]; ok {
			continue
		}
		c.order = append(c.order, r.ID)
		c.records[r.ID] = r
	}
	return c
}

// Builtin returns the catalog of scenarios shipped with the server.
func Builtin() *Catalog {
	return New(builtinScenarios)
}

// List returns all scenarios in catalog order.
func (c *Catalog) List() []domain.ScenarioRecord {
	out := make([]domain.ScenarioRecord, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id])
	}
	return out
}

// Get looks up a scenario by id.
func (c *Catalog) Get(id string) (domain.ScenarioRecord, error) {
	r, ok := c.records[id]
	if !ok {
		return domain.ScenarioRecord{}, fmt.Errorf("%w: %s", domain.ErrUnknownScenario, id)
	}
	return r, nil
}

// First returns the default scenario, used when a client does not pick one.
func (c *Catalog) First() (domain.ScenarioRecord, error) {
	if len(c.order) == 0 {
		return domain.ScenarioRecord{}, fmt.Errorf("%w: catalog is empty", domain.ErrUnknownScenario)
	}
	return c.records[c.order[0]], nil
}

// Len returns the number of scenarios.
func (c *Catalog) Len() int {
	return len(c.order)
}
