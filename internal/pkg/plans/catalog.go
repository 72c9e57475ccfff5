package plans

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/Offertly/internal/pkg/env"
)

// Plan keys are stable identifiers; they are stored on the user record and
// embedded in checkout metadata, so they must never be renamed.
const (
	KeyStarter = "starter"
	KeyPro     = "pro"
	KeyTeam    = "team"
)

// Plan is one immutable catalog entry. PriceID is the external payment
// provider price reference for the plan's monthly subscription.
type Plan struct {
	Key          string
	Label        string
	MonthlyLimit int
	PriceID      string
}

// Catalog is the validated set of purchasable plans. It is built once at
// startup and read-only afterwards.
type Catalog struct {
	byKey map[string]Plan
	order []string
}

var catalog *Catalog

// priceIDEnvKeys maps plan keys to the env var carrying their provider price
// reference.
var priceIDEnvKeys = map[string]string{
	KeyStarter: "STRIPE_PRICE_ID_STARTER",
	KeyPro:     "STRIPE_PRICE_ID_PRO",
	KeyTeam:    "STRIPE_PRICE_ID_TEAM",
}

// Setup loads and validates the plan catalog. It panics on invalid
// configuration, matching the fail-fast behavior of the other Setup funcs.
func Setup() {
	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("plan catalog: %v", err))
	}
	catalog = c
}

// Get returns the global catalog; Setup must have run first.
func Get() *Catalog {
	if catalog == nil {
		Setup()
	}
	return catalog
}

// Load builds the catalog from the static plan definitions plus the price
// references configured in the environment.
func Load() (*Catalog, error) {
	defs := []Plan{
		{Key: KeyStarter, Label: "Starter", MonthlyLimit: 50},
		{Key: KeyPro, Label: "Pro", MonthlyLimit: 300},
		{Key: KeyTeam, Label: "Team", MonthlyLimit: 1000},
	}
	for i := range defs {
		defs[i].PriceID = env.GetEnv(priceIDEnvKeys[defs[i].Key], "")
	}
	return NewCatalog(defs)
}

// NewCatalog validates the given entries and returns an immutable catalog.
func NewCatalog(defs []Plan) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, errors.New("no plans configured")
	}

	c := &Catalog{byKey: make(map[string]Plan, len(defs))}
	seenPrice := make(map[string]string, len(defs))
	for _, p := range defs {
		key := strings.ToLower(strings.TrimSpace(p.Key))
		if key == "" {
			return nil, errors.New("plan with empty key")
		}
		if p.Label == "" {
			return nil, fmt.Errorf("plan %q has no label", key)
		}
		if p.MonthlyLimit <= 0 {
			return nil, fmt.Errorf("plan %q has non-positive monthly limit %d", key, p.MonthlyLimit)
		}
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate plan key %q", key)
		}
		if p.PriceID != "" {
			if other, dup := seenPrice[p.PriceID]; dup {
				return nil, fmt.Errorf("plans %q and %q share price reference %q", other, key, p.PriceID)
			}
			seenPrice[p.PriceID] = key
		}
		p.Key = key
		c.byKey[key] = p
		c.order = append(c.order, key)
	}

	if _, ok := c.byKey[KeyStarter]; !ok {
		return nil, errors.New("default plan starter is missing from the catalog")
	}
	return c, nil
}

// Lookup returns the plan for the given key.
func (c *Catalog) Lookup(key string) (Plan, bool) {
	p, ok := c.byKey[strings.ToLower(strings.TrimSpace(key))]
	return p, ok
}

// ByPriceID resolves an external price reference back to its plan. Used by
// the notification path, where only the subscription's price is known.
func (c *Catalog) ByPriceID(priceID string) (Plan, bool) {
	if priceID == "" {
		return Plan{}, false
	}
	for _, key := range c.order {
		if p := c.byKey[key]; p.PriceID == priceID {
			return p, true
		}
	}
	return Plan{}, false
}

// Default returns the lowest tier. Quota checks fall back to it when a user
// has no (or an unknown) plan key, so a missing plan never grants more usage.
func (c *Catalog) Default() Plan {
	return c.byKey[KeyStarter]
}

// LimitFor returns the plan whose monthly limit applies to planKey,
// falling back to the default plan for empty or unknown keys.
func (c *Catalog) LimitFor(planKey string) Plan {
	if p, ok := c.Lookup(planKey); ok {
		return p
	}
	return c.Default()
}

// All returns the plans in catalog order, for the public pricing endpoint.
func (c *Catalog) All() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byKey[key])
	}
	return out
}
