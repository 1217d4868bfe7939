package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikeMC777/cafe-orders/internal/loyalty"
	"github.com/MikeMC777/cafe-orders/internal/menu"
	"github.com/MikeMC777/cafe-orders/internal/shop"
)

// Seed is the static data the services boot with.
type Seed struct {
	Global  shop.Program     `yaml:"global"`
	Shops   []shop.Config    `yaml:"shops"`
	Menu    []menu.Item      `yaml:"menu"`
	Rewards []loyalty.Reward `yaml:"rewards"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and checks a seed document. Unknown keys are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Seed) validate() error {
	if s.Global.PointsPerDollar.IsNegative() {
		return fmt.Errorf("seed: global points_per_dollar is negative")
	}
	shops := make(map[string]bool, len(s.Shops))
	for _, sh := range s.Shops {
		switch {
		case sh.ID == "":
			return fmt.Errorf("seed: shop without id")
		case sh.ID == shop.GlobalShopID:
			return fmt.Errorf("seed: shop id %q is reserved", sh.ID)
		case shops[sh.ID]:
			return fmt.Errorf("seed: duplicate shop %q", sh.ID)
		case sh.PointsPerDollar.IsNegative():
			return fmt.Errorf("seed: shop %q points_per_dollar is negative", sh.ID)
		}
		shops[sh.ID] = true
	}

	items := make(map[string]bool, len(s.Menu))
	for _, it := range s.Menu {
		switch {
		case it.ID == "":
			return fmt.Errorf("seed: menu item without id")
		case items[it.ID]:
			return fmt.Errorf("seed: duplicate menu item %q", it.ID)
		case !shops[it.ShopID]:
			return fmt.Errorf("seed: menu item %q references unknown shop %q", it.ID, it.ShopID)
		case !it.Price.IsPositive():
			return fmt.Errorf("seed: menu item %q price must be positive", it.ID)
		}
		items[it.ID] = true
		for _, c := range it.Customizations {
			if _, err := c.Rule.Rule(); err != nil {
				return fmt.Errorf("seed: menu item %q customization %q: %w", it.ID, c.ID, err)
			}
		}
	}

	rewards := make(map[string]bool, len(s.Rewards))
	for _, r := range s.Rewards {
		switch {
		case r.ID == "":
			return fmt.Errorf("seed: reward without id")
		case rewards[r.ID]:
			return fmt.Errorf("seed: duplicate reward %q", r.ID)
		case r.ShopID != shop.GlobalShopID && !shops[r.ShopID]:
			return fmt.Errorf("seed: reward %q references unknown shop %q", r.ID, r.ShopID)
		case r.PointsRequired <= 0:
			return fmt.Errorf("seed: reward %q points_required must be positive", r.ID)
		}
		rewards[r.ID] = true
	}
	return nil
}
