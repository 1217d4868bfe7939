// Package shop exposes per-shop loyalty configuration: the points rate and whether
// the shop takes part in the platform-wide program.
package shop

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// GlobalShopID is the reserved shop id of the platform-wide loyalty pool.
const GlobalShopID = "global"

var ErrNotFound = errors.New("shop not found")

// DefaultPointsPerDollar applies when a shop does not configure its own rate.
var DefaultPointsPerDollar = decimal.NewFromInt(10)

type Config struct {
	ID              string          `json:"id"                yaml:"id"`
	Name            string          `json:"name"              yaml:"name"`
	PointsPerDollar decimal.Decimal `json:"points_per_dollar" yaml:"points_per_dollar"`
	GlobalProgram   bool            `json:"global_program"    yaml:"global_program"`
}

// Program is the platform-wide accrual rule, configured independently of any shop.
type Program struct {
	PointsPerDollar decimal.Decimal `json:"points_per_dollar" yaml:"points_per_dollar"`
}

type Directory interface {
	Shop(ctx context.Context, id string) (Config, error)
	GlobalProgram(ctx context.Context) (Program, error)
}

// StaticDirectory serves shop configuration loaded from the seed file.
type StaticDirectory struct {
	mu     sync.RWMutex
	shops  map[string]Config
	global Program
}

func NewStaticDirectory(shops []Config, global Program) *StaticDirectory {
	d := &StaticDirectory{shops: make(map[string]Config, len(shops)), global: global}
	for _, s := range shops {
		d.Put(s)
	}
	return d
}

// Put adds or replaces a shop. A zero rate falls back to DefaultPointsPerDollar.
func (d *StaticDirectory) Put(s Config) {
	if s.PointsPerDollar.IsZero() {
		s.PointsPerDollar = DefaultPointsPerDollar
	}
	d.mu.Lock()
	d.shops[s.ID] = s
	d.mu.Unlock()
}

func (d *StaticDirectory) Shop(_ context.Context, id string) (Config, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.shops[id]
	if !ok || id == GlobalShopID {
		return Config{}, ErrNotFound
	}
	return s, nil
}

func (d *StaticDirectory) GlobalProgram(context.Context) (Program, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.global, nil
}
