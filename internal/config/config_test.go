package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/cafe-orders/internal/menu"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"TAX_RATE", "STORE_DRIVER", "STREAM_HEARTBEAT", "AUTO_COMPLETE_ON_PICKUP", "CORS_ORIGINS", "MENU_SERVICE_BASEURL"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8082", cfg.OrderSvcAddr)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "0.08", cfg.TaxRate.String())
	assert.Equal(t, 15*time.Second, cfg.StreamHeartbeat)
	assert.False(t, cfg.AutoCompleteOnPickup)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.1")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("AUTO_COMPLETE_ON_PICKUP", "true")
	t.Setenv("STREAM_HEARTBEAT", "2s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MENU_SERVICE_BASEURL", "http://menu:8081/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.1", cfg.TaxRate.String())
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.True(t, cfg.AutoCompleteOnPickup)
	assert.Equal(t, 2*time.Second, cfg.StreamHeartbeat)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "http://menu:8081", cfg.MenuSvcBaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"TAX_RATE":                "eight",
		"STORE_DRIVER":            "mongo",
		"STREAM_HEARTBEAT":        "-1s",
		"AUTO_COMPLETE_ON_PICKUP": "maybe",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadSeed_RepositoryFile(t *testing.T) {
	s, err := LoadSeed(filepath.Join("..", "..", "seed.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "2", s.Global.PointsPerDollar.String())
	require.NotEmpty(t, s.Shops)
	assert.Equal(t, "blue-door", s.Shops[0].ID)
	assert.True(t, s.Shops[0].GlobalProgram)

	var latte *menu.Item
	for i := range s.Menu {
		if s.Menu[i].ID == "bd-latte" {
			latte = &s.Menu[i]
		}
	}
	require.NotNil(t, latte)
	assert.Equal(t, "5.00", latte.Price.StringFixed(2))
	c, ok := latte.Customization("large")
	require.True(t, ok)
	assert.Equal(t, menu.RulePercent, c.Rule.Kind)
	assert.Equal(t, "20", c.Rule.Amount.String())
}

func TestParseSeed_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown shop": `
shops: [{id: s1, points_per_dollar: 10}]
menu: [{id: m1, shop_id: s9, name: X, price: "1.00", available: true}]`,
		"reserved shop id": `
shops: [{id: global}]`,
		"bad rule": `
shops: [{id: s1}]
menu:
  - id: m1
    shop_id: s1
    name: X
    price: "1.00"
    customizations: [{id: c, name: C, rule: {kind: percent, amount: "150"}}]`,
		"zero cost reward": `
shops: [{id: s1}]
rewards: [{id: r1, shop_id: s1, name: R, points_required: 0, is_active: true}]`,
		"unknown key": `
shops: [{id: s1, colour: blue}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeed([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseSeed_Empty(t *testing.T) {
	s, err := ParseSeed(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Shops)
}

func TestLoadSeed_Missing(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
