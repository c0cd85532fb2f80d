package main

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millstone-labs/larder/pkg/types"
)

func parseConfig(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType(configFileType)
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestLoadLookupsWithoutConfig(t *testing.T) {
	v := parseConfig(t, "backend: sqlite\n")

	lookups, err := loadLookups(v)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultLookups(), lookups)
}

func TestLoadLookupsOverridesBuiltin(t *testing.T) {
	v := parseConfig(t, `
lookups:
  - key: items
    staging_table: Items_Review
    human_id_prefix: IT-
`)

	lookups, err := loadLookups(v)
	require.NoError(t, err)
	require.Len(t, lookups, len(types.DefaultLookups()))

	var items types.Lookup
	for _, lk := range lookups {
		if lk.Key == "items" {
			items = lk
		}
	}
	assert.Equal(t, "Items_Review", items.StagingTable)
	assert.Equal(t, "IT-", items.HumanIDPrefix)

	// Fields the override does not set keep their built-in values.
	assert.Equal(t, "Items", items.MasterTable)
	assert.Equal(t, "entered_name", items.EnteredNameColumn)
}

func TestLoadLookupsAppendsNewPipeline(t *testing.T) {
	v := parseConfig(t, `
lookups:
  - key: stores
    master_table: Stores
    staging_table: Stores_Staging
    id_column: store_id
    name_column: name
`)

	lookups, err := loadLookups(v)
	require.NoError(t, err)
	require.Len(t, lookups, len(types.DefaultLookups())+1)

	stores := lookups[len(lookups)-1]
	assert.Equal(t, "stores", stores.Key)
	assert.Equal(t, "Stores", stores.MasterTable)
	assert.Equal(t, "store_id", stores.IDColumn)

	configLookups = lookups
	defer func() { configLookups = nil }()

	selected, err := selectLookups("stores")
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "Stores_Staging", selected[0].StagingTable)
}

func TestLoadLookupsRejectsIncompletePipeline(t *testing.T) {
	v := parseConfig(t, `
lookups:
  - key: stores
    master_table: Stores
`)

	_, err := loadLookups(v)
	assert.ErrorIs(t, err, types.ErrLookupTableEmpty)
}

func TestLoadLookupsRejectsUnknownField(t *testing.T) {
	v := parseConfig(t, `
lookups:
  - key: items
    stagin_table: Items_Review
`)

	_, err := loadLookups(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stagin_table")
}

func TestLoadEntryAndEvalTables(t *testing.T) {
	v := parseConfig(t, `
entry_table:
  table: Purchases
eval_table:
  item_column: product
`)

	ent, err := loadEntryTable(v)
	require.NoError(t, err)
	assert.Equal(t, "Purchases", ent.Table)
	assert.Equal(t, "entry_id", ent.IDColumn, "unset fields keep built-in values")

	ev, err := loadEvalTable(v)
	require.NoError(t, err)
	assert.Equal(t, "product", ev.ItemColumn)
	assert.Equal(t, "Price_Log", ev.Table)
}
