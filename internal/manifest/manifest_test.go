package manifest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/millstone-labs/larder/internal/sqlite"
	"github.com/millstone-labs/larder/pkg/types"
)

func TestExport(t *testing.T) {
	ctx := context.Background()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()

	require.NoError(t, b.CreateTable(ctx, "Items", []string{"item_id", "name", "notes"}))
	require.NoError(t, b.AppendRows(ctx, "Items", []types.Row{{"id-1", "Milk", ""}}))

	path := filepath.Join(t.TempDir(), "manifest.xlsx")
	require.NoError(t, Export(ctx, b, []string{"Items", "Ghost"}, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Overview")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"table", "status", "rows", "columns", "exported_at"}, rows[0])
	assert.Equal(t, []string{"Items", "present", "1", "3"}, rows[1][:4])
	assert.Equal(t, "absent", rows[2][1])

	cols, err := f.GetRows("Items")
	require.NoError(t, err)
	require.Len(t, cols, 4)
	assert.Equal(t, []string{"1", "item_id"}, cols[1])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Items_Staging", sheetName("Items_Staging"))
	assert.Equal(t, "a_b", sheetName("a:b"))

	long := sheetName("This_Table_Name_Is_Far_Too_Long_For_An_Xlsx_Sheet")
	assert.Len(t, long, 31)
}
