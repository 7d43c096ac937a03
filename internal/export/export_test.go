package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []models.BulkExpenseRow {
	tm := "14:30"
	cat := "food"
	city := "c-minsk"
	return []models.BulkExpenseRow{
		{
			Amount: decimal.RequireFromString("12.5"), Description: "Kebab Factory",
			ExpenseDate: "2024-03-15", ExpenseTime: &tm, City: "Минск", CityID: &city,
			CategoryID: &cat, MatchedKeyword: "kebab",
		},
		{Amount: decimal.NewFromInt(3), Description: "Bakery, central", ExpenseDate: "2024-03-16", Duplicate: true, SourceRow: 3},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRows(), 0))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Time,Amount,Description,City,CityID,CategoryID,MatchedKeyword,Notes,Duplicate,SourceRow", lines[0])
	assert.Equal(t, "2024-03-15,14:30,12.50,Kebab Factory,Минск,c-minsk,food,kebab,,false,1", lines[1])
	assert.Equal(t, `2024-03-16,,3.00,"Bakery, central",,,,,,true,4`, lines[2])
}

func TestWrite_Delimiter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRows()[:1], ';'))
	assert.True(t, strings.HasPrefix(buf.String(), "Date;Time;Amount;"))
}

func TestWriteFile(t *testing.T) {
	logger := logging.NewMockLogger()
	path := filepath.Join(t.TempDir(), "out", "preview.csv")

	require.NoError(t, WriteFile(path, sampleRows(), ',', logger))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Kebab Factory")
	assert.True(t, logger.HasEntry("INFO", "Wrote expense rows to CSV file"))
}
