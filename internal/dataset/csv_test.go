package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFullHeader(t *testing.T) {
	data := `Date,Open,High,Low,Close,Adj Close,Volume,Market Cap,Split/Dividend
2024-01-02,151.54,152.38,150.20,151.94,151.94,46282800,1.57T,None
2024-01-03,149.90,151.05,148.50,149.93,149.93,41925200,1.55T,None
`
	rows, err := Read(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2024-01-02", rows[0].Date)
	assert.Equal(t, "151.54", rows[0].Open)
	assert.Equal(t, "151.94", rows[0].AdjClose)
	assert.Equal(t, "1.57T", rows[0].MarketCap)
	assert.Equal(t, "None", rows[0].CorporateAction)
	assert.Equal(t, "41925200", rows[1].Volume)
}

func TestReadOptionalColumnsAbsent(t *testing.T) {
	data := `Date,Open,High,Low,Close,Volume
2024-01-02,151.54,152.38,150.20,151.94,46282800
`
	rows, err := Read(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Empty(t, rows[0].AdjClose)
	assert.Empty(t, rows[0].MarketCap)
	assert.Empty(t, rows[0].CorporateAction)
}

func TestReadMissingRequiredColumn(t *testing.T) {
	data := `Date,Open,High,Low,Volume
2024-01-02,151.54,152.38,150.20,46282800
`
	_, err := Read(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Close")
}

func TestReadRejectsNonNumericPrice(t *testing.T) {
	data := `Date,Open,High,Low,Close,Volume
2024-01-02,abc,152.38,150.20,151.94,46282800
`
	_, err := Read(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Open")
}

func TestReadRejectsNegativeVolume(t *testing.T) {
	data := `Date,Open,High,Low,Close,Volume
2024-01-02,151.54,152.38,150.20,151.94,-5
`
	_, err := Read(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Volume")
}

func TestReadKeepsEmptyDate(t *testing.T) {
	// Empty dates pass loading; they surface as malformed rows at build time.
	data := `Date,Open,High,Low,Close,Volume
,151.54,152.38,150.20,151.94,46282800
`
	rows, err := Read(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Date)
}
