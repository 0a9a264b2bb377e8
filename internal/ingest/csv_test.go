package ingest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Basic(t *testing.T) {
	t.Parallel()

	in := "company_name,town\nBBC Studios Limited,London\nAcme Group,Leeds\n"
	got, err := ReadCSV(context.Background(), strings.NewReader(in), Options{})

	require.NoError(t, err)
	assert.Equal(t, []string{"company_name", "town"}, got.Header)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "BBC Studios Limited", got.Rows[0]["company_name"])
	assert.Equal(t, "Leeds", got.Rows[1]["town"])
}

func TestReadCSV_HeaderTrimmed(t *testing.T) {
	t.Parallel()

	in := " company_name , town \nAcme,Leeds\n"
	got, err := ReadCSV(context.Background(), strings.NewReader(in), Options{})

	require.NoError(t, err)
	assert.Equal(t, []string{"company_name", "town"}, got.Header)
	assert.Equal(t, "Acme", got.Rows[0]["company_name"])
}

func TestReadCSV_CustomDelimiter(t *testing.T) {
	t.Parallel()

	in := "company_name;town\nAcme;Leeds\n"
	got, err := ReadCSV(context.Background(), strings.NewReader(in), Options{Delimiter: ';'})

	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Acme", got.Rows[0]["company_name"])
	assert.Equal(t, "Leeds", got.Rows[0]["town"])
}

func TestReadCSV_ShortRecordsPadded(t *testing.T) {
	t.Parallel()

	in := "company_name,town,postcode\nAcme,Leeds\n"
	got, err := ReadCSV(context.Background(), strings.NewReader(in), Options{})

	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "", got.Rows[0]["postcode"])
}

func TestReadCSV_Charset(t *testing.T) {
	t.Parallel()

	// "Café" in latin-1: the é is a single 0xE9 byte.
	in := append([]byte("company_name\nCaf"), 0xE9, '\n')
	got, err := ReadCSV(context.Background(), bytes.NewReader(in), Options{Charset: "latin1"})

	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Café", got.Rows[0]["company_name"])
}

func TestReadCSV_UnsupportedCharset(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(context.Background(), strings.NewReader("a\n"), Options{Charset: "no-such-charset"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}

func TestReadCSV_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(context.Background(), strings.NewReader(""), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty input")
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	t.Parallel()

	got, err := ReadCSV(context.Background(), strings.NewReader("company_name,town\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"company_name", "town"}, got.Header)
	assert.Empty(t, got.Rows)
}

func TestReadCSV_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, strings.NewReader("a\n1\n2\n"), Options{})
	require.Error(t, err)
}
