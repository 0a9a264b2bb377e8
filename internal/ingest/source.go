// Package ingest loads input rows from CSV and XLSX tables, sourced
// from local paths or http(s)/ftp URLs.
package ingest

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chmatch/internal/model"
)

// Options configures row loading.
type Options struct {
	Delimiter rune   // CSV delimiter, default ','
	Charset   string // CSV charset (IANA name), default UTF-8
	Sheet     string // XLSX sheet name, default first sheet
	Timeout   time.Duration
}

// Table is a parsed input table: ordered header plus rows keyed by it.
type Table struct {
	Header []string
	Rows   []model.Row
}

// Load reads the table at src, which may be a local path, an http(s)
// URL, or an ftp URL. Remote sources are downloaded to a temp file
// first; format is decided by file extension (.xlsx/.xls vs CSV).
func Load(ctx context.Context, src string, opts Options) (*Table, error) {
	path := src
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		local, cleanup, err := downloadHTTP(ctx, src, opts.Timeout)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = local
	case strings.HasPrefix(src, "ftp://"):
		local, cleanup, err := downloadFTP(ctx, src, opts.Timeout)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = local
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return ReadXLSX(path, opts)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: open input")
		}
		defer f.Close()
		return ReadCSV(ctx, f, opts)
	}
}

// downloadHTTP fetches the URL to a temp file preserving the extension.
func downloadHTTP(ctx context.Context, url string, timeout time.Duration) (string, func(), error) {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: create request")
	}

	zap.L().Debug("ingest: downloading", zap.String("url", url))
	resp, err := hc.Do(req)
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: download")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, eris.Errorf("ingest: download %s: status %d", url, resp.StatusCode)
	}

	return spool(resp.Body, filepath.Ext(url))
}

// spool copies r to a temp file and returns its path plus a cleanup func.
func spool(r io.Reader, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "chmatch-input-*"+ext)
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: create temp file")
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return "", nil, eris.Wrap(err, "ingest: spool input")
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, eris.Wrap(err, "ingest: close temp file")
	}
	return f.Name(), cleanup, nil
}

// tableFromRecords builds a Table from a header record and data records.
// Short records pad with empty strings; extra cells are dropped.
func tableFromRecords(header []string, records [][]string) *Table {
	t := &Table{Header: header}
	for _, rec := range records {
		row := make(model.Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
