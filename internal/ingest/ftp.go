package ingest

import (
	"context"
	"net"
	"net/url"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// downloadFTP retrieves an ftp:// URL to a temp file with anonymous login.
func downloadFTP(ctx context.Context, rawURL string, timeout time.Duration) (string, func(), error) {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	host, remotePath, err := parseFTPURL(rawURL)
	if err != nil {
		return "", nil, err
	}

	zap.L().Debug("ingest: ftp connecting", zap.String("host", host), zap.String("path", remotePath))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: ftp dial")
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return "", nil, eris.Wrap(err, "ingest: ftp login")
	}

	resp, err := conn.Retr(remotePath)
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: ftp retrieve")
	}
	defer resp.Close()

	return spool(resp, path.Ext(remotePath))
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, remotePath string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "ingest: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("ingest: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	if u.Path == "" {
		return "", "", eris.New("ingest: empty path in ftp url")
	}
	return host, u.Path, nil
}
