package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// InboxOptions configures the FTP inbox client.
type InboxOptions struct {
	URL      string // ftp://host[:port]/path
	User     string
	Password string
	Timeout  time.Duration
}

// Inbox lists and downloads spreadsheet feeds that partners drop on an FTP
// server.
type Inbox struct {
	opts InboxOptions
}

// NewInbox creates an FTP inbox client.
func NewInbox(opts InboxOptions) *Inbox {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.User == "" {
		opts.User = "anonymous"
		opts.Password = "anonymous@"
	}
	return &Inbox{opts: opts}
}

// parseFTPURL extracts host (with port) and directory path from an FTP URL.
func parseFTPURL(rawURL string) (host string, dir string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	dir = u.Path
	if dir == "" {
		dir = "/"
	}
	return host, dir, nil
}

func (in *Inbox) connect(ctx context.Context) (*ftp.ServerConn, string, error) {
	host, dir, err := parseFTPURL(in.opts.URL)
	if err != nil {
		return nil, "", err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("dir", dir))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(in.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, "", eris.Wrap(err, "ftp dial")
	}
	if err := conn.Login(in.opts.User, in.opts.Password); err != nil {
		conn.Quit()
		return nil, "", eris.Wrap(err, "ftp login")
	}
	return conn, dir, nil
}

// isSpreadsheet reports whether a remote name looks like an importable feed.
func isSpreadsheet(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".xls", ".xlsx":
		return true
	}
	return false
}

// List returns the spreadsheet file names present in the inbox directory.
func (in *Inbox) List(ctx context.Context) ([]string, error) {
	conn, dir, err := in.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	entries, err := conn.List(dir)
	if err != nil {
		return nil, eris.Wrap(err, "ftp list")
	}

	var names []string
	for _, e := range entries {
		if e.Type == ftp.EntryTypeFile && isSpreadsheet(e.Name) {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// Download retrieves one inbox file into destDir and returns the local path.
func (in *Inbox) Download(ctx context.Context, name, destDir string) (string, error) {
	conn, dir, err := in.connect(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Quit()

	resp, err := conn.Retr(path.Join(dir, name))
	if err != nil {
		return "", eris.Wrap(err, "ftp retrieve")
	}
	defer resp.Close()

	local := filepath.Join(destDir, name)
	file, err := os.Create(local)
	if err != nil {
		return "", eris.Wrap(err, "create file")
	}
	defer file.Close()

	n, err := io.Copy(file, resp)
	if err != nil {
		return "", eris.Wrap(err, "write file")
	}

	zap.L().Info("ftp: downloaded",
		zap.String("file", name),
		zap.String("dest", local),
		zap.Int64("bytes", n),
	)
	return local, nil
}

// DownloadAll fetches every spreadsheet in the inbox into destDir.
func (in *Inbox) DownloadAll(ctx context.Context, destDir string) ([]string, error) {
	names, err := in.List(ctx)
	if err != nil {
		return nil, err
	}

	var locals []string
	for _, name := range names {
		local, err := in.Download(ctx, name, destDir)
		if err != nil {
			return locals, err
		}
		locals = append(locals, local)
	}
	return locals, nil
}
