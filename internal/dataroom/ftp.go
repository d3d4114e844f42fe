// Package dataroom pulls deal documents and metric workbooks from the
// firm's FTP data room.
package dataroom

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/config"
)

// Client connects to the data room over FTP.
type Client struct {
	host     string
	user     string
	password string
	timeout  time.Duration
}

// NewClient builds a data room client from configuration.
func NewClient(cfg config.DataRoomConfig) (*Client, error) {
	host, err := parseHost(cfg.URL)
	if err != nil {
		return nil, err
	}
	user := cfg.User
	password := cfg.Password
	if user == "" {
		user = "anonymous"
		password = "anonymous@"
	}
	return &Client{
		host:     host,
		user:     user,
		password: password,
		timeout:  30 * time.Second,
	}, nil
}

// parseHost extracts the host (with port) from a data room URL.
func parseHost(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "dataroom: parse url")
	}
	if u.Scheme != "ftp" {
		return "", eris.Errorf("dataroom: expected ftp scheme, got %q", u.Scheme)
	}
	host := u.Host
	if host == "" {
		return "", eris.New("dataroom: empty host in url")
	}
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}
	return host, nil
}

func (c *Client) connect(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(c.host, ftp.DialWithTimeout(c.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "dataroom: dial")
	}
	if err := conn.Login(c.user, c.password); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "dataroom: login")
	}
	return conn, nil
}

// ListDecks returns the pitch deck PDFs in the given data room directory,
// sorted by name.
func (c *Client) ListDecks(ctx context.Context, dir string) ([]string, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	entries, err := conn.List(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "dataroom: list %s", dir)
	}

	var decks []string
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFile {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name), ".pdf") {
			continue
		}
		decks = append(decks, path.Join(dir, e.Name))
	}
	sort.Strings(decks)

	zap.L().Debug("dataroom: listed decks",
		zap.String("dir", dir),
		zap.Int("count", len(decks)))
	return decks, nil
}

// Pull downloads a data room file to localDir and returns the local path.
func (c *Client) Pull(ctx context.Context, remotePath, localDir string) (string, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Quit()

	resp, err := conn.Retr(remotePath)
	if err != nil {
		return "", eris.Wrapf(err, "dataroom: retrieve %s", remotePath)
	}
	defer resp.Close()

	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", eris.Wrap(err, "dataroom: create local dir")
	}
	localPath := filepath.Join(localDir, filepath.Base(remotePath))
	file, err := os.Create(localPath)
	if err != nil {
		return "", eris.Wrap(err, "dataroom: create file")
	}
	defer file.Close()

	n, err := io.Copy(file, resp)
	if err != nil {
		return "", eris.Wrapf(err, "dataroom: write %s", localPath)
	}

	zap.L().Info("dataroom: pulled document",
		zap.String("remote", remotePath),
		zap.String("local", localPath),
		zap.Int64("bytes", n))
	return localPath, nil
}
