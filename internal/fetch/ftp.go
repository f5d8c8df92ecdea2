// Package fetch mirrors parameter report files from the producer's FTP
// drop into a local directory tree, preserving the remote layout so the
// dataset and method path segments survive for the batch walk.
package fetch

import (
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/meteolab/analogtab/internal/batch"
)

type Client struct {
	addr string
	user string
	pass string
}

func New(addr, user, pass string) *Client {
	if user == "" {
		user = "anonymous"
		pass = "anonymous"
	}
	return &Client{addr: addr, user: user, pass: pass}
}

// lister is the slice of the FTP connection the traversal needs; tests
// substitute an in-memory tree.
type lister interface {
	List(path string) ([]*ftp.Entry, error)
}

// retriever fetches one remote file's content.
type retriever func(remotePath string) (io.ReadCloser, error)

// Mirror downloads every report file beneath remoteRoot into localRoot
// and returns the number of files written. Connection setup is retried
// with exponential backoff; download failures are permanent.
func (c *Client) Mirror(remoteRoot, localRoot string) (int, error) {
	var conn *ftp.ServerConn
	connect := func() error {
		cn, err := ftp.Dial(c.addr, ftp.DialWithTimeout(30*time.Second))
		if err != nil {
			return fmt.Errorf("ftp dial: %w", err)
		}
		if err := cn.Login(c.user, c.pass); err != nil {
			cn.Quit()
			return backoff.Permanent(fmt.Errorf("ftp login: %w", err))
		}
		conn = cn
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(connect, bo); err != nil {
		return 0, err
	}
	defer conn.Quit()

	retr := func(remotePath string) (io.ReadCloser, error) {
		return conn.Retr(remotePath)
	}
	return mirrorTree(conn, retr, remoteRoot, localRoot)
}

// mirrorTree walks the remote listing depth-first, downloading report
// files and recreating the remote directory layout under localDir.
func mirrorTree(ls lister, retr retriever, remoteDir, localDir string) (int, error) {
	entries, err := ls.List(remoteDir)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", remoteDir, err)
	}
	count := 0
	for _, e := range entries {
		switch e.Type {
		case ftp.EntryTypeFolder:
			if e.Name == "." || e.Name == ".." {
				continue
			}
			n, err := mirrorTree(ls, retr, path.Join(remoteDir, e.Name), filepath.Join(localDir, e.Name))
			if err != nil {
				return count, err
			}
			count += n
		case ftp.EntryTypeFile:
			if !batch.IsReportFile(e.Name) {
				continue
			}
			if err := download(retr, path.Join(remoteDir, e.Name), filepath.Join(localDir, e.Name)); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func download(retr retriever, remotePath, localPath string) error {
	resp, err := retr(remotePath)
	if err != nil {
		return fmt.Errorf("retrieve %s: %w", remotePath, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return fmt.Errorf("read %s: %w", remotePath, err)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return err
	}
	log.Printf("fetched %s (%d bytes)", remotePath, len(data))
	return nil
}
