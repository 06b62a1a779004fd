package fsys

import (
	"io/fs"
	"os"

	"github.com/pkg/sftp"
)

// sftpClient is the subset of *sftp.Client the crawler needs.
type sftpClient interface {
	ReadDir(p string) ([]os.FileInfo, error)
	RealPath(p string) (string, error)
	Stat(p string) (os.FileInfo, error)
}

var _ sftpClient = (*sftp.Client)(nil)

// SFTP crawls a remote host through an established SFTP session. Connection
// setup and authentication stay with the caller; the adapter only issues
// READDIR, REALPATH and STAT requests.
//
// Remote paths use forward slashes, so this backend is meant for hosts where
// the local separator is also '/'.
type SFTP struct {
	client sftpClient
}

// NewSFTP wraps an open client. The caller keeps ownership and closes it.
func NewSFTP(client *sftp.Client) *SFTP {
	return &SFTP{client: client}
}

// ReadDir lists dir. Servers return attributes without following links, so
// symlinks keep their own type.
func (s *SFTP) ReadDir(dir string) ([]Entry, error) {
	dir = orDot(dir)
	infos, err := s.client.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name: info.Name(),
			Kind: kindOf(info.Mode()),
			Dir:  dir,
		})
	}
	return entries, nil
}

// RealPath asks the server to canonicalize path.
func (s *SFTP) RealPath(path string) (string, error) {
	return s.client.RealPath(orDot(path))
}

// Stat follows symlinks on the server.
func (s *SFTP) Stat(path string) (fs.FileInfo, error) {
	return s.client.Stat(orDot(path))
}
