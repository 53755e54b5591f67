package files

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Store кладёт байты вложений на диск под непрозрачными именами.
// Имя файла никогда не строится из пользовательского ввода.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Save(filename string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir uploads")
	}
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return errors.Wrap(err, "write attachment")
	}
	return nil
}

func (s *Store) Read(filename string) ([]byte, error) {
	// filename приходит только из БД, но basename оставлен как страховка.
	b, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil {
		return nil, errors.Wrap(err, "read attachment")
	}
	return b, nil
}

// RandomFilename — 12 случайных байт hex-ом плюс расширение (может быть пустым).
func RandomFilename(ext string) (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "crypto rand")
	}
	return hex.EncodeToString(buf) + ext, nil
}
