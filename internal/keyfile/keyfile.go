// Package keyfile loads DESFire keys from hex-encoded files on disk.
package keyfile

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeyFile is one key loaded from a .hex file: its source file name and
// decoded bytes. Length tells the caller which scheme it fits — 8 for a
// single DES key, 16 for a double-length 3DES or AES key, 24 for a
// triple-length 3DES key.
type KeyFile struct {
	Name string
	Key  []byte
}

// Load reads a single hex-encoded key from path. The file holds one
// line of hex characters, whitespace-trimmed; its decoded length must
// be 8, 16 or 24 bytes to match a DESFire key family.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, err := hex.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("keyfile: %s: invalid hex: %w", path, err)
		}
		switch len(key) {
		case 8, 16, 24:
		default:
			return nil, fmt.Errorf("keyfile: %s: key must be 8, 16 or 24 bytes, got %d", path, len(key))
		}
		return key, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("keyfile: %s: empty", path)
}

// LoadDir loads every *.hex file in dir, skipping entries that fail to
// parse rather than aborting the whole directory.
func LoadDir(dir string) ([]KeyFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []KeyFile
	for _, e := range entries {
		if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != ".hex" {
			continue
		}
		key, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, KeyFile{Name: e.Name(), Key: key})
	}
	if out == nil {
		return nil, errors.New("keyfile: no valid .hex files found")
	}
	return out, nil
}
