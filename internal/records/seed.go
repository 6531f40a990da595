package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Seed copies <dir>/<name>.json into every collection that is still empty.
// Collections that already hold records and names without a seed file are
// left alone. It returns the collections it filled.
func Seed(ctx context.Context, backend Backend, dir string) ([]string, error) {
	var seeded []string
	for _, name := range All {
		data, err := os.ReadFile(filepath.Join(dir, name+".json"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return seeded, fmt.Errorf("read seed %s: %w", name, err)
		}

		items, err := decode[json.RawMessage](data)
		if err != nil {
			return seeded, fmt.Errorf("decode seed %s: %w", name, err)
		}
		if len(items) == 0 {
			continue
		}

		filled := false
		err = backend.Update(ctx, name, func(current []byte) ([]byte, error) {
			existing, err := decode[json.RawMessage](current)
			if err != nil {
				return nil, err
			}
			if len(existing) > 0 {
				return current, nil
			}
			filled = true
			return Encode(items)
		})
		if err != nil {
			return seeded, fmt.Errorf("seed %s: %w", name, err)
		}
		if filled {
			seeded = append(seeded, name)
		}
	}
	return seeded, nil
}
