// Package backup copies every record collection to object storage together
// with a manifest whose entries are signed, so a restore can tell whether a
// snapshot was tampered with.
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"coursemarket/internal/records"
	"coursemarket/internal/security"
)

var ErrBadSignature = errors.New("snapshot signature mismatch")

// ObjectStore is satisfied by storage.ObjectStore.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type Entry struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Size       int    `json:"size"`
	SHA256     string `json:"sha256"`
	Signature  string `json:"signature"`
}

type Manifest struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Entries   []Entry   `json:"entries"`
}

type Snapshotter struct {
	backend records.Backend
	store   ObjectStore
	secret  string
	log     zerolog.Logger
	now     func() time.Time
}

func NewSnapshotter(backend records.Backend, store ObjectStore, secret string, log zerolog.Logger) *Snapshotter {
	return &Snapshotter{
		backend: backend,
		store:   store,
		secret:  secret,
		log:     log,
		now:     time.Now,
	}
}

// Run uploads one object per collection under snapshots/<id>/, reads each
// one back against its signed entry and then writes the manifest. The
// manifest goes last so a partial or corrupted run never looks complete.
func (s *Snapshotter) Run(ctx context.Context) (Manifest, error) {
	createdAt := s.now().UTC()
	manifest := Manifest{
		ID:        createdAt.Format("20060102T150405Z"),
		CreatedAt: createdAt,
	}
	prefix := "snapshots/" + manifest.ID + "/"

	for _, name := range records.All {
		data, err := s.backend.Read(ctx, name)
		if err != nil {
			return Manifest{}, fmt.Errorf("read %s: %w", name, err)
		}

		key := prefix + name + ".json"
		if err := s.store.PutObject(ctx, key, data, "application/json"); err != nil {
			return Manifest{}, err
		}

		sum := sha256.Sum256(data)
		digest := hex.EncodeToString(sum[:])
		manifest.Entries = append(manifest.Entries, Entry{
			Collection: name,
			Key:        key,
			Size:       len(data),
			SHA256:     digest,
			Signature:  security.SignResource(s.secret, name, key, digest),
		})
	}

	if err := s.VerifyUploaded(ctx, manifest); err != nil {
		return Manifest{}, err
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Manifest{}, err
	}
	if err := s.store.PutObject(ctx, prefix+"manifest.json", raw, "application/json"); err != nil {
		return Manifest{}, err
	}

	s.log.Info().
		Str("snapshot_id", manifest.ID).
		Int("collections", len(manifest.Entries)).
		Msg("snapshot uploaded")
	return manifest, nil
}

// VerifyUploaded downloads every object listed in manifest and checks it
// against its entry.
func (s *Snapshotter) VerifyUploaded(ctx context.Context, manifest Manifest) error {
	for _, entry := range manifest.Entries {
		data, err := s.store.GetObject(ctx, entry.Key)
		if err != nil {
			return err
		}
		if err := Verify(s.secret, entry, data); err != nil {
			return err
		}
	}
	return nil
}

// Verify checks data against its manifest entry.
func Verify(secret string, entry Entry, data []byte) error {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if digest != entry.SHA256 {
		return fmt.Errorf("%w: %s checksum", ErrBadSignature, entry.Collection)
	}

	if !security.VerifyResource(secret, entry.Signature, entry.Collection, entry.Key, digest) {
		return fmt.Errorf("%w: %s", ErrBadSignature, entry.Collection)
	}
	return nil
}
