package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fxamacker/cbor/v2"

	"github.com/matzehuels/noderig/pkg/versions"
)

// blobFormat is bumped whenever the on-disk layout changes; older blobs are
// then discarded like corrupt ones.
const blobFormat = 1

var (
	// ErrCorrupt is logged when a cache file cannot be decoded. It never
	// escapes Load.
	ErrCorrupt = errors.New("corrupt cache file")

	encMode = mustEncMode()
)

func mustEncMode() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return m
}

// catalogBlob is the persisted form of a Catalog. The sorted index is left
// out and rebuilt on load.
type catalogBlob struct {
	Format    uint64                      `cbor:"1,keyasint"`
	LTSMajors map[string]uint64           `cbor:"2,keyasint"`
	Releases  map[string]versions.Release `cbor:"3,keyasint"`
}

type inventoryBlob struct {
	Format  uint64             `cbor:"1,keyasint"`
	Entries []versions.Release `cbor:"2,keyasint"`
}

// blobFile reads and atomically replaces one binary cache file.
type blobFile struct {
	path   string
	logger *log.Logger
}

func (f blobFile) read() ([]byte, bool) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, false
	}
	if err != nil {
		f.logger.Warn("cannot read cache file", "path", f.path, "err", err)
		return nil, false
	}
	return data, true
}

// discard logs why a cache file is unusable and deletes it.
func (f blobFile) discard(cause error) {
	f.logger.Error("discarding cache file", "path", f.path, "err", cause)
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("cannot remove cache file", "path", f.path, "err", err)
	}
}

func (f blobFile) write(v any) error {
	data, err := encMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(f.path), err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("prepare cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(f.path), err)
	}
	return nil
}

func (f blobFile) remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CatalogStore persists a Catalog at a fixed path.
type CatalogStore struct {
	file blobFile
}

// NewCatalogStore returns a store for the catalog cache at path.
// A nil logger uses log.Default().
func NewCatalogStore(path string, logger *log.Logger) *CatalogStore {
	if logger == nil {
		logger = log.Default()
	}
	return &CatalogStore{file: blobFile{path: path, logger: logger}}
}

// Path returns the cache file location.
func (s *CatalogStore) Path() string { return s.file.path }

// Load reads the cached catalog. It reports false when there is no usable
// cache: the file is missing, unreadable or corrupt. A corrupt file is
// deleted so the next run starts cold.
func (s *CatalogStore) Load() (*Catalog, bool) {
	data, ok := s.file.read()
	if !ok {
		return nil, false
	}

	var blob catalogBlob
	if err := cbor.Unmarshal(data, &blob); err != nil {
		s.file.discard(fmt.Errorf("%w: %v", ErrCorrupt, err))
		return nil, false
	}
	if blob.Format != blobFormat {
		s.file.discard(fmt.Errorf("%w: format %d", ErrCorrupt, blob.Format))
		return nil, false
	}

	c := &Catalog{
		ltsMajors: blob.LTSMajors,
		byVersion: make(map[versions.Version]versions.Release, len(blob.Releases)),
	}
	if c.ltsMajors == nil {
		c.ltsMajors = make(map[string]uint64)
	}
	for key, r := range blob.Releases {
		if key != r.Version.String() {
			s.file.discard(fmt.Errorf("%w: key %q holds %s", ErrCorrupt, key, r.Version))
			return nil, false
		}
		c.byVersion[r.Version] = r
	}
	c.buildIndex()

	s.file.logger.Debug("loaded release catalog", "releases", c.Len(), "path", s.file.path)
	return c, true
}

// Save overwrites the cache file with c.
func (s *CatalogStore) Save(c *Catalog) error {
	blob := catalogBlob{
		Format:    blobFormat,
		LTSMajors: c.ltsMajors,
		Releases:  make(map[string]versions.Release, len(c.byVersion)),
	}
	for v, r := range c.byVersion {
		blob.Releases[v.String()] = r
	}
	if err := s.file.write(blob); err != nil {
		return fmt.Errorf("save release catalog: %w", err)
	}
	return nil
}

// Clear deletes the cache file. A missing file is not an error.
func (s *CatalogStore) Clear() error {
	if err := s.file.remove(); err != nil {
		return fmt.Errorf("clear release catalog: %w", err)
	}
	return nil
}

// InventoryStore persists the installed inventory at a fixed path.
type InventoryStore struct {
	file blobFile
}

// NewInventoryStore returns a store for the inventory file at path.
// A nil logger uses log.Default().
func NewInventoryStore(path string, logger *log.Logger) *InventoryStore {
	if logger == nil {
		logger = log.Default()
	}
	return &InventoryStore{file: blobFile{path: path, logger: logger}}
}

// Path returns the inventory file location.
func (s *InventoryStore) Path() string { return s.file.path }

// Load reads the inventory. A missing file means nothing is installed yet; a
// corrupt file is deleted and also yields an empty inventory.
func (s *InventoryStore) Load() *Inventory {
	data, ok := s.file.read()
	if !ok {
		return NewInventory()
	}

	var blob inventoryBlob
	if err := cbor.Unmarshal(data, &blob); err != nil {
		s.file.discard(fmt.Errorf("%w: %v", ErrCorrupt, err))
		return NewInventory()
	}
	if blob.Format != blobFormat {
		s.file.discard(fmt.Errorf("%w: format %d", ErrCorrupt, blob.Format))
		return NewInventory()
	}
	return NewInventory(blob.Entries...)
}

// Save overwrites the inventory file.
func (s *InventoryStore) Save(inv *Inventory) error {
	blob := inventoryBlob{Format: blobFormat, Entries: inv.Releases()}
	if err := s.file.write(blob); err != nil {
		return fmt.Errorf("save installed versions: %w", err)
	}
	return nil
}
