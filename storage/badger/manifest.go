package badger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mus-format/mus-go/varint"
	"github.com/stratumkv/stratum/storage"
)

// catalogFileName is the namespace catalog file kept inside the database
// directory, next to Badger's own files.
const catalogFileName = "NAMESPACES"

// defaultNamespaceID is the ID of the implicit reserved namespace.
const defaultNamespaceID uint32 = 0

// catalog is the in-memory form of the namespace catalog. It is immutable
// once built; mutations produce a new catalog (see withRecord).
type catalog struct {
	records []storage.NamespaceRecord
	nextID  uint32
}

// freshCatalog returns the catalog of a database that has never recorded a
// namespace: only the reserved default namespace exists.
func freshCatalog() *catalog {
	return &catalog{
		records: []storage.NamespaceRecord{{ID: defaultNamespaceID, Name: storage.ReservedStoreName}},
		nextID:  defaultNamespaceID + 1,
	}
}

// loadCatalog reads the catalog file in dir. A missing file means a fresh
// database.
func loadCatalog(dir string) (*catalog, error) {
	data, err := os.ReadFile(filepath.Join(dir, catalogFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return freshCatalog(), nil
		}
		return nil, fmt.Errorf("read namespace catalog: %w", err)
	}

	nextID, n, err := varint.Uint32.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: next id: %v", storage.ErrCatalogCorrupt, err)
	}
	count, m, err := varint.Uint32.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: record count: %v", storage.ErrCatalogCorrupt, err)
	}
	n += m

	records := make([]storage.NamespaceRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		rec, m, err := storage.UnmarshalNamespaceRecord(data[n:])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		n += m
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", storage.ErrCatalogCorrupt, len(data)-n)
	}
	return &catalog{records: records, nextID: nextID}, nil
}

// save writes the catalog to dir atomically: temp file, rename, directory
// sync. A crash mid-save leaves the previous catalog intact.
func (c *catalog) save(dir string) error {
	size := varint.Uint32.Size(c.nextID) + varint.Uint32.Size(uint32(len(c.records)))
	for _, rec := range c.records {
		size += storage.SizeNamespaceRecord(rec)
	}
	buf := make([]byte, size)
	n := varint.Uint32.Marshal(c.nextID, buf)
	n += varint.Uint32.Marshal(uint32(len(c.records)), buf[n:])
	for _, rec := range c.records {
		n += storage.MarshalNamespaceRecord(rec, buf[n:])
	}

	tmp, err := os.CreateTemp(dir, catalogFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("write namespace catalog: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write namespace catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync namespace catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close namespace catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, catalogFileName)); err != nil {
		return fmt.Errorf("replace namespace catalog: %w", err)
	}
	return syncDir(dir)
}

// syncDir flushes the directory entry so the rename is durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("sync directory %s: %w", dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync directory %s: %w", dir, err)
	}
	return nil
}

// lookup finds a record by namespace name.
func (c *catalog) lookup(name string) (storage.NamespaceRecord, bool) {
	for _, rec := range c.records {
		if rec.Name == name {
			return rec, true
		}
	}
	return storage.NamespaceRecord{}, false
}

// withRecord returns a copy of the catalog with one extra record appended and
// the next free ID advanced. The receiver is not modified.
func (c *catalog) withRecord(rec storage.NamespaceRecord) *catalog {
	records := make([]storage.NamespaceRecord, len(c.records), len(c.records)+1)
	copy(records, c.records)
	return &catalog{
		records: append(records, rec),
		nextID:  rec.ID + 1,
	}
}

// names returns the namespace names in catalog order.
func (c *catalog) names() []string {
	out := make([]string, len(c.records))
	for i, rec := range c.records {
		out[i] = rec.Name
	}
	return out
}

// ListNamespaces returns the namespace names recorded on disk at dir, in
// catalog order. A directory without a catalog holds only the implicit
// reserved namespace. The engine does not need to be open.
func ListNamespaces(dir string) ([]string, error) {
	cat, err := loadCatalog(dir)
	if err != nil {
		return nil, err
	}
	return cat.names(), nil
}
