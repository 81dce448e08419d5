package snapshot

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/alsatianco/peadb/internal/keyspace"
)

const (
	filePrefix    = "snapshot-"
	fileExtension = ".snap"

	DefaultRetentionCount = 5
	DefaultRetentionDays  = 7
)

var ErrNoSnapshots = errors.New("snapshot: no snapshots available")

// Config configures the snapshot manager.
type Config struct {
	Dir string

	RetentionCount int
	RetentionDays  int

	Logger *slog.Logger
}

func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		RetentionCount: DefaultRetentionCount,
		RetentionDays:  DefaultRetentionDays,
	}
}

// Manager writes and restores snapshot files in a directory. File names
// embed a ULID, so lexicographic order is creation order.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	// Monotonic entropy keeps ids ordered even within one millisecond.
	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	if cfg.RetentionCount == 0 {
		cfg.RetentionCount = DefaultRetentionCount
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		logger:  cfg.Logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func (m *Manager) newID() string {
	m.idMu.Lock()
	defer m.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), m.entropy).String()
}

// Info describes one snapshot file.
type Info struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"created_at"`
	KeyCount  int64  `json:"key_count,omitempty"`
}

// Save writes the store's current contents to a new snapshot file. The
// file is written to a temp path and renamed into place, so a crash
// mid-write never leaves a half-written snapshot under the final name.
func (m *Manager) Save(store *keyspace.Store) (*Info, error) {
	entries := store.DumpAll()
	id := filePrefix + m.newID()

	tempPath := filepath.Join(m.cfg.Dir, id+".tmp")
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	if err := Encode(file, entries); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close: %w", err)
	}

	stat, err := os.Stat(tempPath)
	if err != nil {
		return nil, err
	}
	finalPath := filepath.Join(m.cfg.Dir, id+fileExtension)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	m.logger.Info("snapshot written", "id", id, "keys", len(entries), "size", stat.Size())
	return &Info{
		ID:        id,
		Path:      finalPath,
		Size:      stat.Size(),
		CreatedAt: time.Now().UnixMilli(),
		KeyCount:  int64(len(entries)),
	}, nil
}

// Load restores the store from the newest decodable snapshot. A corrupt
// or truncated file is skipped with a warning and the next older one is
// tried; only a fully parsed document replaces the store's contents.
func (m *Manager) Load(store *keyspace.Store) (*Info, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, ErrNoSnapshots
	}
	for i := len(infos) - 1; i >= 0; i-- {
		info := infos[i]
		entries, err := m.decodeFile(info.Path)
		if err != nil {
			if errors.Is(err, ErrBadHeader) || errors.Is(err, ErrTruncated) || errors.Is(err, ErrCorrupt) {
				m.logger.Warn("skipping unreadable snapshot", "path", info.Path, "error", err)
				continue
			}
			return nil, err
		}
		if err := store.LoadDump(entries); err != nil {
			m.logger.Warn("skipping inconsistent snapshot", "path", info.Path, "error", err)
			continue
		}
		info.KeyCount = int64(len(entries))
		return info, nil
	}
	return nil, ErrNoSnapshots
}

// Latest returns the newest snapshot on disk without decoding it.
func (m *Manager) Latest() (*Info, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, ErrNoSnapshots
	}
	return infos[len(infos)-1], nil
}

func (m *Manager) decodeFile(path string) ([]keyspace.DumpEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// List returns the snapshot files in creation order, oldest first.
func (m *Manager) List() ([]*Info, error) {
	dirEntries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var infos []*Info
	for _, e := range dirEntries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExtension) {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, &Info{
			ID:        strings.TrimSuffix(name, fileExtension),
			Path:      filepath.Join(m.cfg.Dir, name),
			Size:      st.Size(),
			CreatedAt: st.ModTime().UnixMilli(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// Prune applies the retention policy: keep the newest RetentionCount
// files plus anything younger than RetentionDays, and never delete the
// newest snapshot. Returns the number removed.
func (m *Manager) Prune() (int, error) {
	infos, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(infos) <= 1 {
		return 0, nil
	}

	keep := make(map[string]struct{}, len(infos))
	if m.cfg.RetentionCount > 0 {
		start := len(infos) - m.cfg.RetentionCount
		if start < 0 {
			start = 0
		}
		for _, info := range infos[start:] {
			keep[info.Path] = struct{}{}
		}
	}
	if m.cfg.RetentionDays > 0 {
		cutoff := time.Now().Add(-time.Duration(m.cfg.RetentionDays) * 24 * time.Hour).UnixMilli()
		for _, info := range infos {
			if info.CreatedAt > cutoff {
				keep[info.Path] = struct{}{}
			}
		}
	}
	keep[infos[len(infos)-1].Path] = struct{}{}

	removed := 0
	for _, info := range infos {
		if _, ok := keep[info.Path]; ok {
			continue
		}
		if err := os.Remove(info.Path); err == nil {
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("pruned snapshots", "removed", removed, "kept", len(infos)-removed)
	}
	return removed, nil
}
