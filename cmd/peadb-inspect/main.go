// Command peadb-inspect examines snapshot files offline: keyspace
// statistics, key listings, integrity checks and export to a replayable
// command log.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/alsatianco/peadb/internal/config"
	"github.com/alsatianco/peadb/internal/keyspace"
	"github.com/alsatianco/peadb/internal/storage/snapshot"
	"github.com/alsatianco/peadb/internal/telemetry/logger"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "peadb-inspect:", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:    "peadb-inspect",
		Usage:   "inspect peadb snapshot files",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (YAML)",
				EnvVars: []string{"PEADB_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "snapshot directory (overrides config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output format: text, json, yaml",
				Value:   "text",
			},
		},
		Commands: []*cli.Command{
			statsCommand(),
			keysCommand(),
			exportCommand(),
			verifyCommand(),
			digestCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	var opts []config.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg, err := config.NewLoader(opts...).Load()
	if err != nil {
		return cfg, err
	}
	if dir := c.String("dir"); dir != "" {
		cfg.Snapshot.Dir = dir
	}
	return cfg, nil
}

// loadStore restores a store from the newest readable snapshot.
func loadStore(c *cli.Context) (*keyspace.Store, *snapshot.Info, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	mgr, err := snapshot.NewManager(snapshot.Config{
		Dir:            cfg.Snapshot.Dir,
		RetentionCount: cfg.Snapshot.RetentionCount,
		RetentionDays:  cfg.Snapshot.RetentionDays,
		Logger:         log,
	})
	if err != nil {
		return nil, nil, err
	}
	store := keyspace.New(keyspace.WithLogger(log))
	info, err := mgr.Load(store)
	if err != nil {
		return nil, nil, err
	}
	return store, info, nil
}

func emit(c *cli.Context, data any) error {
	switch c.String("output") {
	case "json":
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(c.App.Writer)
		defer enc.Close()
		return enc.Encode(data)
	default:
		_, err := fmt.Fprintln(c.App.Writer, data)
		return err
	}
}

type dbStats struct {
	DB       int `json:"db" yaml:"db"`
	Keys     int `json:"keys" yaml:"keys"`
	Expiring int `json:"expiring" yaml:"expiring"`
}

type statsReport struct {
	Snapshot  string    `json:"snapshot" yaml:"snapshot"`
	TotalKeys int       `json:"total_keys" yaml:"total_keys"`
	Databases []dbStats `json:"databases" yaml:"databases"`
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "per-database key counts from the newest snapshot",
		Action: func(c *cli.Context) error {
			store, info, err := loadStore(c)
			if err != nil {
				return err
			}
			st := store.Stats()
			report := statsReport{Snapshot: info.ID}
			for i, db := range st.PerDB {
				if db.Keys == 0 {
					continue
				}
				report.TotalKeys += db.Keys
				report.Databases = append(report.Databases, dbStats{DB: i, Keys: db.Keys, Expiring: db.Expiring})
			}
			if c.String("output") == "text" {
				fmt.Fprintf(c.App.Writer, "snapshot: %s\n", report.Snapshot)
				for _, db := range report.Databases {
					fmt.Fprintf(c.App.Writer, "db%d: keys=%d expiring=%d\n", db.DB, db.Keys, db.Expiring)
				}
				fmt.Fprintf(c.App.Writer, "total: %d\n", report.TotalKeys)
				return nil
			}
			return emit(c, report)
		},
	}
}

type keyInfo struct {
	Key      string `json:"key" yaml:"key"`
	Type     string `json:"type" yaml:"type"`
	Encoding string `json:"encoding" yaml:"encoding"`
	TTLMS    int64  `json:"ttl_ms" yaml:"ttl_ms"`
}

func keysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "list keys of one database from the newest snapshot",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "db", Usage: "database index", Value: 0},
			&cli.StringFlag{Name: "pattern", Aliases: []string{"p"}, Usage: "glob pattern", Value: "*"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "filter by value type"},
		},
		Action: func(c *cli.Context) error {
			store, _, err := loadStore(c)
			if err != nil {
				return err
			}
			if err := store.Select(c.Int("db")); err != nil {
				return err
			}
			var out []keyInfo
			for _, key := range store.Keys(c.String("pattern")) {
				typ := store.TypeOf(key)
				if filter := c.String("type"); filter != "" && typ != filter {
					continue
				}
				enc, err := store.ObjectEncoding(key)
				if err != nil {
					return err
				}
				out = append(out, keyInfo{Key: key, Type: typ, Encoding: enc, TTLMS: store.PTTL(key)})
			}
			if c.String("output") == "text" {
				for _, ki := range out {
					fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\tttl=%d\n", ki.Key, ki.Type, ki.Encoding, ki.TTLMS)
				}
				return nil
			}
			return emit(c, out)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "render the newest snapshot as a replayable command log",
		Action: func(c *cli.Context) error {
			store, _, err := loadStore(c)
			if err != nil {
				return err
			}
			for _, cmd := range store.ExportCommands() {
				quoted := make([]string, len(cmd))
				for i, arg := range cmd {
					quoted[i] = quoteArg(arg)
				}
				fmt.Fprintln(c.App.Writer, strings.Join(quoted, " "))
			}
			return nil
		},
	}
}

// quoteArg quotes an argument only when it needs it, keeping the export
// readable for the common case.
func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n\"\\") {
		return fmt.Sprintf("%q", arg)
	}
	return arg
}

type verifyResult struct {
	Path string `json:"path" yaml:"path"`
	OK   bool   `json:"ok" yaml:"ok"`
	Keys int    `json:"keys,omitempty" yaml:"keys,omitempty"`
	Err  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check every snapshot file in the directory for corruption",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			mgr, err := snapshot.NewManager(snapshot.Config{Dir: cfg.Snapshot.Dir})
			if err != nil {
				return err
			}
			infos, err := mgr.List()
			if err != nil {
				return err
			}
			bad := 0
			var results []verifyResult
			for _, info := range infos {
				res := verifyResult{Path: info.Path}
				f, err := os.Open(info.Path)
				if err != nil {
					res.Err = err.Error()
				} else {
					entries, err := snapshot.Decode(f)
					f.Close()
					if err != nil {
						res.Err = err.Error()
					} else {
						res.OK = true
						res.Keys = len(entries)
					}
				}
				if !res.OK {
					bad++
				}
				results = append(results, res)
			}
			if c.String("output") == "text" {
				for _, res := range results {
					status := "ok"
					if !res.OK {
						status = "CORRUPT: " + res.Err
					}
					fmt.Fprintf(c.App.Writer, "%s\t%s\n", res.Path, status)
				}
			} else if err := emit(c, results); err != nil {
				return err
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d snapshots unreadable", bad, len(results))
			}
			return nil
		},
	}
}

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "content digest of one database from the newest snapshot",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "db", Usage: "database index", Value: 0},
		},
		Action: func(c *cli.Context) error {
			store, info, err := loadStore(c)
			if err != nil {
				return err
			}
			if err := store.Select(c.Int("db")); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s db%d %s\n", info.ID, c.Int("db"), store.DebugDigest())
			return nil
		},
	}
}
