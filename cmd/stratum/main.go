// Copyright 2025 Stratum Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/stratumkv/stratum/manager"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "stratum",
		Usage: "Administer a stratum multi-store database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Base directory of the database",
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Run against a volatile in-memory database",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Collect engine metrics while the command runs",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "stores",
				Usage:  "List the stores recorded in the database",
				Action: storesCommand,
			},
			{
				Name:      "get",
				Usage:     "Print the value of a key in a store",
				ArgsUsage: "<store> <key>",
				Action:    getCommand,
			},
			{
				Name:      "set",
				Usage:     "Set the value of a key in a store",
				ArgsUsage: "<store> <key> <value>",
				Action:    setCommand,
			},
			{
				Name:      "del",
				Usage:     "Delete a key from a store",
				ArgsUsage: "<store> <key>",
				Action:    delCommand,
			},
			{
				Name:   "wipe",
				Usage:  "Delete all values from every open store",
				Action: wipeCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "keep",
						Usage: "Store names to leave untouched (repeatable)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// withManager starts a manager for the command's flags, runs fn, and closes
// the manager afterwards. A close failure surfaces when fn itself succeeded.
func withManager(c *cli.Context, fn func(m *manager.Manager) error) error {
	if c.String("db") == "" && !c.Bool("in-memory") {
		return fmt.Errorf("either --db or --in-memory is required")
	}

	m := manager.New(manager.Config{
		Path:           c.String("db"),
		InMemory:       c.Bool("in-memory"),
		CollectMetrics: c.Bool("metrics"),
	})
	if err := m.Start(c.Context); err != nil {
		return err
	}

	fnErr := fn(m)
	if err := m.Close(); err != nil {
		if fnErr != nil {
			slog.Error("closing store manager failed", "err", err)
			return fnErr
		}
		return err
	}
	return fnErr
}

func storesCommand(c *cli.Context) error {
	return withManager(c, func(m *manager.Manager) error {
		for _, name := range m.StoreNames() {
			fmt.Println(name)
		}
		return nil
	})
}

func getCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: get <store> <key>")
	}
	return withManager(c, func(m *manager.Manager) error {
		store, err := m.GetStore(c.Args().Get(0))
		if err != nil {
			return err
		}
		value, found, err := store.Get([]byte(c.Args().Get(1)))
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("key %q not found in store %q", c.Args().Get(1), store.Name())
		}
		fmt.Println(string(value))
		return nil
	})
}

func setCommand(c *cli.Context) error {
	if c.NArg() != 3 {
		return fmt.Errorf("usage: set <store> <key> <value>")
	}
	return withManager(c, func(m *manager.Manager) error {
		store, err := m.GetStore(c.Args().Get(0))
		if err != nil {
			return err
		}
		return store.Put([]byte(c.Args().Get(1)), []byte(c.Args().Get(2)))
	})
}

func delCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: del <store> <key>")
	}
	return withManager(c, func(m *manager.Manager) error {
		store, err := m.GetStore(c.Args().Get(0))
		if err != nil {
			return err
		}
		return store.Delete([]byte(c.Args().Get(1)))
	})
}

func wipeCommand(c *cli.Context) error {
	return withManager(c, func(m *manager.Manager) error {
		// Open every recorded store so the wipe covers the whole database,
		// not only stores this process happened to touch.
		for _, name := range m.StoreNames() {
			if _, err := m.GetStore(name); err != nil {
				return err
			}
		}
		return m.DeleteEverything(c.StringSlice("keep")...)
	})
}
