// Copyright 2025 JulesFS Authors
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

package commands

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"julesfs/internal/archive"
	"julesfs/internal/blob"
	"julesfs/internal/config"
	"julesfs/internal/manager"
	"julesfs/internal/security"
	"julesfs/internal/storage"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version info for --version flag
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "jfs",
	Short: "Virtual archive with per-user access control",
	Long: `jfs stores files and folders in a single archive database. Every item
carries per-user permissions; missing parent folders are created on the
fly when a path deep in the hierarchy is written to.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("jfs version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.julesfs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// session bundles everything an archive command needs: the open archive
// file, the manager over it and the acting user from the config.
type session struct {
	cfg     *config.Config
	file    *storage.ArchiveFile
	archive *archive.Archive
	mgr     *manager.Manager
	user    security.User
}

func openSession() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no configuration found, run 'jfs init' first")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, err := storage.Open(cfg.Archive)
	if err != nil {
		return nil, err
	}

	key, _ := cfg.BlobKeyBytes()
	codec, err := blob.NewCodec(key)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	a := archive.New(f.ArchiveDB())
	return &session{
		cfg:     cfg,
		file:    f,
		archive: a,
		mgr:     manager.New(a, blob.NewStore(f.ArchiveDB(), codec)),
		user:    cfg.ActingUser(),
	}, nil
}

func (s *session) Close() error {
	return s.file.Close()
}
