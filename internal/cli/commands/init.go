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
	"os"

	"github.com/spf13/cobra"

	"julesfs/internal/config"
	"julesfs/internal/security"
	"julesfs/internal/storage"
)

var (
	initUser  string
	initAdmin bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration and an empty archive",
	Long: `Create the configuration file with a generated user id and blob key,
then create the archive database. Running init again keeps the existing
configuration and archive.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initUser, "user", "", "acting user name (default $USER)")
	initCmd.Flags().BoolVar(&initAdmin, "admin", false, "give the acting user the admin role")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg != nil {
		fmt.Printf("Configuration already exists (not modified)\n")
	} else {
		name := initUser
		if name == "" {
			name = os.Getenv("USER")
		}
		if name == "" {
			return fmt.Errorf("cannot determine user name, pass --user")
		}
		if cfg, err = config.NewDefault(name); err != nil {
			return err
		}
		if initAdmin {
			cfg.User.Roles = []string{security.AdminRole}
		}
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Printf("Created configuration for user %s\n", cfg.User.Name)
	}

	f, err := storage.OpenOrCreate(cfg.Archive)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Printf("Archive ready at %s\n", f.Path())
	return nil
}
