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

	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat PATH",
	Short: "Show details of a file or folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func init() {
	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	item, err := s.mgr.Stat(cmd.Context(), s.user, args[0])
	if err != nil {
		return err
	}

	kind := "file"
	if item.IsFolder {
		kind = "folder"
	}
	fmt.Printf("Path:     %s\n", item.Path)
	fmt.Printf("Name:     %s\n", item.Name)
	fmt.Printf("Kind:     %s\n", kind)
	if !item.IsFolder {
		fmt.Printf("Size:     %d\n", item.Size)
		fmt.Printf("MIME:     %s\n", item.MimeType)
	}
	fmt.Printf("Created:  %s by %s\n", item.CreatedOn.Format("2006-01-02 15:04:05"), item.CreatedBy)
	return nil
}
