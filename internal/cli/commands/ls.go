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
	"sort"

	"github.com/spf13/cobra"

	"julesfs/internal/archive"
)

var (
	lsFolders bool
	lsFiles   bool
)

var lsCmd = &cobra.Command{
	Use:   "ls PATH",
	Short: "List the subtree below a folder",
	Long: `List every item below PATH the acting user can read, at any depth,
sorted by path. Folders end in a separator.`,
	Args: cobra.ExactArgs(1),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVar(&lsFolders, "folders", false, "folders only")
	lsCmd.Flags().BoolVar(&lsFiles, "files", false, "files only")
	lsCmd.MarkFlagsMutuallyExclusive("folders", "files")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	kind := archive.KindBoth
	if lsFolders {
		kind = archive.KindFoldersOnly
	}
	if lsFiles {
		kind = archive.KindFilesOnly
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	items, err := s.archive.ListChildren(cmd.Context(), s.user, args[0], kind)
	if err != nil {
		return err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })

	for _, it := range items {
		if it.IsFolder {
			fmt.Printf("%s\n", it.Path)
		} else {
			fmt.Printf("%s\t%d\t%s\n", it.Path, it.Size, it.MimeType)
		}
	}
	return nil
}
