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
	"path/filepath"

	"github.com/spf13/cobra"

	"julesfs/internal/archive"
	"julesfs/internal/manager"
	"julesfs/internal/util"
)

var (
	putName string
	putMime string
)

var putCmd = &cobra.Command{
	Use:   "put LOCAL FOLDER",
	Short: "Upload a local file into an archive folder",
	Long: `Upload a local file into the given archive folder. Missing parent
folders are created on the way. The MIME type is sniffed from the bytes
unless --mime is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runPut,
}

func init() {
	putCmd.Flags().StringVar(&putName, "name", "", "file name in the archive (default: local base name)")
	putCmd.Flags().StringVar(&putMime, "mime", "", "MIME type (default: sniffed)")
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	local, folder := args[0], args[1]

	data, err := os.ReadFile(local)
	if err != nil {
		return err
	}
	name := putName
	if name == "" {
		name = filepath.Base(local)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	item, err := util.RetryWithResult(ctx, func() (archive.Item, error) {
		return s.mgr.CreateFile(ctx, s.user, folder, manager.FileContent{
			FileName: name,
			MimeType: putMime,
			Data:     data,
		})
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d bytes, %s)\n", item.Path, item.Size, item.MimeType)
	return nil
}
