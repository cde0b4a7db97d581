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
)

var getCmd = &cobra.Command{
	Use:   "get PATH [LOCAL]",
	Short: "Download a file from the archive",
	Long: `Download the file at PATH. The payload is written to LOCAL, or to a
file named after the archive item when LOCAL is omitted. Pass "-" to
write to stdout.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	fc, err := s.mgr.Download(cmd.Context(), s.user, args[0])
	if err != nil {
		return err
	}

	local := fc.FileName
	if len(args) > 1 {
		local = args[1]
	}
	if local == "-" {
		_, err := os.Stdout.Write(fc.Data)
		return err
	}

	if err := os.WriteFile(local, fc.Data, 0644); err != nil {
		return err
	}
	fmt.Printf("%s (%d bytes)\n", local, len(fc.Data))
	return nil
}
