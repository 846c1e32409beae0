/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fetchOutput string

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a chapter page and print its text",
	Long: `Download a chapter from a MediaWiki page (e.g. Wikisource) and extract the
paragraphs and headings of its main content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := newFetcher(nil).Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if err := writeOutput(fetchOutput, []byte(text+"\n")); err != nil {
			return err
		}
		if fetchOutput != "" && fetchOutput != "-" {
			fmt.Fprintf(os.Stderr, "Saved %d characters to %s\n", len(text), fetchOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Output file (stdout if empty)")
}
