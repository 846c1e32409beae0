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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rewriteURL        string
	rewriteInput      string
	rewriteOutput     string
	rewriteShowStages bool

	rewriteSave    bool
	rewriteOwner   string
	rewriteBook    string
	rewriteChapter string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite a chapter with the writer, editor and reviewer stages",
	Long: `Rewrite a chapter in three sequential passes:

  writer    makes the chapter more engaging, vivid and atmospheric
  editor    fixes clarity, grammar, flow and consistency
  reviewer  polishes for final publication quality

The source is a URL (--url) or a file (--input, "-" for stdin). The reviewed
text is written to --output (stdout if empty). With --save it is also stored
as the version of --owner/--book/--chapter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (rewriteURL == "") == (rewriteInput == "") {
			return errors.New("exactly one of --url or --input is required")
		}
		if rewriteInput != "" && rewriteInput != "-" && rewriteInput == rewriteOutput {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		if rewriteSave && (rewriteOwner == "" || rewriteBook == "" || rewriteChapter == "") {
			return errors.New("--save requires --owner, --book and --chapter")
		}

		ctx := cmd.Context()

		var text string
		var err error
		if rewriteURL != "" {
			text, err = newFetcher(nil).Fetch(ctx, rewriteURL)
		} else {
			text, err = readInput(rewriteInput)
		}
		if err != nil {
			return err
		}

		p, release, err := buildPipeline(ctx, nil)
		if err != nil {
			return err
		}
		defer release()

		fmt.Fprintf(os.Stderr, "AI writer → editor → reviewer working...\n")
		res, err := p.Rewrite(ctx, text)
		if err != nil {
			return fmt.Errorf("rewrite failed: %w", err)
		}

		if rewriteShowStages {
			fmt.Fprintf(os.Stderr, "=== writer ===\n%s\n\n=== editor ===\n%s\n\n=== reviewer ===\n", res.Written, res.Edited)
		}
		if err := writeOutput(rewriteOutput, []byte(res.Reviewed+"\n")); err != nil {
			return err
		}

		if rewriteSave {
			s, err := openStore(ctx, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Save(ctx, rewriteOwner, rewriteBook, rewriteChapter, res.Reviewed); err != nil {
				return fmt.Errorf("failed to save version: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Saved '%s' under '%s'.\n", rewriteChapter, rewriteBook)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().StringVarP(&rewriteURL, "url", "u", "", "Chapter URL to fetch")
	rewriteCmd.Flags().StringVarP(&rewriteInput, "input", "i", "", "Input file with the chapter text (- for stdin)")
	rewriteCmd.Flags().StringVarP(&rewriteOutput, "output", "o", "", "Output file for the reviewed text (stdout if empty)")
	rewriteCmd.Flags().BoolVar(&rewriteShowStages, "show-stages", false, "Print writer and editor output to stderr")

	rewriteCmd.Flags().BoolVar(&rewriteSave, "save", false, "Save the reviewed text as a version")
	rewriteCmd.Flags().StringVar(&rewriteOwner, "owner", "", "Owner identifier for --save")
	rewriteCmd.Flags().StringVar(&rewriteBook, "book", "", "Book title for --save")
	rewriteCmd.Flags().StringVar(&rewriteChapter, "chapter", "", "Chapter title for --save")
}
