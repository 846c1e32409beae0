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

	"github.com/spf13/cobra"
)

var (
	saveOwner   string
	saveBook    string
	saveChapter string
	saveInput   string
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a final chapter version",
	Long:  `Store the content of --input as the version of --owner/--book/--chapter, replacing any earlier one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readInput(saveInput)
		if err != nil {
			return err
		}

		s, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Save(cmd.Context(), saveOwner, saveBook, saveChapter, content); err != nil {
			return fmt.Errorf("failed to save version: %w", err)
		}
		fmt.Printf("Saved '%s' under '%s'.\n", saveChapter, saveBook)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)

	saveCmd.Flags().StringVar(&saveOwner, "owner", "", "Owner identifier (required)")
	saveCmd.Flags().StringVar(&saveBook, "book", "", "Book title (required)")
	saveCmd.Flags().StringVar(&saveChapter, "chapter", "", "Chapter title (required)")
	saveCmd.Flags().StringVarP(&saveInput, "input", "i", "", "File with the chapter content, - for stdin (required)")

	saveCmd.MarkFlagRequired("owner")
	saveCmd.MarkFlagRequired("book")
	saveCmd.MarkFlagRequired("chapter")
	saveCmd.MarkFlagRequired("input")
}
