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

	"github.com/valpere/bookflow/internal/library"
	"github.com/valpere/bookflow/internal/store"
)

var (
	exportOwner  string
	exportBook   string
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a full book as txt, md or html",
	Long: `Export every saved chapter of a book in reading order. Without --output the
file is named after the book title (spaces become underscores).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := library.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		s, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer s.Close()

		books, err := loadBooks(cmd.Context(), s, exportOwner)
		if err != nil {
			return err
		}
		b, ok := library.Find(books, store.Normalize(exportBook))
		if !ok {
			return fmt.Errorf("book %q: %w", exportBook, store.ErrNotFound)
		}

		data, err := library.Export(b, format)
		if err != nil {
			return err
		}

		out := exportOutput
		if out == "" {
			out = library.ExportFileName(b, format)
		}
		if err := writeOutput(out, data); err != nil {
			return err
		}
		if out != "-" {
			fmt.Fprintf(os.Stderr, "Exported %d chapters to %s\n", len(b.Chapters), out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOwner, "owner", "", "Owner identifier (required)")
	exportCmd.Flags().StringVar(&exportBook, "book", "", "Book title (required)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "txt", "Export format: txt, md, html")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (- for stdout)")
	exportCmd.MarkFlagRequired("owner")
	exportCmd.MarkFlagRequired("book")
}
