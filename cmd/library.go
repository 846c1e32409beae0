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
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/bookflow/internal/library"
	"github.com/valpere/bookflow/internal/store"
)

var (
	libraryOwner  string
	librarySearch string
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Show saved books ranked by rating",
	Long: `Show the books of an owner with their chapters in reading order. Books are
ranked by average rating; unrated books come last.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer s.Close()

		books, err := loadBooks(cmd.Context(), s, libraryOwner)
		if err != nil {
			return err
		}

		books = library.Filter(books, librarySearch)
		if len(books) == 0 {
			if librarySearch != "" {
				fmt.Println("No books match your search.")
			} else {
				fmt.Println("No saved versions yet. Save a chapter to begin reading.")
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BOOK\tRATING\tVOTES\tCHAPTERS")
		for _, b := range books {
			titles := make([]string, len(b.Chapters))
			for i, c := range b.Chapters {
				titles[i] = c.Title
			}
			rating := "-"
			if len(b.Ratings) > 0 {
				rating = fmt.Sprintf("%.1f", b.AverageRating())
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.Title, rating, len(b.Ratings), strings.Join(titles, ", "))
		}
		return w.Flush()
	},
}

// loadBooks groups an owner's versions and ratings into ranked books.
func loadBooks(ctx context.Context, s store.Store, owner string) ([]library.Book, error) {
	versions, err := s.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	ratings, err := s.Ratings(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	return library.Group(versions, ratings), nil
}

func init() {
	rootCmd.AddCommand(libraryCmd)

	libraryCmd.Flags().StringVar(&libraryOwner, "owner", "", "Owner identifier (required)")
	libraryCmd.Flags().StringVar(&librarySearch, "search", "", "Only show books whose title contains this text")
	libraryCmd.MarkFlagRequired("owner")
}
