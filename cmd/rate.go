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

	"github.com/valpere/bookflow/internal/library"
)

var (
	rateOwner string
	rateBook  string
	rateScore int
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Rate a book from 1 to 10",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Rate(ctx, rateOwner, rateBook, rateScore); err != nil {
			return fmt.Errorf("failed to rate book: %w", err)
		}

		ratings, err := s.Ratings(ctx, rateOwner)
		if err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		b := library.Book{Title: rateBook, Ratings: ratings[rateBook]}
		fmt.Printf("Rating submitted: %d/10! Average for '%s': %.1f (%d votes)\n",
			rateScore, rateBook, b.AverageRating(), len(b.Ratings))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rateCmd)

	rateCmd.Flags().StringVar(&rateOwner, "owner", "", "Owner identifier (required)")
	rateCmd.Flags().StringVar(&rateBook, "book", "", "Book title (required)")
	rateCmd.Flags().IntVar(&rateScore, "score", 0, "Score from 1 to 10 (required)")
	rateCmd.MarkFlagRequired("owner")
	rateCmd.MarkFlagRequired("book")
	rateCmd.MarkFlagRequired("score")
}
