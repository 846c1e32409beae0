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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	versionsOwner   string
	versionsBook    string
	versionsChapter string
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage saved chapter versions",
	Long:  `List, show, and delete the chapter versions saved for an owner.`,
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all versions of an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer s.Close()

		versions, err := s.List(cmd.Context(), versionsOwner)
		if err != nil {
			return fmt.Errorf("failed to list versions: %w", err)
		}

		if len(versions) == 0 {
			fmt.Println("No saved versions yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BOOK\tCHAPTER\tUPDATED\tCHARS\tTEXT")
		for _, v := range versions {
			snippet := strings.Join(strings.Fields(v.Content), " ")
			if r := []rune(snippet); len(r) > 40 {
				snippet = string(r[:37]) + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				v.Book, v.Chapter, v.UpdatedAt.Local().Format("2006-01-02 15:04"),
				len(v.Content), snippet)
		}
		return w.Flush()
	},
}

var versionsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the content of one version",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer s.Close()

		v, err := s.Get(cmd.Context(), versionsOwner, versionsBook, versionsChapter)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Printf("%s - %s\n\n%s\n", v.Book, v.Chapter, v.Content)
		return nil
	},
}

var versionsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one version",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Delete(cmd.Context(), versionsOwner, versionsBook, versionsChapter); err != nil {
			return fmt.Errorf("failed to delete version: %w", err)
		}
		fmt.Printf("Deleted '%s' from '%s'.\n", versionsChapter, versionsBook)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)

	versionsCmd.PersistentFlags().StringVar(&versionsOwner, "owner", "", "Owner identifier (required)")
	versionsCmd.MarkPersistentFlagRequired("owner")

	for _, c := range []*cobra.Command{versionsShowCmd, versionsDeleteCmd} {
		c.Flags().StringVar(&versionsBook, "book", "", "Book title (required)")
		c.Flags().StringVar(&versionsChapter, "chapter", "", "Chapter title (required)")
		c.MarkFlagRequired("book")
		c.MarkFlagRequired("chapter")
	}

	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsShowCmd)
	versionsCmd.AddCommand(versionsDeleteCmd)
}
