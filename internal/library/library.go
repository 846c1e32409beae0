// Package library turns an owner's saved versions into books: chapters in
// reading order, books ranked by rating, plus search and export.
package library

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valpere/bookflow/internal"
)

type Chapter struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Book struct {
	Title    string    `json:"title"`
	Chapters []Chapter `json:"chapters"`
	Ratings  []int     `json:"ratings,omitempty"`
}

// AverageRating returns the mean score, or 0 for an unrated book.
func (b Book) AverageRating() float64 {
	if len(b.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range b.Ratings {
		sum += r
	}
	return float64(sum) / float64(len(b.Ratings))
}

func (b Book) Chapter(title string) (Chapter, bool) {
	if i := b.index(title); i >= 0 {
		return b.Chapters[i], true
	}
	return Chapter{}, false
}

// Neighbours returns the titles of the chapters before and after title in
// reading order. Missing neighbours are empty strings.
func (b Book) Neighbours(title string) (prev, next string) {
	i := b.index(title)
	if i < 0 {
		return "", ""
	}
	if i > 0 {
		prev = b.Chapters[i-1].Title
	}
	if i < len(b.Chapters)-1 {
		next = b.Chapters[i+1].Title
	}
	return prev, next
}

func (b Book) index(title string) int {
	for i, c := range b.Chapters {
		if c.Title == title {
			return i
		}
	}
	return -1
}

// Group collects versions into books. Chapters are ordered by the number
// formed by all digits in their title ("Book 1 - Chapter 12" sorts as 112,
// no digits as 0), ties keep their incoming order. Books are ranked by
// average rating, highest first; unrated books count as 0 and ties are
// ordered by title.
func Group(versions []internal.Version, ratings map[string][]int) []Book {
	index := map[string]int{}
	var books []Book
	for _, v := range versions {
		i, ok := index[v.Book]
		if !ok {
			i = len(books)
			index[v.Book] = i
			books = append(books, Book{Title: v.Book, Ratings: ratings[v.Book]})
		}
		books[i].Chapters = append(books[i].Chapters, Chapter{
			Title:     v.Chapter,
			Content:   v.Content,
			UpdatedAt: v.UpdatedAt,
		})
	}

	for i := range books {
		chapters := books[i].Chapters
		sort.SliceStable(chapters, func(a, b int) bool {
			return ChapterNumber(chapters[a].Title) < ChapterNumber(chapters[b].Title)
		})
	}

	sort.SliceStable(books, func(i, j int) bool {
		ai, aj := books[i].AverageRating(), books[j].AverageRating()
		if ai != aj {
			return ai > aj
		}
		return books[i].Title < books[j].Title
	})
	return books
}

// ChapterNumber concatenates every ASCII digit in title. Values too large
// for an int saturate.
func ChapterNumber(title string) int {
	var digits strings.Builder
	for _, r := range title {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return math.MaxInt
	}
	return n
}

// Filter keeps books whose title contains term, ignoring case. An empty
// term keeps everything.
func Filter(books []Book, term string) []Book {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return books
	}
	out := []Book{}
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), term) {
			out = append(out, b)
		}
	}
	return out
}

// Find returns the book with the given title.
func Find(books []Book, title string) (Book, bool) {
	for _, b := range books {
		if b.Title == title {
			return b, true
		}
	}
	return Book{}, false
}
