// Package csvfile provides the tabular record sink: one CSV row per record,
// keyed and overwritten by natural key.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/bookharvest/bookharvest/internal/crawler"
)

var header = []string{
	"title",
	"category",
	"price",
	"currency",
	"rating",
	"availability",
	"image_url",
	"description",
	"upc",
	"product_type",
	"number_of_reviews",
}

// Sink keeps a natural-key index of records in memory and rewrites the CSV
// file atomically. Existing rows are loaded on open so a re-run against an
// unchanged source converges to the same file instead of appending
// duplicates.
type Sink struct {
	mu    sync.Mutex
	path  string
	order []string
	rows  map[string]crawler.Record
}

// NewSink opens (or prepares) the CSV export at path.
func NewSink(path string) (*Sink, error) {
	if path == "" {
		return nil, fmt.Errorf("csv path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create export dir %s: %w", dir, err)
		}
	}
	s := &Sink{
		path: path,
		rows: make(map[string]crawler.Record),
	}
	if err := s.loadExisting(); err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert stores the record under its natural key, overwriting any earlier
// version, and flushes the file.
func (s *Sink) Upsert(ctx context.Context, rec crawler.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.NaturalKey()
	if _, ok := s.rows[key]; !ok {
		s.order = append(s.order, key)
	}
	s.rows[key] = rec
	return s.flushLocked()
}

// Len returns the number of distinct stored rows.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Close flushes the file one final time.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// flushLocked rewrites the whole file through a temp file and rename so a
// crash mid-write never leaves a truncated export.
func (s *Sink) flushLocked() error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open temp export: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, key := range s.order {
		if err := w.Write(rowOf(s.rows[key])); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp export: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace export: %w", err)
	}
	return nil
}

func (s *Sink) loadExisting() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open existing export: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read existing export: %w", err)
	}
	for i, row := range records {
		if i == 0 || len(row) != len(header) {
			continue
		}
		rec := recordOf(row)
		key := rec.NaturalKey()
		if _, ok := s.rows[key]; !ok {
			s.order = append(s.order, key)
		}
		s.rows[key] = rec
	}
	return nil
}

func rowOf(rec crawler.Record) []string {
	rating := ""
	if rec.Rating != crawler.RatingUnknown {
		rating = strconv.Itoa(rec.Rating)
	}
	return []string{
		rec.Title,
		rec.Category,
		strconv.FormatFloat(rec.Price, 'f', 2, 64),
		rec.Currency,
		rating,
		strconv.Itoa(rec.Availability),
		rec.ImageURL,
		rec.Description,
		rec.UPC,
		rec.ProductType,
		strconv.Itoa(rec.NumberOfReviews),
	}
}

func recordOf(row []string) crawler.Record {
	price, _ := strconv.ParseFloat(row[2], 64)
	rating := crawler.RatingUnknown
	if row[4] != "" {
		rating, _ = strconv.Atoi(row[4])
	}
	availability, _ := strconv.Atoi(row[5])
	reviews, _ := strconv.Atoi(row[10])
	return crawler.Record{
		Title:           row[0],
		Category:        row[1],
		Price:           price,
		Currency:        row[3],
		Rating:          rating,
		Availability:    availability,
		ImageURL:        row[6],
		Description:     row[7],
		UPC:             row[8],
		ProductType:     row[9],
		NumberOfReviews: reviews,
	}
}
