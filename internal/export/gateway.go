// Package export implements the Export/Notify gateway: flushed batches
// become CSV artifacts on disk and notifications go out over SMTP. When
// delivery fails the artifact stays on disk and the caller keeps running.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"amc/internal/session"
)

// Gateway writes attendance artifacts under a base directory, one file per
// batch and one combined file per day.
type Gateway struct {
	dir     string
	section string
	mailer  *Mailer // nil disables delivery
}

// NewGateway creates a gateway. mailer may be nil when SMTP is not
// configured; Notify then reports an error and records stay local.
func NewGateway(dir, section string, mailer *Mailer) *Gateway {
	return &Gateway{dir: dir, section: section, mailer: mailer}
}

// ExportBatch writes one lecture's attendance to a CSV artifact and
// returns its path.
func (g *Gateway) ExportBatch(ctx context.Context, b session.Batch) (string, error) {
	name := fmt.Sprintf("%s %s %s.csv", g.section, b.FlushedAt.Format("2006-01-02"), slotFileTag(b.SlotRange))
	path := filepath.Join(g.dir, name)
	file, err := createArtifact(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := writeBatch(w, b); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return path, nil
}

// ExportDay writes the whole day's ledger into one combined CSV artifact.
func (g *Gateway) ExportDay(ctx context.Context, batches []session.Batch) (string, error) {
	if len(batches) == 0 {
		return "", fmt.Errorf("day export: empty ledger")
	}
	name := fmt.Sprintf("%s - %s.csv", g.section, batches[0].FlushedAt.Format("20060102"))
	path := filepath.Join(g.dir, name)
	file, err := createArtifact(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	for i, b := range batches {
		if i > 0 {
			if err := w.Write([]string{}); err != nil {
				return "", err
			}
		}
		if err := writeBatch(w, b); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return path, nil
}

// Notify mails an artifact. Never retried; the caller decides what a
// failure means.
func (g *Gateway) Notify(ctx context.Context, artifactPath, recipient, subject, body string) error {
	if g.mailer == nil {
		return fmt.Errorf("mail delivery not configured, record kept at %s", artifactPath)
	}
	if recipient == "" {
		return fmt.Errorf("no recipient for %s", artifactPath)
	}
	return g.mailer.Send(ctx, recipient, subject, body, artifactPath)
}

func createArtifact(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("artifact dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	return file, nil
}

func writeBatch(w *csv.Writer, b session.Batch) error {
	rows := [][]string{
		{b.SlotRange, b.Subject},
		{"Code", "Host Faculty"},
		{b.Host.Code, titleCase(b.Host.Name)},
		{"Roll Number", "Attendees"},
	}
	ordered := make([]int, len(b.Attendees))
	for i := range ordered {
		ordered[i] = i
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, _ := strconv.Atoi(b.Attendees[ordered[i]].RollNumber)
		c, _ := strconv.Atoi(b.Attendees[ordered[j]].RollNumber)
		return a < c
	})
	for _, idx := range ordered {
		att := b.Attendees[idx]
		rows = append(rows, []string{att.RollNumber, titleCase(att.Name)})
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func titleCase(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func slotFileTag(slotRange string) string {
	tag := strings.TrimPrefix(slotRange, "(")
	if sep := strings.Index(tag, "-"); sep >= 0 {
		tag = tag[:sep]
	}
	return strings.ReplaceAll(tag, ":", "")
}
