// Package reports renders summary rollups as PDF documents and stores
// them in the object store.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/renatodap/fitness-backend/internal/blob"
	"github.com/renatodap/fitness-backend/internal/storage"
)

type Generator struct {
	store     storage.Store
	blobStore blob.Store
}

func NewGenerator(store storage.Store, blobStore blob.Store) *Generator {
	return &Generator{store: store, blobStore: blobStore}
}

// RenderSummary produces the PDF bytes for one summary row.
func (g *Generator) RenderSummary(userID string, summary *storage.Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Training Summary", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, fmt.Sprintf("%s summary", titleCase(summary.PeriodType)))
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s - %s",
		summary.PeriodStart.Format("Jan 2, 2006"),
		summary.PeriodEnd.Format("Jan 2, 2006")))
	pdf.Ln(12)

	for _, section := range []string{"training", "nutrition", "activity"} {
		data, ok := summary.Data[section].(map[string]any)
		if !ok {
			continue
		}

		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 10, titleCase(section))
		pdf.Ln(10)

		pdf.SetFont("Helvetica", "", 10)
		keys := make([]string, 0, len(data))
		for key := range data {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			pdf.Cell(70, 7, key)
			pdf.Cell(0, 7, fmt.Sprintf("%v", data[key]))
			pdf.Ln(7)
		}
		pdf.Ln(4)
	}

	pdf.SetY(-20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 8, fmt.Sprintf("Generated %s", time.Now().UTC().Format(time.RFC1123)))

	var buf pdfBuffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.data, nil
}

// PublishWeeklyReport renders the most recent weekly summary and
// uploads it, stamping the URL back on the summary row.
func (g *Generator) PublishWeeklyReport(ctx context.Context, userID string) (string, error) {
	rows, err := g.store.ListSummaries(ctx, userID, 10)
	if err != nil {
		return "", err
	}

	var weekly *storage.Summary
	for i := range rows {
		if rows[i].PeriodType == "weekly" {
			weekly = &rows[i]
			break
		}
	}
	if weekly == nil {
		return "", fmt.Errorf("no weekly summary for user %s", userID)
	}

	pdfBytes, err := g.RenderSummary(userID, weekly)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/reports/weekly_%s.pdf", userID, weekly.PeriodStart.Format("20060102"))
	url, err := g.blobStore.Upload(ctx, key, pdfBytes, "application/pdf")
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}

	weekly.ReportURL = &url
	if err := g.store.UpsertSummary(ctx, weekly); err != nil {
		return "", err
	}
	return url, nil
}

type pdfBuffer struct {
	data []byte
}

func (b *pdfBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
