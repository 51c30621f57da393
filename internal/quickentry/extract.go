package quickentry

import (
	"context"
	"encoding/base64"
	"log"
	"regexp"
	"strings"
	"sync"
)

const visionPrompt = "Describe what you see in this image. If it's food, list all visible items, portions, and any nutrition labels. If it's a workout/activity screenshot, extract all text and data."

// extractAllText concatenates text from every input modality. Vision and
// transcription run concurrently; a failed branch degrades to a FAILED
// sentinel line instead of failing the entry.
func (s *Service) extractAllText(ctx context.Context, input Input) string {
	const (
		slotText = iota
		slotImage
		slotAudio
		slotPDF
		slotCount
	)
	parts := make([]string, slotCount)

	if input.Text != "" {
		parts[slotText] = "USER TEXT: " + input.Text
	}

	var wg sync.WaitGroup

	if input.ImageBase64 != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			description, err := s.router.DescribeImage(ctx, input.ImageBase64, "image/jpeg", visionPrompt)
			if err != nil {
				log.Printf("[QuickEntry] image processing failed: %v", err)
				parts[slotImage] = "IMAGE: Failed to process"
				return
			}
			parts[slotImage] = "IMAGE CONTENT: " + description
		}()
	}

	if input.AudioBase64 != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			audio, err := base64.StdEncoding.DecodeString(input.AudioBase64)
			if err != nil {
				log.Printf("[QuickEntry] audio decode failed: %v", err)
				parts[slotAudio] = "AUDIO: Failed to transcribe"
				return
			}
			format := input.AudioFormat
			if format == "" {
				format = "m4a"
			}
			transcription, err := s.router.Transcribe(ctx, audio, format)
			if err != nil {
				log.Printf("[QuickEntry] audio transcription failed: %v", err)
				parts[slotAudio] = "AUDIO: Failed to transcribe"
				return
			}
			parts[slotAudio] = "VOICE NOTE: " + transcription
		}()
	}

	wg.Wait()

	if input.PDFBase64 != "" {
		pdfBytes, err := base64.StdEncoding.DecodeString(input.PDFBase64)
		if err != nil {
			log.Printf("[QuickEntry] pdf decode failed: %v", err)
			parts[slotPDF] = "PDF: Failed to process"
		} else if text := pdfPlainText(pdfBytes); text != "" {
			parts[slotPDF] = "PDF CONTENT: " + text
		} else {
			parts[slotPDF] = "PDF: Failed to process"
		}
	}

	nonEmpty := make([]string, 0, slotCount)
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

var pdfTextOp = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)

// pdfPlainText pulls text drawn with uncompressed Tj operators. Scanned
// or compressed documents yield nothing and fall back to the sentinel.
func pdfPlainText(pdf []byte) string {
	matches := pdfTextOp.FindAllSubmatch(pdf, -1)
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	for i, match := range matches {
		if i > 0 {
			b.WriteByte(' ')
		}
		text := string(match[1])
		text = strings.ReplaceAll(text, `\(`, "(")
		text = strings.ReplaceAll(text, `\)`, ")")
		text = strings.ReplaceAll(text, `\\`, `\`)
		b.WriteString(text)
	}

	out := strings.TrimSpace(b.String())
	if len(out) > 4000 {
		out = out[:4000]
	}
	return out
}
