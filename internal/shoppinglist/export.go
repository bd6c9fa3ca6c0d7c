package shoppinglist

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Format is an export file format.
type Format string

const (
	FormatTXT Format = "txt"
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"

	// DefaultFormat is used when no format is requested.
	DefaultFormat = FormatPDF
)

var ErrUnsupportedFormat = errors.New("unsupported shopping list format")

// ParseFormat validates a requested format. An empty value selects
// DefaultFormat; matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return DefaultFormat, nil
	case FormatTXT, FormatCSV, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatTXT:
		return "text/plain; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/pdf"
	}
}

// Document is a rendered shopping list.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

const (
	title      = "Shopping list"
	fontFamily = "ListFont"
)

// PDF layout in points on an A4 page.
const (
	pdfFontSize   = 20
	pdfLineHeight = 20
	pdfLogoX      = 50
	pdfLogoY      = 17
	pdfLogoSize   = 100
	pdfTitleX     = 250
	pdfTitleY     = 132
	pdfRuleY      = 142
	pdfRuleLeft   = 50
	pdfRuleRight  = 550
	pdfItemX      = 100
	pdfFirstItemY = 162
	pdfTopMargin  = 60
	pdfBottom     = 50
)

// PDFOptions locates the optional font and logo used in PDF exports.
type PDFOptions struct {
	FontPath string
	LogoPath string
}

// Exporter renders shopping lists. It is safe for concurrent use.
type Exporter struct {
	font     []byte
	logo     []byte
	logoType string
}

// NewExporter loads the configured font and logo once.
func NewExporter(opts PDFOptions) (*Exporter, error) {
	e := &Exporter{}
	if opts.FontPath != "" {
		font, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read PDF font: %w", err)
		}
		e.font = font
	}
	if opts.LogoPath != "" {
		logo, err := os.ReadFile(opts.LogoPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read PDF logo: %w", err)
		}
		e.logo = logo
		e.logoType = strings.TrimPrefix(strings.ToUpper(filepath.Ext(opts.LogoPath)), ".")
	}
	return e, nil
}

// Filename is the attachment name for list in format f.
func Filename(list List, f Format) string {
	return fmt.Sprintf("shopping_list_%s_%s.%s", list.Owner, list.GeneratedAt.Format("20060102_150405"), f)
}

// Export renders list in format f.
func (e *Exporter) Export(list List, f Format) (*Document, error) {
	var (
		body []byte
		err  error
	)
	switch f {
	case FormatTXT:
		body = renderTXT(list)
	case FormatCSV:
		body, err = renderCSV(list)
	case FormatPDF:
		body, err = e.renderPDF(list)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s shopping list: %w", f, err)
	}

	return &Document{
		Filename:    Filename(list, f),
		ContentType: f.ContentType(),
		Body:        body,
	}, nil
}

func itemLine(item Item) string {
	return fmt.Sprintf("%d. %s — %d %s", item.Number, item.Name, item.Amount, item.Unit)
}

func renderTXT(list List) []byte {
	var b strings.Builder
	b.WriteString(title + ":\n\n")
	for _, item := range list.Items {
		b.WriteString(itemLine(item))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func renderCSV(list List) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"No.", "Name", "Unit", "Total amount"}); err != nil {
		return nil, err
	}
	for _, item := range list.Items {
		row := []string{strconv.Itoa(item.Number), item.Name, item.Unit, strconv.FormatInt(item.Amount, 10)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (e *Exporter) renderPDF(list List) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(list.GeneratedAt)
	pdf.SetTitle(title, true)

	text := func(s string) string { return s }
	if e.font != nil {
		pdf.AddUTF8FontFromBytes(fontFamily, "", e.font)
		pdf.SetFont(fontFamily, "", pdfFontSize)
	} else {
		pdf.SetFont("Helvetica", "", pdfFontSize)
		text = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AddPage()
	if e.logo != nil {
		opts := fpdf.ImageOptions{ImageType: e.logoType}
		pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(e.logo))
		pdf.ImageOptions("logo", pdfLogoX, pdfLogoY, pdfLogoSize, pdfLogoSize, false, opts, 0, "")
	}
	pdf.Text(pdfTitleX, pdfTitleY, text(title))
	pdf.Line(pdfRuleLeft, pdfRuleY, pdfRuleRight, pdfRuleY)

	_, pageHeight := pdf.GetPageSize()
	y := float64(pdfFirstItemY)
	for _, item := range list.Items {
		if y > pageHeight-pdfBottom {
			pdf.AddPage()
			y = pdfTopMargin
		}
		pdf.Text(pdfItemX, y, text(itemLine(item)))
		y += pdfLineHeight
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
