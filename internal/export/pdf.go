package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

// A4 portrait in points, lower-left origin.
const (
	pageHeight   = 842.0
	marginLeft   = 36.0
	marginTop    = 40.0
	marginBottom = 40.0
	lineHeight   = 12.0
	bodySize     = 7
	titleSize    = 14
)

var pdfColumns = []struct {
	field dataset.Field
	title string
	width int
}{
	{dataset.FieldTopic, "Topic", 16},
	{dataset.FieldSector, "Sector", 18},
	{dataset.FieldYear, "Year", 5},
	{dataset.FieldCountry, "Country", 16},
	{dataset.FieldPestle, "PESTLE", 14},
	{dataset.FieldSwot, "SWOT", 11},
	{dataset.FieldLikelihood, "L", 3},
	{dataset.FieldRelevance, "R", 3},
	{dataset.FieldIntensity, "I", 4},
}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFont    `json:"font"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfLayout struct {
	Paper string             `json:"paper"`
	Pages map[string]pdfPage `json:"pages"`
}

// WritePDF renders records as a paginated text table under title.
func WritePDF(w io.Writer, title string, records []dataset.Record) error {
	layout, err := json.Marshal(buildLayout(title, records, time.Now()))
	if err != nil {
		return fmt.Errorf("encoding PDF layout: %w", err)
	}
	if err := api.Create(nil, bytes.NewReader(layout), w, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("rendering PDF: %w", err)
	}
	return nil
}

func buildLayout(title string, records []dataset.Record, now time.Time) pdfLayout {
	rows := make([]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, tableRow(func(f dataset.Field) string { return r.Get(f) }))
	}
	if len(rows) == 0 {
		rows = append(rows, "No data")
	}

	perPage := rowsPerPage()
	header := tableRow(nil)
	subtitle := fmt.Sprintf("%d records, generated %s", len(records), now.Format("2006-01-02 15:04"))

	layout := pdfLayout{Paper: "A4P", Pages: make(map[string]pdfPage)}
	for page := 0; page*perPage < len(rows); page++ {
		chunk := rows[page*perPage : min((page+1)*perPage, len(rows))]
		y := pageHeight - marginTop

		var text []pdfText
		if page == 0 {
			text = append(text,
				pdfText{Value: title, Pos: [2]float64{marginLeft, y}, Font: pdfFont{"Helvetica-Bold", titleSize}},
				pdfText{Value: subtitle, Pos: [2]float64{marginLeft, y - 1.5*lineHeight}, Font: pdfFont{"Helvetica", bodySize}},
			)
		}
		y -= 3 * lineHeight
		text = append(text, pdfText{Value: header, Pos: [2]float64{marginLeft, y}, Font: pdfFont{"Courier-Bold", bodySize}})
		for _, row := range chunk {
			y -= lineHeight
			text = append(text, pdfText{Value: row, Pos: [2]float64{marginLeft, y}, Font: pdfFont{"Courier", bodySize}})
		}
		layout.Pages[strconv.Itoa(page+1)] = pdfPage{Content: pdfContent{Text: text}}
	}
	return layout
}

// rowsPerPage is how many body rows fit below the title block.
func rowsPerPage() int {
	usable := pageHeight - marginTop - marginBottom - 3*lineHeight
	return int(math.Floor(usable / lineHeight))
}

// tableRow lays out one fixed-width line. A nil get renders the header.
func tableRow(get func(dataset.Field) string) string {
	var b strings.Builder
	for i, c := range pdfColumns {
		val := c.title
		if get != nil {
			val = get(c.field)
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(fit(val, c.width))
	}
	return strings.TrimRight(b.String(), " ")
}

func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "~"
	}
	return s + strings.Repeat(" ", width-len(r))
}
