package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"path/filepath"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
	chart "github.com/wcharczuk/go-chart/v2"
)

func dataURI(png []byte) template.URL {
	encoded := base64.StdEncoding.EncodeToString(png)
	return template.URL("data:image/png;base64," + encoded)
}

// pieChart renders the combined engagement split. An all-zero total would
// make the chart library fail, so it yields an empty URI instead.
func pieChart(totals Totals) (template.URL, error) {
	sum := totals.Likes + totals.Shares + totals.Views + totals.Comments
	if sum == 0 {
		return "", nil
	}
	pie := chart.PieChart{
		Width:  512,
		Height: 512,
		Values: []chart.Value{
			{Value: float64(totals.Likes), Label: "Likes"},
			{Value: float64(totals.Shares), Label: "Partages"},
			{Value: float64(totals.Views), Label: "Vues"},
			{Value: float64(totals.Comments), Label: "Commentaires"},
		},
	}
	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return "", err
	}
	return dataURI(buf.Bytes()), nil
}

// Renderer turns report data into HTML, and optionally into PDF through
// the wkhtmltopdf binary.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer(templateDir string) (*Renderer, error) {
	tmpl, err := template.ParseGlob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("load report templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) HTML(w io.Writer, data *Data) error {
	return r.tmpl.ExecuteTemplate(w, "report.html", data)
}

func (r *Renderer) PDF(data *Data) ([]byte, error) {
	var html bytes.Buffer
	if err := r.HTML(&html, data); err != nil {
		return nil, err
	}
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("init pdf generator: %w", err)
	}
	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)
	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdfg.Bytes(), nil
}
