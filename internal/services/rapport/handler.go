// Package rapport implements the reporting service: one HTML (or PDF) page
// aggregating engagement statistics, a chart and a word cloud for a keyword.
package rapport

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/report"
)

type Handler struct {
	builder  *report.Builder
	renderer *report.Renderer
	log      *zap.SugaredLogger
}

func NewHandler(builder *report.Builder, renderer *report.Renderer, log *zap.SugaredLogger) *Handler {
	return &Handler{builder: builder, renderer: renderer, log: log}
}

func (h *Handler) Register(app *fiber.App) {
	group := app.Group("/api/rapport")
	group.Get("/@ping", h.ping)
	group.Get("/:keyword", h.generate)
}

func (h *Handler) ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "pong !"})
}

// generate renders the report as HTML, or as a PDF attachment when the
// request carries ?format=pdf.
func (h *Handler) generate(c *fiber.Ctx) error {
	keyword := c.Params("keyword")
	data, err := h.builder.Build(c.Context(), keyword)
	if err != nil {
		return err
	}

	if c.Query("format") == "pdf" {
		pdf, err := h.renderer.PDF(data)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="rapport-`+keyword+`.pdf"`)
		return c.Send(pdf)
	}

	var html bytes.Buffer
	if err := h.renderer.HTML(&html, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(html.Bytes())
}
