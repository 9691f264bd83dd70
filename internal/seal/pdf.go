package seal

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFStamper stamps the first page of a PDF with the seal text in the bottom
// left corner. Position, font, and color are fixed so a given input always
// renders the same stamp.
type PDFStamper struct {
	conf *model.Configuration
}

func NewPDFStamper() *PDFStamper {
	return &PDFStamper{conf: model.NewDefaultConfiguration()}
}

func (s *PDFStamper) Stamp(original []byte, info StampInfo) ([]byte, error) {
	text := fmt.Sprintf("%s by %s on %s",
		StampText, info.SignerEmail, info.SignedAt.UTC().Format(time.RFC3339))

	desc := "font:Helvetica, points:9, pos:bl, off:24 24, fillc:#1a1a1a, rot:0, scale:1 abs, op:1"
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build seal stamp: %w", err)
	}

	var sealed bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(original), &sealed, []string{"1"}, wm, s.conf); err != nil {
		return nil, fmt.Errorf("apply seal stamp: %w", err)
	}
	return sealed.Bytes(), nil
}
