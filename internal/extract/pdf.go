package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts the text layer of a PDF, page by page in reading order.
// Zero value is ready to use.
type PDFExtractor struct{}

// ExtractText returns the concatenated text of every page.
// The underlying parser panics on some malformed inputs; those are reported as ErrUnreadableDocument.
func (PDFExtractor) ExtractText(ctx context.Context, doc []byte) (text string, err error) {
	if len(doc) == 0 {
		return "", ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrUnreadableDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	return buf.String(), nil
}

var _ TextExtractor = PDFExtractor{}
