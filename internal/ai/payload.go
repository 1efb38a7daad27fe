package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedPayload is returned when a response has no recognizable text.
var ErrUnsupportedPayload = errors.New("unsupported response payload")

// Payload is a provider response reduced to one of three shapes:
// PlainText, ContentList or ProviderObject.
type Payload interface {
	isPayload()
}

// PlainText is a response that is already a string.
type PlainText string

// ContentPart is a text segment followed by nested parts.
type ContentPart struct {
	Text  string
	Parts []ContentPart
}

// ContentList is a sequence of content parts, joined in order.
type ContentList []ContentPart

// ProviderObject is a structured provider response. Output wins over Text,
// Text wins over Content.
type ProviderObject struct {
	Output  ContentList
	Text    *string
	Content ContentList
}

func (PlainText) isPayload()      {}
func (ContentList) isPayload()    {}
func (ProviderObject) isPayload() {}

// ExtractText returns the text carried by p.
func ExtractText(p Payload) (string, error) {
	switch v := p.(type) {
	case PlainText:
		return string(v), nil
	case ContentList:
		return v.text(), nil
	case ProviderObject:
		switch {
		case len(v.Output) > 0:
			return v.Output.text(), nil
		case v.Text != nil:
			return *v.Text, nil
		case len(v.Content) > 0:
			return v.Content.text(), nil
		}
		return "", fmt.Errorf("%w: provider object without output, text or content", ErrUnsupportedPayload)
	case nil:
		return "", fmt.Errorf("%w: nil", ErrUnsupportedPayload)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedPayload, p)
	}
}

func (l ContentList) text() string {
	var b strings.Builder
	for _, part := range l {
		part.write(&b)
	}
	return b.String()
}

func (p ContentPart) write(b *strings.Builder) {
	b.WriteString(p.Text)
	for _, child := range p.Parts {
		child.write(b)
	}
}
