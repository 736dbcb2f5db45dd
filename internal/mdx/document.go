package mdx

import (
	"bytes"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Document carries everything needed to render one publishable MDX file.
type Document struct {
	Title       string
	Description string
	Heading     string
	Term        string
	Categories  []string
	Takeaways   Takeaways
	FAQs        []FAQ
	UpdatedAt   time.Time
	Slug        string
	Body        string
}

// Takeaways mirrors the structured summary block in the frontmatter.
type Takeaways struct {
	Summary            string       `yaml:"tldr"`
	Definitions        []Definition `yaml:"definitions"`
	Usage              Usage        `yaml:"usage"`
	BestPractices      []string     `yaml:"bestPractices"`
	RecommendedReading []Reading    `yaml:"recommendedReading"`
	Trivia             string       `yaml:"didYouKnow"`
}

// Definition is one named concept inside the takeaways block.
type Definition struct {
	Term       string `yaml:"term"`
	Definition string `yaml:"definition"`
}

// Usage describes where the term applies in practice.
type Usage struct {
	Tags        []string `yaml:"tags"`
	Description string   `yaml:"description"`
}

// Reading is a recommended-reading reference.
type Reading struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// FAQ is one question and answer pair.
type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// frontmatter fixes the serialized field order; yaml encodes struct fields in
// declaration order, which is the order the documentation site expects.
type frontmatter struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Heading     string    `yaml:"h1"`
	Term        string    `yaml:"term"`
	Categories  []string  `yaml:"categories"`
	Takeaways   Takeaways `yaml:"takeaways"`
	FAQs        []FAQ     `yaml:"faqs"`
	UpdatedAt   time.Time `yaml:"updatedAt"`
	Slug        string    `yaml:"slug"`
}

// Render serializes the document into YAML frontmatter followed by the raw body.
func Render(doc Document) ([]byte, error) {
	header := frontmatter{
		Title:       doc.Title,
		Description: doc.Description,
		Heading:     doc.Heading,
		Term:        doc.Term,
		Categories:  doc.Categories,
		Takeaways:   doc.Takeaways,
		FAQs:        doc.FAQs,
		UpdatedAt:   doc.UpdatedAt,
		Slug:        doc.Slug,
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(header); err != nil {
		return nil, eris.Wrapf(err, "encoding frontmatter for slug %s", doc.Slug)
	}
	if err := encoder.Close(); err != nil {
		return nil, eris.Wrapf(err, "finalising frontmatter for slug %s", doc.Slug)
	}

	buf.WriteString("---\n\n")
	buf.WriteString(doc.Body)
	if !strings.HasSuffix(doc.Body, "\n") {
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}
