package glossary

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry represents a glossary term and its generated content persisted in the database.
// Entries are created by the upstream generation pipeline; publishing only ever sets
// the published URL.
type Entry struct {
	gorm.Model
	Term         string `gorm:"size:255;uniqueIndex:idx_entries_term;not null"`
	Title        string `gorm:"size:255"`
	Description  string `gorm:"type:text"`
	Heading      string `gorm:"size:255"`
	Categories   datatypes.JSONSlice[string]
	Takeaways    datatypes.JSONType[Takeaways]
	FAQs         datatypes.JSONSlice[FAQ]
	Slug         string `gorm:"size:255"`
	Content      string `gorm:"type:text"`
	PublishedURL string `gorm:"size:512"`
}

// TableName defines the table name for the Entry model.
func (Entry) TableName() string {
	return "entries"
}

// Takeaways is the structured summary block attached to an entry.
type Takeaways struct {
	Summary            string       `json:"tldr"`
	Definitions        []Definition `json:"definitions"`
	Usage              Usage        `json:"usage"`
	BestPractices      []string     `json:"bestPractices"`
	RecommendedReading []Reading    `json:"recommendedReading"`
	Trivia             string       `json:"didYouKnow"`
}

// IsZero reports whether no takeaways field has been populated.
func (t Takeaways) IsZero() bool {
	return t.Summary == "" &&
		len(t.Definitions) == 0 &&
		t.Usage.Description == "" &&
		len(t.Usage.Tags) == 0 &&
		len(t.BestPractices) == 0 &&
		len(t.RecommendedReading) == 0 &&
		t.Trivia == ""
}

// Definition is one named concept inside the takeaways block.
type Definition struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Usage describes where the term applies in practice.
type Usage struct {
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// Reading is a recommended-reading reference attached to the takeaways block.
type Reading struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// FAQ is one question and answer pair published with an entry.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
