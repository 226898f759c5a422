// Package models defines core data structures for laws, articles, queries, and search results.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var articleNumberPattern = regexp.MustCompile(`^제\d+조(의\d+)?$`)

// ValidArticleNumber reports whether n has the form 제N조 or 제N조의M.
func ValidArticleNumber(n string) bool {
	return articleNumberPattern.MatchString(n)
}

// LawStatus is the lifecycle state of a statute.
type LawStatus string

const (
	LawActive     LawStatus = "active"
	LawSuperseded LawStatus = "superseded"
)

// Law is a named statute or ordinance.
type Law struct {
	Name          string    `json:"name" db:"name"`
	Category      string    `json:"category" db:"category"`
	EffectiveDate time.Time `json:"effective_date" db:"effective_date"`
	Status        LawStatus `json:"status" db:"status"`
}

// ArticleKey identifies an article: law name plus article number.
type ArticleKey struct {
	LawName       string `json:"law_name"`
	ArticleNumber string `json:"article_number"`
}

// String renders the key as a citation, e.g. "도시 및 주거환경정비법 제24조".
func (k ArticleKey) String() string {
	return k.LawName + " " + k.ArticleNumber
}

// ID is the stable index identifier for the key.
func (k ArticleKey) ID() string {
	return k.LawName + "|" + k.ArticleNumber
}

// Less orders keys by law name, then article number.
func (k ArticleKey) Less(o ArticleKey) bool {
	if k.LawName != o.LawName {
		return k.LawName < o.LawName
	}
	return k.ArticleNumber < o.ArticleNumber
}

// ParseArticleID is the inverse of ArticleKey.ID.
func ParseArticleID(id string) (ArticleKey, error) {
	law, num, ok := strings.Cut(id, "|")
	if !ok || law == "" || num == "" {
		return ArticleKey{}, fmt.Errorf("malformed article id %q", id)
	}
	return ArticleKey{LawName: law, ArticleNumber: num}, nil
}

// Article is one statute provision. Articles are read-only at query time.
type Article struct {
	LawName       string    `json:"law_name" db:"law_name"`
	ArticleNumber string    `json:"article_number" db:"article_number"`
	Title         string    `json:"title,omitempty" db:"title"`
	Content       string    `json:"content" db:"content"`
	Section       string    `json:"section,omitempty" db:"section"`
	LastAmended   time.Time `json:"last_amended,omitempty" db:"last_amended"`
}

// Key returns the article identity.
func (a *Article) Key() ArticleKey {
	return ArticleKey{LawName: a.LawName, ArticleNumber: a.ArticleNumber}
}

// Validate checks the fields required for an article to be stored.
func (a *Article) Validate() error {
	if strings.TrimSpace(a.LawName) == "" {
		return fmt.Errorf("article %s: law name is required", a.ArticleNumber)
	}
	if !ValidArticleNumber(a.ArticleNumber) {
		return fmt.Errorf("article %q of %s: malformed article number", a.ArticleNumber, a.LawName)
	}
	if strings.TrimSpace(a.Content) == "" {
		return fmt.Errorf("article %s: content is required", a.Key())
	}
	return nil
}

// RelationType names an edge between articles in the law graph.
type RelationType string

const (
	RelReferences RelationType = "REFERENCES"
	RelAppliesTo  RelationType = "APPLIES_TO"
	RelImplements RelationType = "IMPLEMENTS"
	RelAmends     RelationType = "AMENDS"
)

// ValidRelationType reports whether t is one of the article-level relationship types.
func ValidRelationType(t RelationType) bool {
	switch t {
	case RelReferences, RelAppliesTo, RelImplements, RelAmends:
		return true
	}
	return false
}

// Relation is a directed edge between two articles.
type Relation struct {
	From ArticleKey   `json:"from"`
	To   ArticleKey   `json:"to"`
	Type RelationType `json:"type"`
}
