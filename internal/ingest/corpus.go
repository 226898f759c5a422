// Package ingest loads statute corpora from structured files into the article
// catalog, the local law graph and the vector index.
package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/jeongbi/internal/answer"
	"github.com/hyperjump/jeongbi/internal/models"
)

// Corpus is a set of laws, their articles and the relations between articles.
type Corpus struct {
	Laws      []*models.Law
	Articles  []*models.Article
	Relations []models.Relation
}

// Merge appends other to c.
func (c *Corpus) Merge(other *Corpus) {
	c.Laws = append(c.Laws, other.Laws...)
	c.Articles = append(c.Articles, other.Articles...)
	c.Relations = append(c.Relations, other.Relations...)
}

// Normalize cleans article text, adds laws referenced only by articles, and drops
// duplicate laws and relations. Duplicate articles are an error.
func (c *Corpus) Normalize() error {
	laws := make(map[string]*models.Law, len(c.Laws))
	var lawOrder []string
	for _, l := range c.Laws {
		l.Name = strings.TrimSpace(l.Name)
		if l.Name == "" {
			return errors.New("law with empty name")
		}
		if l.Status == "" {
			l.Status = models.LawActive
		}
		if _, ok := laws[l.Name]; !ok {
			lawOrder = append(lawOrder, l.Name)
		}
		laws[l.Name] = l
	}

	var errs []error
	seen := make(map[models.ArticleKey]bool, len(c.Articles))
	for _, a := range c.Articles {
		a.LawName = strings.TrimSpace(a.LawName)
		a.ArticleNumber = strings.ReplaceAll(strings.TrimSpace(a.ArticleNumber), " ", "")
		a.Title = strings.TrimSpace(a.Title)
		a.Section = strings.TrimSpace(a.Section)
		a.Content = Preprocess(a.Content)
		if err := a.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[a.Key()] {
			errs = append(errs, fmt.Errorf("duplicate article %s", a.Key()))
			continue
		}
		seen[a.Key()] = true
		if _, ok := laws[a.LawName]; !ok {
			laws[a.LawName] = &models.Law{Name: a.LawName, Status: models.LawActive}
			lawOrder = append(lawOrder, a.LawName)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.Laws = c.Laws[:0]
	for _, name := range lawOrder {
		c.Laws = append(c.Laws, laws[name])
	}

	relSeen := make(map[models.Relation]bool, len(c.Relations))
	rels := c.Relations[:0]
	for _, r := range c.Relations {
		if !models.ValidRelationType(r.Type) {
			return fmt.Errorf("relation %s -> %s: unknown type %q", r.From, r.To, r.Type)
		}
		if relSeen[r] {
			continue
		}
		relSeen[r] = true
		rels = append(rels, r)
	}
	c.Relations = rels
	return nil
}

// DeriveReferences adds a REFERENCES relation for every article number cited in an
// article's content that names another article of the same law in the corpus.
// It returns the number of relations added.
func (c *Corpus) DeriveReferences() int {
	known := make(map[models.ArticleKey]bool, len(c.Articles))
	for _, a := range c.Articles {
		known[a.Key()] = true
	}
	existing := make(map[models.Relation]bool, len(c.Relations))
	for _, r := range c.Relations {
		existing[r] = true
	}
	added := 0
	for _, a := range c.Articles {
		for _, n := range answer.CrossReferences(a.Content) {
			to := models.ArticleKey{LawName: a.LawName, ArticleNumber: n}
			if to == a.Key() || !known[to] {
				continue
			}
			r := models.Relation{From: a.Key(), To: to, Type: models.RelReferences}
			if existing[r] {
				continue
			}
			existing[r] = true
			c.Relations = append(c.Relations, r)
			added++
		}
	}
	return added
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006.01.02", "2006.1.2", "20060102", "2006/01/02"}

// ParseDate parses the date formats found in statute listings. Empty input is the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
