package ingest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperjump/jeongbi/internal/models"
)

// SupportedExtensions lists the corpus file types LoadFiles reads.
var SupportedExtensions = []string{".json", ".xlsx"}

// jsonCorpus is the on-disk JSON layout. Dates are strings so that the formats
// accepted by ParseDate can be used.
type jsonCorpus struct {
	Laws []struct {
		Name          string `json:"name"`
		Category      string `json:"category"`
		EffectiveDate string `json:"effective_date"`
		Status        string `json:"status"`
	} `json:"laws"`
	Articles []struct {
		LawName       string `json:"law_name"`
		ArticleNumber string `json:"article_number"`
		Title         string `json:"title"`
		Content       string `json:"content"`
		Section       string `json:"section"`
		LastAmended   string `json:"last_amended"`
	} `json:"articles"`
	Relations []models.Relation `json:"relations"`
}

// LoadFile reads one corpus file, chosen by extension.
func LoadFile(path string) (*Corpus, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var c *Corpus
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		c, err = decodeJSON(content)
	case ".xlsx":
		c, err = decodeExcel(content)
	default:
		return nil, fmt.Errorf("unsupported corpus format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func decodeJSON(content []byte) (*Corpus, error) {
	var raw jsonCorpus
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	c := &Corpus{Relations: raw.Relations}
	for _, l := range raw.Laws {
		eff, err := ParseDate(l.EffectiveDate)
		if err != nil {
			return nil, fmt.Errorf("law %s: %w", l.Name, err)
		}
		c.Laws = append(c.Laws, &models.Law{
			Name: l.Name, Category: l.Category, EffectiveDate: eff, Status: models.LawStatus(l.Status),
		})
	}
	for _, a := range raw.Articles {
		amended, err := ParseDate(a.LastAmended)
		if err != nil {
			return nil, fmt.Errorf("article %s %s: %w", a.LawName, a.ArticleNumber, err)
		}
		c.Articles = append(c.Articles, &models.Article{
			LawName: a.LawName, ArticleNumber: a.ArticleNumber, Title: a.Title,
			Content: a.Content, Section: a.Section, LastAmended: amended,
		})
	}
	return c, nil
}

// LoadFiles loads every path, expanding directories to the supported files they
// contain (sorted, recursively), then merges and normalizes the result.
func LoadFiles(paths ...string) (*Corpus, []string, error) {
	files, err := ExpandPaths(paths...)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no corpus files found in %v", paths)
	}
	corpus := &Corpus{}
	for _, f := range files {
		c, err := LoadFile(f)
		if err != nil {
			return nil, nil, err
		}
		corpus.Merge(c)
	}
	if err := corpus.Normalize(); err != nil {
		return nil, nil, err
	}
	return corpus, files, nil
}

// ExpandPaths resolves files and directories into the list of corpus files.
func ExpandPaths(paths ...string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !Supported(path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// Supported reports whether path has a corpus file extension. Office lock files
// (~$name.xlsx) are ignored.
func Supported(path string) bool {
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
