package kbs

import (
	"fmt"
	"strings"
)

// Entry is one curated helper function.
type Entry struct {
	Key         string
	Title       string
	Description string
	Category    string
	Subcategory string
	Source      string
	Libraries   []string
	Version     string
}

type Summary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (e Entry) Summary() Summary {
	return Summary{
		Title:       e.Title,
		Description: e.Description,
	}
}

// record is the on-disk form. Both the Portuguese field names of the curation tool and English names are accepted.
type record struct {
	ID          string   `json:"id_funcao,omitempty" jsonschema:"minLength=1"`
	Key         string   `json:"key,omitempty" jsonschema:"minLength=1"`
	Titulo      string   `json:"titulo,omitempty" jsonschema:"minLength=1"`
	Title       string   `json:"title,omitempty" jsonschema:"minLength=1"`
	Descricao   string   `json:"descricao,omitempty"`
	Description string   `json:"description,omitempty"`
	Categoria   string   `json:"categoria,omitempty"`
	Category    string   `json:"category,omitempty"`
	Subcat      string   `json:"subcategoria,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	Codigo      string   `json:"codigo_funcao,omitempty" jsonschema:"minLength=1"`
	Source      string   `json:"source,omitempty" jsonschema:"minLength=1"`
	Bibliotecas []string `json:"bibliotecas,omitempty"`
	Libraries   []string `json:"libraries,omitempty"`
	Versao      string   `json:"versao,omitempty"`
	Version     string   `json:"version,omitempty"`
}

func pick(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (r record) entry() (Entry, error) {
	e := Entry{
		Key:         pick(r.ID, r.Key),
		Title:       pick(r.Titulo, r.Title),
		Description: pick(r.Descricao, r.Description),
		Category:    pick(r.Categoria, r.Category),
		Subcategory: pick(r.Subcat, r.Subcategory),
		Source:      r.Codigo,
		Libraries:   r.Bibliotecas,
		Version:     pick(r.Versao, r.Version),
	}
	if e.Source == "" {
		e.Source = r.Source
	}
	if len(e.Libraries) == 0 {
		e.Libraries = r.Libraries
	}
	if e.Title == "" {
		return e, fmt.Errorf("entry has no title")
	}
	if strings.TrimSpace(e.Source) == "" {
		return e, fmt.Errorf("entry %s has no source", e.Title)
	}
	if e.Key == "" {
		e.Key = Slug(e.Category, e.Title, e.Version)
	}
	return e, nil
}

var categoryReplacer = strings.NewReplacer(
	" ", "_",
	"ç", "c",
	"ã", "a",
)

// Slug builds the readable entry id: category.title.version, with the category lowercased and the version dots replaced.
func Slug(category, title, version string) string {
	return categoryReplacer.Replace(strings.ToLower(category)) +
		"." + title +
		"." + strings.ReplaceAll(version, ".", "_")
}
