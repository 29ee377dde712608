package navigator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hwibalyu/geminaverblog/internal/storage"
)

// missingValue fills any field whose strategies all came up empty.
const missingValue = "N/A"

// postListSelector matches one result card on a blog search result page.
const postListSelector = ".area_list_search .list_search_post"

// Strategy is one way to pull a field out of a result card. Attr empty means
// take the element text.
type Strategy struct {
	Selector string
	Attr     string
}

// FieldExtractor tries its strategies in order and keeps the first non-empty
// hit. Naver has shipped several markups for the same field over time, so
// each field carries the variants seen in the wild.
type FieldExtractor struct {
	Name       string
	Strategies []Strategy
}

// Extract resolves the field within one result card.
func (f FieldExtractor) Extract(card *goquery.Selection) string {
	for _, s := range f.Strategies {
		found := card.Find(s.Selector).First()
		if found.Length() == 0 {
			continue
		}
		var v string
		if s.Attr != "" {
			v, _ = found.Attr(s.Attr)
		} else {
			v = found.Text()
		}
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return missingValue
}

var cardFields = []FieldExtractor{
	{Name: "title", Strategies: []Strategy{
		{Selector: ".title_post .title"},
	}},
	{Name: "description", Strategies: []Strategy{
		{Selector: ".text"},
	}},
	{Name: "url", Strategies: []Strategy{
		{Selector: "a.desc_inner", Attr: "href"},
	}},
	{Name: "date", Strategies: []Strategy{
		{Selector: ".date"},
		{Selector: ".sub_info .date"},
		{Selector: ".date_post"},
	}},
}

// Records parses the search result list HTML and returns one record per
// result card, in document order. Cards with missing fields are kept with
// the fields set to "N/A" rather than dropped.
func Records(listHTML string) ([]storage.SearchResultRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listHTML))
	if err != nil {
		return nil, err
	}

	var records []storage.SearchResultRecord
	doc.Find(postListSelector).Each(func(_ int, card *goquery.Selection) {
		rec := storage.SearchResultRecord{}
		for _, f := range cardFields {
			v := f.Extract(card)
			switch f.Name {
			case "title":
				rec.Title = v
			case "description":
				rec.Description = v
			case "url":
				rec.URL = v
			case "date":
				rec.Date = v
			}
		}
		records = append(records, rec)
	})
	return records, nil
}
