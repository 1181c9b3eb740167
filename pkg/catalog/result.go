package catalog

import "github.com/nimburion/catalog/pkg/repository/document"

// PageInfo carries the pagination counters of a list response.
type PageInfo struct {
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
	TotalHits   int64 `json:"totalHits"`
}

// QueryResult is the assembled list response.
type QueryResult struct {
	Data       []document.Document    `json:"data"`
	Filtering  map[string]interface{} `json:"filtering"`
	Sorting    SortSummary            `json:"sorting"`
	Bounds     Bounds                 `json:"bounds"`
	Pagination PageInfo               `json:"pagination"`
}

func assemble(docs []document.Document, filters FilterSet, sortSpec SortSpec, bounds Bounds, page Pagination, total int64) *QueryResult {
	if docs == nil {
		docs = []document.Document{}
	}
	return &QueryResult{
		Data:      docs,
		Filtering: filters.Summary(),
		Sorting:   sortSpec.Summary,
		Bounds:    bounds,
		Pagination: PageInfo{
			TotalPages:  page.TotalPages(total),
			CurrentPage: page.Page,
			TotalHits:   total,
		},
	}
}
