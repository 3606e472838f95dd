package model

// Headers is the fixed column layout of the review store. The mapper fills
// these keys and the row stores write them in this order.
var Headers = []string{
	"Product",
	"Brand",
	"Rating",
	"Comment",
	"Category",
	"Recommended",
	"Code",
}

// Row is one mapped output record keyed by canonical column name. Missing
// columns are represented as empty strings, never absent keys.
type Row map[string]string
