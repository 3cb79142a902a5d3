package dataset

import (
	"encoding/json"
	"strings"
)

// RawRecord is a loosely-typed row as found in the arXiv metadata dump.
// Field shapes vary across dump versions; notably `categories` appears both
// as a space-separated string and as a list of tags.
type RawRecord struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Abstract   string       `json:"abstract"`
	Authors    string       `json:"authors"`
	Categories categoryList `json:"categories"`
	UpdateDate string       `json:"update_date"`
}

// categoryList accepts either a JSON array of strings or a single
// space-separated string.
type categoryList []string

func (c *categoryList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = categoryList(strings.Fields(s))
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*c = categoryList(list)
	return nil
}
