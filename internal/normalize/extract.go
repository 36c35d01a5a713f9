package normalize

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// The county site is a server-rendered Drupal install. The markup is messy
// but stable: values carry data-testid attributes, charts expose their
// series as data-label/data-value pairs, and tables are plain tr/td. The
// helpers below pull those out; anything fancier than this is out of scope.

var tagRx = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRx.ReplaceAllString(s, "")))
}

func testidValue(payload []byte, testid string) (string, bool) {
	rx := regexp.MustCompile(`data-testid="` + regexp.QuoteMeta(testid) + `"[^>]*>([^<]*)<`)
	match := rx.FindSubmatch(payload)
	if match == nil {
		return "", false
	}
	value := strings.TrimSpace(html.UnescapeString(string(match[1])))
	return value, value != ""
}

// chartSeries extracts data-label/data-value pairs from the element tagged
// with the given testid.
func chartSeries(payload []byte, testid string) (map[string]int, error) {
	containerRx := regexp.MustCompile(`(?s)data-testid="` + regexp.QuoteMeta(testid) + `".*?(<[^>]*data-label=.*?)</(?:div|ul|section)>`)
	container := containerRx.FindSubmatch(payload)
	if container == nil {
		return nil, fmt.Errorf("chart %q not found", testid)
	}

	pairRx := regexp.MustCompile(`data-label="([^"]+)"[^>]*data-value="([^"]+)"`)
	series := map[string]int{}
	for _, pair := range pairRx.FindAllSubmatch(container[1], -1) {
		label := strings.TrimSpace(html.UnescapeString(string(pair[1])))
		value, err := parseInt(string(pair[2]))
		if err != nil {
			return nil, fmt.Errorf("chart %q: %w", testid, err)
		}
		series[label] = value
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("chart %q has no data points", testid)
	}
	return series, nil
}

var tableRx = regexp.MustCompile(`(?s)<table([^>]*)>(.*?)</table>`)
var rowRx = regexp.MustCompile(`(?s)<tr[^>]*>(.*?)</tr>`)
var cellRx = regexp.MustCompile(`(?s)<t[dh][^>]*>(.*?)</t[dh]>`)

type htmlTable struct {
	attrs string
	rows  [][]string
}

func extractTables(payload []byte) []htmlTable {
	var tables []htmlTable
	for _, tableMatch := range tableRx.FindAllSubmatch(payload, -1) {
		table := htmlTable{attrs: string(tableMatch[1])}
		for _, rowMatch := range rowRx.FindAllSubmatch(tableMatch[2], -1) {
			var cells []string
			for _, cellMatch := range cellRx.FindAllSubmatch(rowMatch[1], -1) {
				cells = append(cells, stripTags(string(cellMatch[1])))
			}
			if len(cells) > 0 {
				table.rows = append(table.rows, cells)
			}
		}
		tables = append(tables, table)
	}
	return tables
}

func attrValue(attrs, name string) (string, bool) {
	rx := regexp.MustCompile(regexp.QuoteMeta(name) + `="([^"]*)"`)
	match := rx.FindStringSubmatch(attrs)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// parseInt handles "4,939" style human formatting.
func parseInt(s string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return n, nil
}

// parseMillions handles "$305.3M" / "$52.6 million" style funding figures.
func parseMillions(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimSuffix(cleaned, "M")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "million")
	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), ",", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a funding figure: %q", s)
	}
	return value, nil
}

// parseDollars handles "$123,450" table cells; "-", "n/a" and empty cells
// mean the band is not published.
func parseDollars(s string) (*float64, error) {
	cleaned := strings.TrimSpace(s)
	switch strings.ToLower(cleaned) {
	case "", "-", "–", "n/a":
		return nil, nil
	}
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("not a dollar amount: %q", s)
	}
	return &value, nil
}
