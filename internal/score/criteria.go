package score

import "strings"

// Item is one scored checklist entry within a CSMS element.
type Item struct {
	Code   string
	Factor float64
}

// Element is one of the eight CSMS elements.
type Element struct {
	Name  string
	Items []Item
}

// Criteria is the CSMS element-weighted scoring template. Each element's
// factors sum to 1, so a full score of 10 on every item rates 80.
var Criteria = []Element{
	{"ELEMEN 1 – KEPEMIMPINAN DAN KOMITMEN", items(1, "1.1")},
	{"ELEMEN 2 – TUJUAN KEBIJAKAN HSSE DAN STRATEGI", items(2, "2.1", "2.2")},
	{"ELEMEN 3 – ORGANISASI, TANGGUNG JAWAB, SUMBER DAYA, STANDAR DAN DOKUMENTASI", items(6, "3.1", "3.2", "3.3", "3.4", "3.5", "3.6")},
	{"ELEMEN 4 – MANAJEMEN RISIKO", items(8, "4.1", "4.2", "4.3", "4.4", "4.5", "4.6", "4.7", "4.8")},
	{"ELEMEN 5 – PERENCANAAN DAN PROSEDUR", items(4, "5.1", "5.2", "5.3", "5.4")},
	{"ELEMEN 6 – IMPLEMENTASI DAN PEMANTAUAN KINERJA", items(5, "6.1", "6.2", "6.3", "6.4", "6.5")},
	{"ELEMEN 7 AUDIT DAN TINJAUAN", items(2, "7.1", "7.2")},
	{"ELEMEN 8 – MANAJEMEN K3LL – PENCAPAIAN LAINNYA", items(2, "8.1", "8.2")},
}

func items(n int, codes ...string) []Item {
	out := make([]Item, len(codes))
	for i, c := range codes {
		out[i] = Item{Code: c, Factor: 1 / float64(n)}
	}
	return out
}

// Bucket maps a task score to its rating column: A (0), B (3), C (6), D (10).
func Bucket(score int) string {
	switch score {
	case 0:
		return "A"
	case 3:
		return "B"
	case 6:
		return "C"
	case 10:
		return "D"
	}
	return ""
}

// ItemRating is one rated item.
type ItemRating struct {
	Code     string  `json:"code"`
	Title    string  `json:"title"`
	Score    int     `json:"score"`
	Bucket   string  `json:"bucket"`
	Factor   float64 `json:"factor"`
	Weighted float64 `json:"weighted"`
}

// ElementScore is one element with its subtotal.
type ElementScore struct {
	Name     string       `json:"name"`
	Items    []ItemRating `json:"items"`
	Subtotal float64      `json:"subtotal"`
}

// Short returns the element label before the first dash, e.g. "ELEMEN 4".
func (e ElementScore) Short() string {
	if i := strings.Index(e.Name, "–"); i >= 0 {
		return strings.TrimSpace(e.Name[:i])
	}
	return e.Name
}

// Rating is the full element-weighted rating of one project.
type Rating struct {
	Elements []ElementScore `json:"elements"`
	Total    float64        `json:"total"`
}

// ElementRating rates tasks against Criteria, matching on trimmed task code.
// An item with no matching task scores 0.
func ElementRating(tasks []Scored) Rating {
	byCode := make(map[string]Scored, len(tasks))
	for _, t := range tasks {
		code := strings.TrimSpace(t.Code)
		if _, dup := byCode[code]; !dup {
			byCode[code] = t
		}
	}
	var r Rating
	for _, el := range Criteria {
		es := ElementScore{Name: el.Name}
		for _, it := range el.Items {
			t := byCode[it.Code]
			w := float64(t.Score) * it.Factor
			es.Items = append(es.Items, ItemRating{
				Code:     it.Code,
				Title:    t.Title,
				Score:    t.Score,
				Bucket:   Bucket(t.Score),
				Factor:   round(it.Factor, 3),
				Weighted: round(w, 2),
			})
			es.Subtotal += w
		}
		r.Total += es.Subtotal
		es.Subtotal = round(es.Subtotal, 2)
		r.Elements = append(r.Elements, es)
	}
	r.Total = round(r.Total, 2)
	return r
}
