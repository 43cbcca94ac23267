package query

import (
	"sort"
	"strings"

	"github.com/studentorg/dashsync/internal/models"
)

// SortRecords orders recs in place by a single field. A "-" prefix sorts
// descending; an empty spec leaves the order untouched. Values are compared
// by kind: numbers numerically, everything else by string form. Records
// missing the field sort first ascending (last descending), and the sort is
// stable so equal keys keep their relative order.
func SortRecords(recs []models.Record, spec string) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return
	}

	desc := strings.HasPrefix(spec, "-")
	field := strings.TrimPrefix(spec, "-")

	sort.SliceStable(recs, func(i, j int) bool {
		if desc {
			return lessValue(recs[j][field], recs[i][field])
		}
		return lessValue(recs[i][field], recs[j][field])
	})
}

func lessValue(a, b any) bool {
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		return af < bf
	}

	as, aOK := a.(string)
	bs, bOK := b.(string)
	if aOK && bOK {
		return as < bs
	}

	// missing or mixed-kind values: nil sorts before everything
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return stringify(a) < stringify(b)
}
