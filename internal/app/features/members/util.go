// internal/app/features/members/util.go
package members

import (
	"sort"
	"strconv"

	"github.com/dalemusser/eventhub/internal/app/system/csvutil"
)

func itoa(n int) string { return strconv.Itoa(n) }

// sortRowErrors orders problems by line, keeping field order within a line.
func sortRowErrors(errs []csvutil.RowError) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Line < errs[j].Line })
}
