package stock

import (
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

const dateLayout = "2006-01-02"

// parseDate acepta 2006-01-02 o RFC3339. Una fecha sin hora usada como límite superior
// cubre el día completo.
func parseDate(s string, upper bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q", domain.ErrInvalidInput, s)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
