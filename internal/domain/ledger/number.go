package ledger

import "fmt"

// Prefijos de numeración de documentos.
const (
	PrefixAdjustment     = "ADJ"
	PrefixReconciliation = "REC"
)

// DocumentNumber formatea PREFIX-YYYY-NNNNN (secuencia con 5 dígitos, reinicia cada año).
func DocumentNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq)
}
