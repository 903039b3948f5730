package billing

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

// Formato del número de factura: INV-<año>-<consecutivo de 4 dígitos>.
// El consecutivo reinicia cada año calendario y es monótono dentro del año.
var numberPattern = regexp.MustCompile(`^INV-\d{4}-\d{4}$`)

// FormatNumber construye el número de factura para un año y consecutivo dados.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("INV-%d-%04d", year, seq)
}

// ValidNumber indica si un string tiene el formato de número de factura.
func ValidNumber(number string) bool {
	return numberPattern.MatchString(number)
}

// nextNumberInTx obtiene el siguiente número desde el contador atómico por año.
// Debe invocarse dentro de la misma transacción que el insert de la factura:
// el incremento condicional más la constraint de unicidad sobre el número
// eliminan la carrera del patrón leer-luego-escribir.
func nextNumberInTx(ctx context.Context, counterRepo repository.InvoiceCounterRepository, now time.Time) (string, error) {
	year := now.Year()
	seq, err := counterRepo.NextSequence(ctx, year)
	if err != nil {
		return "", fmt.Errorf("consecutivo de factura: %w", err)
	}
	return FormatNumber(year, seq), nil
}
