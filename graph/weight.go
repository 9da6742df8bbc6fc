package graph

import (
	"math"
	"strconv"

	"github.com/ishine/athena-decoder/fst"
)

// convertWeight turns an ARPA log10 probability (or back-off) field
// into a tropical cost: w = -ln(10) * log10(p). The conventional "0.0"
// of a missing back-off maps to weight 0, probability 1.
func convertWeight(field string) (fst.Weight, error) {
	f, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, err
	}
	return fst.Weight(-math.Ln10 * f), nil
}
