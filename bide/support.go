package bide

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

// Tolerance used when turning a ratio into a sequence count, so that
// 0.3 * 10 resolves to 3 and not 4.
const ratioEpsilon = 1e-9

// MinSupport is a minimum support given either as an absolute number of
// sequences or as a fraction of the database size.
type MinSupport struct {
	Count    int
	Ratio    float64
	Relative bool
}

func AbsoluteSupport(count int) MinSupport {
	return MinSupport{Count: count}
}

func RelativeSupport(ratio float64) MinSupport {
	return MinSupport{Ratio: ratio, Relative: true}
}

func (m MinSupport) String() string {
	if m.Relative {
		return fmt.Sprintf("%g", m.Ratio)
	}
	return fmt.Sprintf("%d", m.Count)
}

// Resolve converts the threshold to an absolute sequence count for a database
// of numSequences. It is done once, at the root; the search only compares
// integers. A threshold below one sequence is clamped to 1.
func (m MinSupport) Resolve(numSequences int) (int, error) {
	var support int
	if m.Relative {
		if math.IsNaN(m.Ratio) || m.Ratio < 0 || m.Ratio > 1 {
			return 0, fmt.Errorf("relative min support %v outside [0,1]", m.Ratio)
		}
		support = int(math.Ceil(m.Ratio*float64(numSequences) - ratioEpsilon))
	} else {
		if m.Count < 0 {
			return 0, fmt.Errorf("absolute min support %d is negative", m.Count)
		}
		support = m.Count
	}
	log.Debugf("num of sequences:%d min_support:%s absolute support:%d", numSequences, m.String(), support)
	if support < 1 {
		log.WithFields(log.Fields{"min_support": m.String(), "resolved": support}).
			Warn("Min support resolves below one sequence. Clamping to 1.")
		support = 1
	}
	return support, nil
}
