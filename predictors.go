package szgo

import (
	"fmt"

	"github.com/hupe1980/szgo/ndarray"
	"github.com/hupe1980/szgo/predictor"
)

// PredictorKind identifies a candidate predictor. The value is persisted.
type PredictorKind uint8

const (
	// PredictorLorenzo predicts from the already reconstructed neighbours.
	PredictorLorenzo PredictorKind = 1
	// PredictorRegression predicts from a per-block linear model.
	PredictorRegression PredictorKind = 2
)

// String returns the name of the kind.
func (k PredictorKind) String() string {
	switch k {
	case PredictorLorenzo:
		return "lorenzo"
	case PredictorRegression:
		return "regression"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

func newPredictor[T ndarray.Float](kind PredictorKind, rank int) (predictor.Predictor[T], error) {
	switch kind {
	case PredictorLorenzo:
		return predictor.Wrap[T](predictor.NewLorenzo[T](rank)), nil
	case PredictorRegression:
		return predictor.Wrap[T](predictor.NewRegression[T](rank)), nil
	default:
		return nil, &ErrUnknownPredictor{Kind: kind}
	}
}

func newPredictors[T ndarray.Float](kinds []PredictorKind, rank int) ([]predictor.Predictor[T], error) {
	preds := make([]predictor.Predictor[T], 0, len(kinds))
	for _, k := range kinds {
		p, err := newPredictor[T](k, rank)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}
