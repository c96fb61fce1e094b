package worker

import "StockSignal/internal/domain/models"

// Built-in worker programs, run as `python -c <program> <params...>`. The text
// is fixed per kind; parameters only ever arrive through sys.argv.
const (
	signalProgram = `import json, sys
from model.predict import predict_signal
print(json.dumps(predict_signal(sys.argv[1]), ensure_ascii=False))`

	ohlcProgram = `import json, sys
from model.ohlc import fetch_ohlc
print(json.dumps(fetch_ohlc(sys.argv[1], period=sys.argv[2], interval=sys.argv[3]), ensure_ascii=False))`

	backtestProgram = `import json, sys
from model.backtest import backtest_ma_cross
print(json.dumps(backtest_ma_cross(sys.argv[1], period=sys.argv[2], interval=sys.argv[3], fast=int(sys.argv[4]), slow=int(sys.argv[5]), fee_bps=float(sys.argv[6])), ensure_ascii=False))`
)

// DefaultPrograms returns the built-in program text per kind.
func DefaultPrograms() map[models.Kind]string {
	return map[models.Kind]string{
		models.KindSignal:   signalProgram,
		models.KindOHLC:     ohlcProgram,
		models.KindBacktest: backtestProgram,
	}
}
