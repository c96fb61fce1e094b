package worker

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"StockSignal/internal/domain/models"
)

// ParamType is the accepted shape of one worker parameter.
type ParamType string

const (
	TypeSymbol ParamType = "symbol" // ticker such as 8058.T, ^N225, USDJPY=X, BTC-USD
	TypeToken  ParamType = "token"  // period/interval token such as 6mo, 2y, 1d
	TypeInt    ParamType = "int"
	TypeNumber ParamType = "number"
)

// ParamRule names one positional parameter and its type.
type ParamRule struct {
	Name string
	Type ParamType
}

var (
	symbolRe = regexp.MustCompile(`^[A-Za-z0-9.^=_-]{1,32}$`)
	tokenRe  = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)
)

var schemas = map[models.Kind][]ParamRule{
	models.KindSignal: {
		{Name: "symbol", Type: TypeSymbol},
	},
	models.KindOHLC: {
		{Name: "symbol", Type: TypeSymbol},
		{Name: "period", Type: TypeToken},
		{Name: "interval", Type: TypeToken},
	},
	models.KindBacktest: {
		{Name: "symbol", Type: TypeSymbol},
		{Name: "period", Type: TypeToken},
		{Name: "interval", Type: TypeToken},
		{Name: "fast", Type: TypeInt},
		{Name: "slow", Type: TypeInt},
		{Name: "fee_bps", Type: TypeNumber},
	},
}

// Schema returns the ordered parameter rules for kind.
func Schema(kind models.Kind) ([]ParamRule, bool) {
	rules, ok := schemas[kind]
	return rules, ok
}

// ValidSymbol reports whether s is an acceptable ticker.
func ValidSymbol(s string) bool { return symbolRe.MatchString(s) }

// ValidToken reports whether s is an acceptable period or interval token.
func ValidToken(s string) bool { return tokenRe.MatchString(s) }

// Validate checks spec against its kind's schema. It runs before any spawn.
func Validate(spec models.InvocationSpec) error {
	rules, ok := schemas[spec.Kind]
	if !ok {
		return fmt.Errorf("unknown kind %q", spec.Kind)
	}
	if spec.Deadline <= 0 {
		return fmt.Errorf("deadline must be positive")
	}
	if len(spec.Params) != len(rules) {
		return fmt.Errorf("%s expects %d params, got %d", spec.Kind, len(rules), len(spec.Params))
	}
	for i, rule := range rules {
		p := spec.Params[i]
		if p.Name != rule.Name {
			return fmt.Errorf("param %d: expected %s, got %s", i, rule.Name, p.Name)
		}
		if err := checkValue(rule, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(rule ParamRule, v string) error {
	switch rule.Type {
	case TypeSymbol:
		if v == "" {
			return fmt.Errorf("%s required", rule.Name)
		}
		if !ValidSymbol(v) {
			return fmt.Errorf("%s has invalid characters: %q", rule.Name, v)
		}
	case TypeToken:
		if !ValidToken(v) {
			return fmt.Errorf("%s must be a short alphanumeric token: %q", rule.Name, v)
		}
	case TypeInt:
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("%s must be an integer: %q", rule.Name, v)
		}
	case TypeNumber:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%s must be a finite number: %q", rule.Name, v)
		}
	default:
		return fmt.Errorf("%s: unsupported type %s", rule.Name, rule.Type)
	}
	return nil
}
