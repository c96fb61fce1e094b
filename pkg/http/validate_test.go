package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type sampleRequest struct {
	Name  string  `param:"name" validate:"required,lowerword"`
	Count int     `query:"count" default:"3" validate:"gte=1,lte=10"`
	Ratio float64 `query:"ratio" default:"0.5" validate:"gte=0"`
}

func init() {
	if err := RegisterStringValidation("lowerword", func(s string) bool { return strings.ToLower(s) == s }); err != nil {
		panic(err)
	}
}

func bindSample(t *testing.T, name, query string) (sampleRequest, []ValidationError) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/sample/"+name+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/sample/:name")
	c.SetParamNames("name")
	c.SetParamValues(name)

	var r sampleRequest
	errs := ReadAndValidateRequest(c, &r)
	return r, errs
}

func TestReadAndValidateAppliesDefaults(t *testing.T) {
	r, errs := bindSample(t, "abc", "")
	if errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if r.Count != 3 || r.Ratio != 0.5 {
		t.Fatalf("defaults not applied: %+v", r)
	}
}

func TestReadAndValidateKeepsExplicitZero(t *testing.T) {
	r, errs := bindSample(t, "abc", "?ratio=0&count=7")
	if errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if r.Ratio != 0 || r.Count != 7 {
		t.Fatalf("explicit values lost: %+v", r)
	}
}

func TestReadAndValidateRejects(t *testing.T) {
	cases := map[string]struct {
		name, query, code string
	}{
		"custom tag":  {"ABC", "", "ERR_LOWERWORD"},
		"range":       {"abc", "?count=11", "ERR_LTE"},
		"non numeric": {"abc", "?count=five", "ERR_BIND"},
		"bad float":   {"abc", "?ratio=x", "ERR_BIND"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, errs := bindSample(t, tc.name, tc.query)
			if len(errs) == 0 {
				t.Fatalf("expected validation errors")
			}
			if errs[0].Code != tc.code {
				t.Fatalf("expected %s, got %+v", tc.code, errs)
			}
			if Summary(errs) == "" {
				t.Fatalf("summary should not be empty")
			}
		})
	}
}
