package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"krishilink/apperr"
)

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"message":"` + strings.Repeat("a", MaxJSONBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/crops", strings.NewReader(body))

	var dst map[string]interface{}
	err := DecodeJSON(httptest.NewRecorder(), req, &dst)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("want bad_request got=%v", err)
	}
	if msg := apperr.PublicMessage(err); msg != "request body too large" {
		t.Fatalf("message: want=%q got=%q", "request body too large", msg)
	}
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/crops", strings.NewReader(`{"crop_name":"Wheat"}`))
	var dst struct {
		CropName string `json:"crop_name"`
	}
	if err := DecodeJSON(httptest.NewRecorder(), req, &dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dst.CropName != "Wheat" {
		t.Fatalf("crop_name: got=%q", dst.CropName)
	}

	bad := httptest.NewRequest(http.MethodPost, "/crops", strings.NewReader(`{nope`))
	if err := DecodeJSON(httptest.NewRecorder(), bad, &dst); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("malformed: want bad_request got=%v", err)
	}
}
