package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteAndReadAndClear(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, Notice{Kind: "SUCCESS", Message: " Thanks "}, false)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected flash cookie, got %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	out := httptest.NewRecorder()

	n, ok := ReadAndClear(out, req)
	if !ok || n.Kind != KindSuccess || n.Message != "Thanks" {
		t.Errorf("Unexpected notice %+v (%v)", n, ok)
	}
	cleared := out.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("Expected expired cookie, got %+v", cleared)
	}
}

func TestWrite_RejectsInvalid(t *testing.T) {
	tests := []Notice{
		{Kind: KindSuccess},
		{Kind: "shout", Message: "x"},
	}
	for _, n := range tests {
		rec := httptest.NewRecorder()
		Write(rec, n, false)
		if len(rec.Result().Cookies()) != 0 {
			t.Errorf("Expected no cookie for %+v", n)
		}
	}
}

func TestDecode_Garbage(t *testing.T) {
	for _, raw := range []string{"", "!!!", "bm90LWpzb24"} {
		if _, ok := decode(raw); ok {
			t.Errorf("Expected decode failure for %q", raw)
		}
	}
}
