package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		in   string
		id   string
		isOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=30", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/live/dQw4w9WgXcQ?feature=x", "dQw4w9WgXcQ", true},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://cdn.example.com/lectures/1.mp4", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		id, ok := ExtractVideoID(tc.in)
		if id != tc.id || ok != tc.isOK {
			t.Errorf("ExtractVideoID(%q) = %q,%v want %q,%v", tc.in, id, ok, tc.id, tc.isOK)
		}
	}
}

func TestParseTokenClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    "u-1",
		"role":  "teacher",
		"email": "t@example.com",
		"exp":   exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("upstream-secret"))
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseTokenClaims(signed)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "u-1" || claims.Role != "teacher" {
		t.Fatalf("claims %+v", claims)
	}
	if claims.Expired(time.Now()) {
		t.Fatal("should not be expired")
	}
	if !claims.Expired(exp.Add(time.Second)) {
		t.Fatal("should be expired after exp")
	}
}

func TestParseTokenClaimsNumericID(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 42})
	signed, _ := tok.SignedString([]byte("k"))
	claims, err := ParseTokenClaims(signed)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "42" {
		t.Fatalf("user id = %q", claims.UserID)
	}
	if claims.Expired(time.Now()) {
		t.Fatal("token without exp never expires")
	}
}

func TestParseTokenClaimsRejectsGarbage(t *testing.T) {
	if _, err := ParseTokenClaims("not-a-token"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseProbeDuration(t *testing.T) {
	d, err := parseProbeDuration(`{"format":{"duration":"125.40"}}`)
	if err != nil || d != 125.4 {
		t.Fatalf("got %v, %v", d, err)
	}
	d, err = parseProbeDuration(`{"streams":[{"codec_type":"audio","duration":"9"},{"codec_type":"video","duration":"61.5"}],"format":{}}`)
	if err != nil || d != 61.5 {
		t.Fatalf("fallback got %v, %v", d, err)
	}
	if _, err := parseProbeDuration(`{"format":{}}`); err == nil {
		t.Fatal("expected error without duration")
	}
}

func TestValidationError(t *testing.T) {
	err := Invalid("subjects", "select at least %d", 1)
	if !IsValidation(err) {
		t.Fatal("not a validation error")
	}
	if err.Error() != "subjects: select at least 1" {
		t.Fatalf("message %q", err.Error())
	}
}
