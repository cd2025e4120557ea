package token

import "testing"

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := generateToken()
		if err != nil {
			t.Fatalf("generateToken() error = %v", err)
		}
		if len(tok) != 2*tokenByteLen {
			t.Errorf("generateToken() len = %d, want %d", len(tok), 2*tokenByteLen)
		}
		if _, ok := seen[tok]; ok {
			t.Errorf("generateToken() returned a duplicate: %s", tok)
		}
		seen[tok] = struct{}{}
	}
}
