//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseIdentity checks that parsing never panics and that accepted
// input always round-trips through String.
func FuzzParseIdentity(f *testing.F) {
	f.Add("")
	f.Add("11111111111111111111111111111111")
	f.Add("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	f.Add("not base58 0OIl")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseIdentity(input)
		if err != nil {
			return
		}
		if id.IsZero() {
			t.Error("zero identity accepted")
		}
		again, err := ParseIdentity(id.String())
		if err != nil {
			t.Errorf("round-trip failed: %v", err)
		}
		if again != id {
			t.Error("round-trip changed identity")
		}
	})
}

// FuzzParseDigest checks that parsing never panics.
func FuzzParseDigest(f *testing.F) {
	f.Add("")
	f.Add("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	f.Add("bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku")

	f.Fuzz(func(t *testing.T, input string) {
		d, err := ParseDigest(input)
		if err != nil {
			return
		}
		again, err := ParseDigest(d.String())
		if err != nil || again != d {
			t.Error("accepted digest failed hex round-trip")
		}
	})
}
