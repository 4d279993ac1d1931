package checksum

import (
	"strings"
	"testing"
)

func TestCalculateMD5(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "empty",
			data: "",
			want: "d41d8cd98f00b204e9800998ecf8427e",
		},
		{
			name: "quick brown fox",
			data: "The quick brown fox jumps over the lazy dog",
			want: "9e107d9d372bb6826bd81d3542a419d6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateMD5([]byte(tt.data)); got != tt.want {
				t.Errorf("CalculateMD5() = %s, want %s", got, tt.want)
			}

			got, err := CalculateMD5Reader(strings.NewReader(tt.data))
			if err != nil {
				t.Fatalf("CalculateMD5Reader() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CalculateMD5Reader() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")

	if err := Verify(data, "9e107d9d372bb6826bd81d3542a419d6"); err != nil {
		t.Errorf("Verify() with matching checksum error = %v", err)
	}
	if err := Verify(data, ""); err != nil {
		t.Errorf("Verify() with absent checksum error = %v", err)
	}
	if err := Verify(data, "00000000000000000000000000000000"); err == nil {
		t.Error("Verify() with wrong checksum should fail")
	}
}
