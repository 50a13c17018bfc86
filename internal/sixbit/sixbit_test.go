package sixbit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDecodeUint(t *testing.T) {
	// '1' -> sextet 1 -> 000001, so the first six bits read back as 1.
	s := Decode("1")
	if got := s.Uint(0, 6); got != 1 {
		t.Errorf("Uint(0, 6) = %d, want 1", got)
	}
	if s.Len() != 6 {
		t.Errorf("Len() = %d, want 6", s.Len())
	}

	// 'w' is the top of the armor range: 119-48=71 > 40 -> 63 -> 111111.
	s = Decode("w")
	if got := s.Uint(0, 6); got != 63 {
		t.Errorf("Uint(0, 6) = %d, want 63", got)
	}

	// 'W' (0x57) is the top of the low armor range: 87-48=39.
	s = Decode("W")
	if got := s.Uint(0, 6); got != 39 {
		t.Errorf("Uint(0, 6) = %d, want 39", got)
	}

	// '`' (0x60) starts the high range: 96-48=48 > 40 -> 40.
	s = Decode("`")
	if got := s.Uint(0, 6); got != 40 {
		t.Errorf("Uint(0, 6) = %d, want 40", got)
	}
}

func TestUintCrossesCharacterBoundary(t *testing.T) {
	// Sextets 1, 3: bits 000001 000011. Bits [4,10) span both characters.
	s := Decode(Armor([]byte{1, 3}))
	if got := s.Uint(4, 6); got != 0b010000 {
		t.Errorf("Uint(4, 6) = %#b, want 0b010000", got)
	}
}

func TestUintZeroPadPastEnd(t *testing.T) {
	s := Decode("w") // 111111
	// Reading 12 bits from a 6-bit stream pads with zeros on the right.
	if got := s.Uint(0, 12); got != 0b111111000000 {
		t.Errorf("Uint(0, 12) = %#b, want 0b111111000000", got)
	}
	// Entirely past the end.
	if got := s.Uint(100, 10); got != 0 {
		t.Errorf("Uint(100, 10) = %d, want 0", got)
	}
}

func TestEmptyPayload(t *testing.T) {
	s := Decode("")
	if got := s.Uint(0, 6); got != 0 {
		t.Errorf("Uint on empty stream = %d, want 0", got)
	}
	if got := s.Text(0, 120); got != "" {
		t.Errorf("Text on empty stream = %q, want empty", got)
	}
}

func TestIntSignExtension(t *testing.T) {
	// Bit pattern 100...0 of width w must read as -2^(w-1).
	// Sextets 32, 0, 0, 0: bits 100000 000000 000000 000000.
	s := Decode(Armor([]byte{32, 0, 0, 0}))
	for _, w := range []int{2, 8, 17, 24} {
		want := -(int64(1) << (w - 1))
		if got := s.Int(0, w); got != want {
			t.Errorf("Int(0, %d) = %d, want %d", w, got, want)
		}
	}
	// A clear sign bit reads as a non-negative value (here zero).
	if got := s.Int(1, 5); got != 0 {
		t.Errorf("Int(1, 5) = %d, want 0", got)
	}
}

func TestIntNegativeValue(t *testing.T) {
	// All ones of width 10 is -1.
	s := Decode("ww")
	if got := s.Int(0, 10); got != -1 {
		t.Errorf("Int(0, 10) = %d, want -1", got)
	}
}

func TestText(t *testing.T) {
	// Sextet values 1..26 are 'A'..'Z', 48..57 are '0'..'9', 0 is '@' padding.
	s := Decode(Armor([]byte{3, 1, 20, 0, 0}))
	if got := s.Text(0, 30); got != "CAT" {
		t.Errorf("Text = %q, want %q", got, "CAT")
	}

	// Trailing spaces (value 32) strip too, embedded spaces stay.
	s = Decode(Armor([]byte{19, 48, 32, 19, 32, 32}))
	if got := s.Text(0, 36); got != "S0 S" {
		t.Errorf("Text = %q, want %q", got, "S0 S")
	}
}

func TestArmorRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOf(rapid.IntRange(0, 63)).Draw(t, "sextets")
		sextets := make([]byte, len(values))
		for i, v := range values {
			sextets[i] = byte(v)
		}

		s := Decode(Armor(sextets))
		assert.Equal(t, len(sextets)*6, s.Len())
		for i, want := range sextets {
			assert.Equal(t, uint64(want), s.Uint(i*6, 6), "sextet %d", i)
		}
	})
}

func TestUintIntAgreeOnNonNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.IntRange(0, 63), 1, 20).Draw(t, "sextets")
		sextets := make([]byte, len(values))
		for i, v := range values {
			sextets[i] = byte(v)
		}
		s := Decode(Armor(sextets))

		off := rapid.IntRange(0, s.Len()-1).Draw(t, "off")
		width := rapid.IntRange(1, 32).Draw(t, "width")

		u := s.Uint(off, width)
		i := s.Int(off, width)
		if u&(1<<(width-1)) == 0 {
			assert.Equal(t, int64(u), i)
		} else {
			assert.Negative(t, i)
			assert.Equal(t, u, uint64(i)&(1<<width-1))
		}
	})
}
