package rig

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumVendorVectors(t *testing.T) {
	// Literal frames from the vendor protocol documentation: the CCR mode
	// transition command "f0200D8" and its response "M01R00".
	tests := []struct {
		body string
		want string
	}{
		{"f0200", "D8"},
		{"M01R", "00"},
		{"g011", "07"},
		{"", "00"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum([]byte(tt.body)))
		})
	}
}

func TestChecksumZeroSumProperty(t *testing.T) {
	// Appending the checksum value makes the byte sum 0 mod 256.
	bodies := []string{"g011", "g03999", "q00", "f0200", "M01R", "e0201", "\x00\xff\x80"}

	for _, body := range bodies {
		sum := 0
		for _, b := range []byte(body) {
			sum += int(b)
		}

		cks := Checksum([]byte(body))
		require.Len(t, cks, 2)

		val, err := strconv.ParseUint(cks, 16, 8)
		require.NoError(t, err)
		assert.Equal(t, 0, (sum+int(val))%256, "body %q checksum %s", body, cks)
	}
}

func TestChecksumDeterministic(t *testing.T) {
	assert.Equal(t, Checksum([]byte("g0242")), Checksum([]byte("g0242")))
}

func TestEncodeGoToChannel(t *testing.T) {
	// Channel numbers go out as ASCII decimal digits; only the length field
	// is hex. Frames verified against hand-computed checksums.
	cases := []struct {
		channel int
		want    string
	}{
		{0, "g01008\r"},
		{1, "g01107\r"},
		{42, "g0242D1\r"},
		{999, "g039998B\r"},
	}

	for _, tt := range cases {
		frame, err := EncodeGoToChannel(tt.channel)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(frame), "channel %d", tt.channel)
	}
}

func TestEncodeGoToChannelRange(t *testing.T) {
	for _, channel := range []int{-1, 1000, 99999} {
		_, err := EncodeGoToChannel(channel)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEncode)
	}
}

func TestDecodeAckPrompt(t *testing.T) {
	for _, raw := range []string{".", ".\r"} {
		ack, err := DecodeAck([]byte(raw))
		require.NoError(t, err)
		assert.True(t, ack.OK)
		assert.Empty(t, ack.Code)
	}
}

func TestDecodeAckTransactionError(t *testing.T) {
	// Build a valid error frame for code "01" and check it round-trips.
	body := "e0201"
	raw := "." + body + Checksum([]byte(body)) + "\r"

	ack, err := DecodeAck([]byte(raw))
	require.NoError(t, err)
	assert.False(t, ack.OK)
	assert.Equal(t, "01", ack.Code)
}

func TestDecodeAckMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"bare cr", "\r"},
		{"garbage", "xyz\r"},
		{"short error frame", ".e01\r"},
		{"bad length field", ".eZZ01D8\r"},
		{"truncated payload", ".e0301AB\r"},
		{"checksum mismatch", ".e0201FF\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAck([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeAckRejectsCorruptedChecksum(t *testing.T) {
	// Flip one digit of an otherwise valid frame.
	body := "e0204"
	good := Checksum([]byte(body))
	bad := "0"
	if good[0] == '0' {
		bad = "1"
	}
	raw := "." + body + bad + good[1:] + "\r"

	_, err := DecodeAck([]byte(raw))
	assert.ErrorIs(t, err, ErrDecode)
}
