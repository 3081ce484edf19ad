package rig

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Codec errors. Encode failures come from out-of-range input; decode
// failures from short, corrupt, or checksum-mismatched responses.
var (
	ErrEncode = errors.New("PROTOCOL_ENCODE")
	ErrDecode = errors.New("PROTOCOL_DECODE")
)

// MaxChannel is the highest channel the go-to-channel command can address:
// the argument is at most three ASCII decimal digits.
const MaxChannel = 999

// cr terminates every CCDI frame in both directions.
const cr = '\r'

// Ack is a decoded radio response.
type Ack struct {
	// OK is true for a bare acknowledgement prompt.
	OK bool
	// Code carries the error code of a rejected command (OK false).
	Code string
}

// Checksum computes the CCDI integrity code over body: all byte values are
// summed into an 8-bit accumulator (wrapping at 256) and the two's
// complement of the sum is rendered as two uppercase hex digits. Appending
// the checksum value to the body makes the total sum 0 mod 256.
func Checksum(body []byte) string {
	var sum uint8
	for _, b := range body {
		sum += b
	}
	return fmt.Sprintf("%02X", -sum)
}

// EncodeGoToChannel builds the go-to-channel command frame for a
// pre-programmed channel index. Frame layout is the command letter, the
// argument length as two hex digits, the channel number as ASCII decimal
// digits, the checksum over everything so far, and a trailing CR.
func EncodeGoToChannel(channel int) ([]byte, error) {
	if channel < 0 || channel > MaxChannel {
		return nil, fmt.Errorf("%w: channel %d out of range 0..%d", ErrEncode, channel, MaxChannel)
	}

	arg := strconv.Itoa(channel)
	body := fmt.Sprintf("g%02X%s", len(arg), arg)
	frame := body + Checksum([]byte(body)) + string(cr)
	return []byte(frame), nil
}

// DecodeAck interprets a CR-terminated radio response. A bare "." prompt is
// an acknowledgement. A ".e<len><code><sum>" transaction error is decoded
// only after its checksum validates; everything else is malformed.
func DecodeAck(raw []byte) (*Ack, error) {
	resp := bytes.TrimSuffix(raw, []byte{cr})
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrDecode)
	}
	if resp[0] != '.' {
		return nil, fmt.Errorf("%w: unexpected response %q", ErrDecode, resp)
	}
	if len(resp) == 1 {
		return &Ack{OK: true}, nil
	}

	// Error frame: "." prompt followed by e<len><code><sum>.
	body := resp[1:]
	if body[0] != 'e' || len(body) < 5 {
		return nil, fmt.Errorf("%w: unexpected response %q", ErrDecode, resp)
	}

	argLen, err := strconv.ParseUint(string(body[1:3]), 16, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad length field in %q", ErrDecode, resp)
	}
	if len(body) != 3+int(argLen)+2 {
		return nil, fmt.Errorf("%w: truncated error frame %q", ErrDecode, resp)
	}

	payload := body[:3+argLen]
	sum := string(body[3+argLen:])
	if Checksum(payload) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch in %q", ErrDecode, resp)
	}

	return &Ack{OK: false, Code: string(body[3 : 3+argLen])}, nil
}
