// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package linesock

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// LookupCodec returns the codec with the given WHATWG encoding label, for
// example "utf-8", "utf-16le", or "latin1".
func LookupCodec(name string) (Codec, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown codec %q: %w", name, err)
	}
	return enc, nil
}

// A streamDecoder decodes a byte stream that arrives in arbitrary chunks.  An
// encoded character split across two chunks is held back until the rest of
// it arrives.
type streamDecoder struct {
	t    transform.Transformer
	held []byte // undecoded tail of the previous chunk
	dst  []byte // scratch output buffer
}

func newStreamDecoder(c Codec) *streamDecoder {
	return &streamDecoder{t: c.NewDecoder()}
}

// appendDecode decodes src, which follows any bytes held from a previous call,
// and appends the resulting text to buf. If atEOF is true, no more input will
// follow src.
//
// If the input cannot be decoded, appendDecode stops at the bad byte, resets
// the decoder, and reports the error along with the input that follows the
// bad byte, which the caller may pass to another call.
func (d *streamDecoder) appendDecode(buf, src []byte, atEOF bool) (_, rest []byte, _ error) {
	if len(d.held) != 0 {
		src = append(d.held, src...)
		d.held = nil
	}
	if want := 2*len(src) + 16; cap(d.dst) < want {
		d.dst = make([]byte, want)
	}
	dst := d.dst[:cap(d.dst)]
	for {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		buf = append(buf, dst[:nDst]...)
		src = src[nSrc:]
		switch {
		case err == nil:
			return buf, nil, nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(dst))
				dst = d.dst
			}
		case errors.Is(err, transform.ErrShortSrc) && !atEOF:
			d.held = append([]byte(nil), src...)
			return buf, nil, nil
		default:
			d.t.Reset()
			if len(src) != 0 {
				src = src[1:]
			}
			return buf, src, fmt.Errorf("decode: %w", err)
		}
	}
}
