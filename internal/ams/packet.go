package ams

import (
	"fmt"
)

// Packet is one complete AMS frame: AoE header plus raw command payload. The
// preceding TCP header is implied and regenerated on marshal.
type Packet struct {
	Header  Header
	Payload []byte
}

// MarshalBinary encodes the complete frame: TCP header, AoE header, payload.
// Header.Length is forced to the exact payload length.
func (p *Packet) MarshalBinary() ([]byte, error) {
	p.Header.Length = uint32(len(p.Payload))

	tcp := TCPHeader{Length: HeaderLength + uint32(len(p.Payload))}
	buf := make([]byte, 0, TCPHeaderLength+HeaderLength+len(p.Payload))

	tcpBuf, err := tcp.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ams: marshal TCP header: %w", err)
	}
	hdrBuf, err := p.Header.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ams: marshal header: %w", err)
	}

	buf = append(buf, tcpBuf...)
	buf = append(buf, hdrBuf...)
	buf = append(buf, p.Payload...)
	return buf, nil
}

// Decoder extracts complete AMS frames from a byte stream, buffering partial
// frames across calls. A frame whose declared length is not yet fully
// buffered is left in place until more bytes arrive.
type Decoder struct {
	buf []byte
}

// Reset discards any buffered partial frame. Called on disconnect so a new
// connection never resumes mid-frame.
func (d *Decoder) Reset() {
	d.buf = nil
}

// Feed appends data to the internal buffer and returns every complete frame
// now available, in arrival order.
func (d *Decoder) Feed(data []byte) ([]*Packet, error) {
	d.buf = append(d.buf, data...)

	var packets []*Packet
	for len(d.buf) >= TCPHeaderLength {
		var tcp TCPHeader
		if err := tcp.UnmarshalBinary(d.buf); err != nil {
			return packets, err
		}
		if tcp.Length < HeaderLength {
			return packets, fmt.Errorf("ams: frame length %d shorter than AoE header", tcp.Length)
		}

		total := TCPHeaderLength + int(tcp.Length)
		if len(d.buf) < total {
			break
		}

		var hdr Header
		if err := hdr.UnmarshalBinary(d.buf[TCPHeaderLength:]); err != nil {
			return packets, err
		}
		if int(hdr.Length) > total-TCPHeaderLength-HeaderLength {
			return packets, fmt.Errorf("ams: payload length %d exceeds frame bounds", hdr.Length)
		}

		payload := make([]byte, hdr.Length)
		copy(payload, d.buf[TCPHeaderLength+HeaderLength:total])
		packets = append(packets, &Packet{Header: hdr, Payload: payload})

		d.buf = d.buf[total:]
	}

	if len(d.buf) == 0 {
		d.buf = nil
	}
	return packets, nil
}
