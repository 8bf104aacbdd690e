package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

type TokenType int

const (
	TokenDict    TokenType = iota // '<<'
	TokenArray                    // '['
	TokenName                     // '/Name'
	TokenString                   // literal or hex string
	TokenNumber                   // numeric value
	TokenBoolean                  // true/false
	TokenNull                     // null
	TokenRef                      // indirect ref '5 0 R'
	TokenStream                   // stream payload
	TokenKeyword                  // other keywords (obj, endobj, >>, ], etc.)
)

type Token struct {
	Type  TokenType
	Value interface{}
	Pos   int64
}

// Ref is the value carried by a TokenRef token.
type Ref struct{ Num, Gen int }

type Scanner interface {
	Next() (Token, error)
	Position() int64
	Seek(offset int64) error
	// SetNextStreamLength tells the scanner the Length of the stream payload
	// that follows, so it does not have to search for the endstream marker.
	SetNextStreamLength(n int64)
}

// Config bounds scanner memory use. Zero values mean "no limit".
type Config struct {
	MaxStringLength int64
	MaxStreamLength int64
}

type pdfScanner struct {
	data          []byte
	pos           int64
	cfg           Config
	nextStreamLen int64
}

// New reads the full input and returns a token scanner over it.
func New(r io.ReaderAt, cfg Config) (Scanner, error) {
	var data []byte
	buf := make([]byte, 64*1024)
	var off int64
	for {
		n, err := r.ReadAt(buf, off)
		data = append(data, buf[:n]...)
		off += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return &pdfScanner{data: data, cfg: cfg, nextStreamLen: -1}, nil
}

// NewBytes returns a scanner over an in-memory buffer.
func NewBytes(data []byte, cfg Config) Scanner {
	return &pdfScanner{data: data, cfg: cfg, nextStreamLen: -1}
}

func (s *pdfScanner) Position() int64 { return s.pos }

func (s *pdfScanner) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(s.data)) {
		return errors.New("seek out of range")
	}
	s.pos = offset
	return nil
}

func (s *pdfScanner) SetNextStreamLength(n int64) { s.nextStreamLen = n }

func (s *pdfScanner) Next() (Token, error) {
	s.skipWSAndComments()
	if s.pos >= int64(len(s.data)) {
		return Token{}, io.EOF
	}
	start := s.pos
	c := s.data[s.pos]
	switch {
	case c == '<':
		if s.peek(1) == '<' {
			s.pos += 2
			return Token{Type: TokenDict, Value: "<<", Pos: start}, nil
		}
		return s.scanHexString()
	case c == '>':
		if s.peek(1) == '>' {
			s.pos += 2
			return Token{Type: TokenKeyword, Value: ">>", Pos: start}, nil
		}
		s.pos++
		return Token{}, fmt.Errorf("stray '>' at offset %d", start)
	case c == '[':
		s.pos++
		return Token{Type: TokenArray, Value: "[", Pos: start}, nil
	case c == ']':
		s.pos++
		return Token{Type: TokenKeyword, Value: "]", Pos: start}, nil
	case c == '/':
		return s.scanName()
	case c == '(':
		return s.scanLiteralString()
	case isNumberStart(c):
		return s.scanNumberOrRef()
	case c == '{' || c == '}':
		s.pos++
		return Token{Type: TokenKeyword, Value: string(c), Pos: start}, nil
	default:
		return s.scanKeyword()
	}
}

func (s *pdfScanner) skipWSAndComments() {
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < int64(len(s.data)) && !isEOL(s.data[s.pos]) {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *pdfScanner) peek(n int64) byte {
	if s.pos+n >= int64(len(s.data)) {
		return 0
	}
	return s.data[s.pos+n]
}

func (s *pdfScanner) scanName() (Token, error) {
	start := s.pos
	s.pos++ // consume '/'
	var b bytes.Buffer
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		if c == '#' && s.pos+2 < int64(len(s.data)) {
			hi, okh := fromHex(s.data[s.pos+1])
			lo, okl := fromHex(s.data[s.pos+2])
			if okh && okl {
				b.WriteByte(hi<<4 | lo)
				s.pos += 3
				continue
			}
		}
		b.WriteByte(c)
		s.pos++
	}
	return Token{Type: TokenName, Value: b.String(), Pos: start}, nil
}

func (s *pdfScanner) scanLiteralString() (Token, error) {
	start := s.pos
	s.pos++ // consume '('
	var b bytes.Buffer
	depth := 1
	for s.pos < int64(len(s.data)) {
		if s.cfg.MaxStringLength > 0 && int64(b.Len()) > s.cfg.MaxStringLength {
			return Token{}, errors.New("string exceeds length limit")
		}
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= int64(len(s.data)) {
				return Token{}, io.ErrUnexpectedEOF
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\n':
				// line continuation
			case '\r':
				if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for i := 0; i < 2 && s.pos < int64(len(s.data)); i++ {
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					v = v*8 + int(d-'0')
					s.pos++
				}
				b.WriteByte(byte(v))
			default:
				b.WriteByte(e)
			}
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: b.Bytes(), Pos: start}, nil
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return Token{}, io.ErrUnexpectedEOF
}

func (s *pdfScanner) scanHexString() (Token, error) {
	start := s.pos
	s.pos++ // consume '<'
	var nibbles []byte
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			if len(nibbles)%2 == 1 {
				nibbles = append(nibbles, '0')
			}
			out := make([]byte, len(nibbles)/2)
			for i := 0; i < len(out); i++ {
				hi, _ := fromHex(nibbles[2*i])
				lo, _ := fromHex(nibbles[2*i+1])
				out[i] = hi<<4 | lo
			}
			return Token{Type: TokenString, Value: out, Pos: start}, nil
		}
		if isWhitespace(c) {
			continue
		}
		if _, ok := fromHex(c); !ok {
			return Token{}, fmt.Errorf("invalid hex digit %q at offset %d", c, s.pos-1)
		}
		nibbles = append(nibbles, c)
	}
	return Token{}, io.ErrUnexpectedEOF
}

// scanNumberOrRef scans a number and looks ahead for the 'N G R' form.
func (s *pdfScanner) scanNumberOrRef() (Token, error) {
	start := s.pos
	first := s.scanNumberString()
	if i, err := strconv.ParseInt(first, 10, 64); err == nil && i >= 0 {
		save := s.pos
		s.skipWSAndComments()
		if s.pos < int64(len(s.data)) && isNumberStart(s.data[s.pos]) {
			gstart := s.pos
			second := s.scanNumberString()
			if g, err := strconv.ParseInt(second, 10, 64); err == nil && g >= 0 {
				s.skipWSAndComments()
				if s.pos < int64(len(s.data)) && s.data[s.pos] == 'R' &&
					(s.pos+1 >= int64(len(s.data)) || isWhitespace(s.data[s.pos+1]) || isDelimiter(s.data[s.pos+1])) {
					s.pos++
					return Token{Type: TokenRef, Value: Ref{Num: int(i), Gen: int(g)}, Pos: start}, nil
				}
			}
			s.pos = gstart
		} else {
			s.pos = save
		}
		return Token{Type: TokenNumber, Value: i, Pos: start}, nil
	}
	f, err := strconv.ParseFloat(first, 64)
	if err != nil {
		return Token{}, fmt.Errorf("malformed number %q at offset %d", first, start)
	}
	return Token{Type: TokenNumber, Value: f, Pos: start}, nil
}

func (s *pdfScanner) scanNumberString() string {
	start := s.pos
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.' {
			s.pos++
			continue
		}
		break
	}
	return string(s.data[start:s.pos])
}

func (s *pdfScanner) scanKeyword() (Token, error) {
	start := s.pos
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		s.pos++
	}
	word := string(s.data[start:s.pos])
	switch word {
	case "":
		s.pos++
		return Token{}, fmt.Errorf("unexpected byte %q at offset %d", s.data[start], start)
	case "true":
		return Token{Type: TokenBoolean, Value: true, Pos: start}, nil
	case "false":
		return Token{Type: TokenBoolean, Value: false, Pos: start}, nil
	case "null":
		return Token{Type: TokenNull, Value: nil, Pos: start}, nil
	case "stream":
		return s.scanStream(start)
	}
	return Token{Type: TokenKeyword, Value: word, Pos: start}, nil
}

func (s *pdfScanner) scanStream(start int64) (Token, error) {
	// The stream keyword is followed by CRLF or LF, then the payload.
	if s.pos < int64(len(s.data)) && s.data[s.pos] == '\r' {
		s.pos++
	}
	if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
		s.pos++
	}
	dataStart := s.pos

	length := s.nextStreamLen
	s.nextStreamLen = -1
	if length >= 0 && dataStart+length <= int64(len(s.data)) {
		tail := s.data[dataStart+length:]
		if idx := bytes.Index(tail, []byte("endstream")); idx >= 0 && int64(idx) <= 4 {
			payload := copyBytes(s.data[dataStart : dataStart+length])
			s.pos = dataStart + length + int64(idx) + int64(len("endstream"))
			return s.emitStream(payload, start)
		}
		// Length hint disagrees with the marker; fall back to searching.
	}

	idx := bytes.Index(s.data[dataStart:], []byte("endstream"))
	if idx < 0 {
		return Token{}, errors.New("stream without endstream marker")
	}
	end := dataStart + int64(idx)
	// Trailing EOL before the marker belongs to the syntax, not the payload.
	if end > dataStart && s.data[end-1] == '\n' {
		end--
	}
	if end > dataStart && s.data[end-1] == '\r' {
		end--
	}
	payload := copyBytes(s.data[dataStart:end])
	s.pos = dataStart + int64(idx) + int64(len("endstream"))
	return s.emitStream(payload, start)
}

func (s *pdfScanner) emitStream(payload []byte, start int64) (Token, error) {
	if s.cfg.MaxStreamLength > 0 && int64(len(payload)) > s.cfg.MaxStreamLength {
		return Token{}, errors.New("stream exceeds length limit")
	}
	return Token{Type: TokenStream, Value: payload, Pos: start}, nil
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isEOL(c byte) bool { return c == '\r' || c == '\n' }

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isNumberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
