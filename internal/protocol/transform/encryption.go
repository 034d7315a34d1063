package transform

import (
	"crypto/aes"
	"crypto/cipher"
	"io"
)

// SecretLen is the size of the shared secret negotiated during login.
const SecretLen = 16

// Encryption is the AES-128 CFB8 stream transform. Key and IV are both the
// shared secret, and each direction keeps its own cipher state for the life
// of the connection.
type Encryption struct {
	enc     cipher.Stream
	dec     cipher.Stream
	scratch []byte
}

func NewEncryption(secret []byte) (*Encryption, error) {
	if len(secret) != SecretLen {
		return nil, ErrInvalidSecret
	}
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}
	return &Encryption{
		enc: newCFB8(block, secret, false),
		dec: newCFB8(block, secret, true),
	}, nil
}

// Decrypt advances the inbound cipher over b in place. The pipeline uses it
// for bytes read from the transport before encryption was switched on.
func (e *Encryption) Decrypt(b []byte) {
	e.dec.XORKeyStream(b, b)
}

func (e *Encryption) SendPayload(w io.Writer, data []byte) (int, error) {
	if cap(e.scratch) < len(data) {
		e.scratch = make([]byte, len(data))
	}
	out := e.scratch[:len(data)]
	e.enc.XORKeyStream(out, data)
	return w.Write(out)
}

func (e *Encryption) ReceivePayload(r io.Reader, dst []byte) ([]byte, error) {
	dst = grow(dst)
	start := len(dst)
	n, err := r.Read(dst[start:cap(dst)])
	dst = dst[:start+n]
	e.dec.XORKeyStream(dst[start:], dst[start:])
	return dst, err
}

// cfb8 is CFB mode with an 8-bit segment: every byte is XORed with the first
// byte of E(register), then shifted into the register as ciphertext.
type cfb8 struct {
	block    cipher.Block
	register []byte
	out      []byte
	decrypt  bool
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) *cfb8 {
	bs := block.BlockSize()
	register := make([]byte, bs)
	copy(register, iv)
	return &cfb8{
		block:    block,
		register: register,
		out:      make([]byte, bs),
		decrypt:  decrypt,
	}
}

func (c *cfb8) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("transform: cfb8 output smaller than input")
	}
	last := len(c.register) - 1
	for i, in := range src {
		c.block.Encrypt(c.out, c.register)
		out := in ^ c.out[0]
		dst[i] = out
		copy(c.register, c.register[1:])
		if c.decrypt {
			c.register[last] = in
		} else {
			c.register[last] = out
		}
	}
}
