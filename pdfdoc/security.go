package pdfdoc

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"encoding/binary"
	"fmt"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/errs"
)

// passwordPad is the 32-byte padding string of the standard security handler.
var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// Permission bits (1-based bit positions 3, 5, 10 and 12).
const (
	PermPrint         int32 = 1 << 2
	PermCopy          int32 = 1 << 4
	PermAccessibility int32 = 1 << 9
	PermPrintHigh     int32 = 1 << 11

	// basePermissions has every reserved bit set and every grant cleared.
	basePermissions = int32(-3904) // 0xFFFFF0C0
)

// Permissions builds a /P value from the two user-facing grants.
func Permissions(allowPrint, allowCopy bool) int32 {
	p := basePermissions
	if allowPrint {
		p |= PermPrint | PermPrintHigh
	}
	if allowCopy {
		p |= PermCopy | PermAccessibility
	}
	return p
}

// securityHandler implements the standard security handler for
// revisions 2 to 4.
type securityHandler struct {
	v, r            int
	keyLen          int // bytes
	o, u            []byte
	p               int32
	id0             []byte
	encryptMetadata bool
	aes             bool // AESV2 for streams and strings, otherwise RC4
	identity        bool // crypt filter Identity: data is stored in clear
	key             []byte
}

func newSecurityHandler(enc core.Dict, id0 []byte) (*securityHandler, error) {
	if f, _ := enc.GetName("Filter"); f != "Standard" {
		return nil, errs.Crypto("", "unsupported security handler %q", f)
	}
	v, _ := enc.GetInt("V")
	r, _ := enc.GetInt("R")
	o, _ := enc.GetString("O")
	u, _ := enc.GetString("U")
	p, _ := enc.GetInt("P")
	h := &securityHandler{
		v:               int(v),
		r:               int(r),
		keyLen:          5,
		o:               []byte(o),
		u:               []byte(u),
		p:               int32(p),
		id0:             id0,
		encryptMetadata: true,
	}
	if b, ok := enc.GetBool("EncryptMetadata"); ok {
		h.encryptMetadata = bool(b)
	}
	if h.r < 2 || h.r > 4 {
		return nil, errs.Crypto("", "unsupported security handler revision %d", h.r)
	}
	if len(h.o) < 32 || len(h.u) < 32 {
		return nil, errs.Crypto("", "encryption dictionary has short /O or /U")
	}

	switch h.v {
	case 1:
	case 2:
		if l, ok := enc.GetInt("Length"); ok {
			h.keyLen = int(l) / 8
		}
	case 4:
		h.keyLen = 16
		stmF, _ := enc.GetName("StmF")
		switch stmF {
		case "Identity":
			h.identity = true
		default:
			cfs, _ := enc.GetDict("CF")
			cf, _ := cfs.GetDict(string(stmF))
			switch cfm, _ := cf.GetName("CFM"); cfm {
			case "AESV2":
				h.aes = true
			case "V2":
				if l, ok := cf.GetInt("Length"); ok && l > 0 {
					h.keyLen = int(l)
					if h.keyLen > 16 {
						h.keyLen /= 8
					}
				}
			case "None":
				h.identity = true
			default:
				return nil, errs.Crypto("", "unsupported crypt filter method %q", cfm)
			}
		}
	default:
		return nil, errs.Crypto("", "unsupported encryption version %d", h.v)
	}
	if h.keyLen < 5 || h.keyLen > 16 {
		return nil, errs.Crypto("", "invalid key length %d bytes", h.keyLen)
	}
	return h, nil
}

func padPassword(pw []byte) []byte {
	out := make([]byte, 32)
	n := copy(out, pw)
	copy(out[n:], passwordPad)
	return out
}

// fileKey computes the file encryption key from a user password.
func (h *securityHandler) fileKey(pw []byte) []byte {
	md := md5.New()
	md.Write(padPassword(pw))
	md.Write(h.o[:32])
	var pb [4]byte
	binary.LittleEndian.PutUint32(pb[:], uint32(h.p))
	md.Write(pb[:])
	md.Write(h.id0)
	if h.r >= 4 && !h.encryptMetadata {
		md.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}
	key := md.Sum(nil)
	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			sum := md5.Sum(key[:h.keyLen])
			key = sum[:]
		}
	}
	return key[:h.keyLen]
}

// userHash computes the /U value for key.
func (h *securityHandler) userHash(key []byte) []byte {
	if h.r == 2 {
		out := make([]byte, 32)
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(out, passwordPad)
		return out
	}
	md := md5.New()
	md.Write(passwordPad)
	md.Write(h.id0)
	out := md.Sum(nil)
	rc4Rounds(key, out, false)
	return append(out, passwordPad[:16]...)
}

// rc4Rounds applies the 20 RC4 passes with key XOR i used by revisions 3+.
// reverse runs the passes from 19 down to 0.
func rc4Rounds(key, data []byte, reverse bool) {
	tmp := make([]byte, len(key))
	for n := 0; n < 20; n++ {
		i := n
		if reverse {
			i = 19 - n
		}
		for j := range key {
			tmp[j] = key[j] ^ byte(i)
		}
		c, _ := rc4.NewCipher(tmp)
		c.XORKeyStream(data, data)
	}
}

// ownerKey derives the RC4 key used to seal /O from the owner password.
func (h *securityHandler) ownerKey(ownerPw []byte) []byte {
	sum := md5.Sum(padPassword(ownerPw))
	key := sum[:]
	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			s := md5.Sum(key)
			key = s[:]
		}
	}
	return key[:h.keyLen]
}

func (h *securityHandler) checkUser(pw []byte) ([]byte, bool) {
	key := h.fileKey(pw)
	u := h.userHash(key)
	n := 32
	if h.r >= 3 {
		n = 16
	}
	return key, bytes.Equal(u[:n], h.u[:n])
}

// authenticate tries pw as the user password, then as the owner password.
func (h *securityHandler) authenticate(pw string) error {
	if key, ok := h.checkUser([]byte(pw)); ok {
		h.key = key
		return nil
	}
	ok := h.ownerKey([]byte(pw))
	userPw := append([]byte(nil), h.o[:32]...)
	if h.r == 2 {
		c, _ := rc4.NewCipher(ok)
		c.XORKeyStream(userPw, userPw)
	} else {
		rc4Rounds(ok, userPw, true)
	}
	if key, valid := h.checkUser(userPw); valid {
		h.key = key
		return nil
	}
	return errs.Crypto("", "incorrect password")
}

// objectKey derives the per-object key.
func (h *securityHandler) objectKey(ref core.IndirectRef) []byte {
	md := md5.New()
	md.Write(h.key)
	md.Write([]byte{
		byte(ref.Number), byte(ref.Number >> 8), byte(ref.Number >> 16),
		byte(ref.Generation), byte(ref.Generation >> 8),
	})
	if h.aes {
		md.Write([]byte("sAlT"))
	}
	key := md.Sum(nil)
	n := h.keyLen + 5
	if n > 16 {
		n = 16
	}
	return key[:n]
}

func (h *securityHandler) decryptBytes(ref core.IndirectRef, data []byte) ([]byte, error) {
	if h.identity {
		return data, nil
	}
	key := h.objectKey(ref)
	if !h.aes {
		out := make([]byte, len(data))
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(out, data)
		return out, nil
	}
	if len(data) == 0 {
		return data, nil
	}
	if len(data) < aes.BlockSize || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("object %v: ciphertext length %d is not a multiple of the block size", ref, len(data))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv, body := data[:aes.BlockSize], data[aes.BlockSize:]
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)
	if n := len(out); n > 0 {
		pad := int(out[n-1])
		if pad >= 1 && pad <= aes.BlockSize && pad <= n {
			out = out[:n-pad]
		}
	}
	return out, nil
}

func (h *securityHandler) encryptBytes(ref core.IndirectRef, data []byte) ([]byte, error) {
	key := h.objectKey(ref)
	if !h.aes {
		out := make([]byte, len(data))
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(out, data)
		return out, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	pad := aes.BlockSize - len(data)%aes.BlockSize
	plain := make([]byte, len(data)+pad)
	copy(plain, data)
	for i := len(data); i < len(plain); i++ {
		plain[i] = byte(pad)
	}
	out := make([]byte, aes.BlockSize+len(plain))
	if _, err := rand.Read(out[:aes.BlockSize]); err != nil {
		return nil, err
	}
	cipher.NewCBCEncrypter(block, out[:aes.BlockSize]).CryptBlocks(out[aes.BlockSize:], plain)
	return out, nil
}

// newAESHandler prepares AES-128 (V4, R4, AESV2) encryption for writing and
// returns the matching encryption dictionary.
func newAESHandler(userPw, ownerPw string, perms int32, id0 []byte) (*securityHandler, core.Dict, error) {
	if ownerPw == "" {
		ownerPw = userPw
	}
	h := &securityHandler{
		v:               4,
		r:               4,
		keyLen:          16,
		p:               perms,
		id0:             id0,
		encryptMetadata: true,
		aes:             true,
	}
	// /O: RC4 rounds over the padded user password keyed by the owner password
	h.o = padPassword([]byte(userPw))
	rc4Rounds(h.ownerKey([]byte(ownerPw)), h.o, false)

	h.key = h.fileKey([]byte(userPw))
	h.u = h.userHash(h.key)

	dict := core.Dict{
		"Filter": core.Name("Standard"),
		"V":      core.Int(4),
		"R":      core.Int(4),
		"Length": core.Int(128),
		"CF": core.Dict{
			"StdCF": core.Dict{
				"Type":      core.Name("CryptFilter"),
				"CFM":       core.Name("AESV2"),
				"AuthEvent": core.Name("DocOpen"),
				"Length":    core.Int(16),
			},
		},
		"StmF":            core.Name("StdCF"),
		"StrF":            core.Name("StdCF"),
		"O":               core.String(h.o),
		"U":               core.String(h.u),
		"P":               core.Int(perms),
		"EncryptMetadata": core.Bool(true),
	}
	return h, dict, nil
}

// skipStream reports streams that stay in clear text.
func (h *securityHandler) skipStream(s *core.Stream) bool {
	if s.Dict.IsType("XRef") {
		return true
	}
	return !h.encryptMetadata && s.Dict.IsType("Metadata")
}

// transform rewrites every string and stream body below obj using fn.
// Containers are copied, never modified in place.
func (h *securityHandler) transform(ref core.IndirectRef, obj core.Object, fn func(core.IndirectRef, []byte) ([]byte, error)) (core.Object, error) {
	switch v := obj.(type) {
	case core.String:
		out, err := fn(ref, []byte(v))
		if err != nil {
			return nil, err
		}
		return core.String(out), nil
	case core.Array:
		arr := make(core.Array, len(v))
		for i, el := range v {
			t, err := h.transform(ref, el, fn)
			if err != nil {
				return nil, err
			}
			arr[i] = t
		}
		return arr, nil
	case core.Dict:
		d := make(core.Dict, len(v))
		for k, el := range v {
			t, err := h.transform(ref, el, fn)
			if err != nil {
				return nil, err
			}
			d[k] = t
		}
		return d, nil
	case *core.Stream:
		t, err := h.transform(ref, v.Dict, fn)
		if err != nil {
			return nil, err
		}
		dict := t.(core.Dict)
		data := v.Data
		if !h.skipStream(v) {
			if data, err = fn(ref, v.Data); err != nil {
				return nil, err
			}
		}
		return core.NewStream(dict, data), nil
	}
	return obj, nil
}
