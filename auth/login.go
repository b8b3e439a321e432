package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const CookieName = "session"

var ErrBadSession error = errors.New("invalid or expired session")

type basicSession struct {
	Id          string `json:"id"`
	Created     string `json:"created"`
	SessionDate string `json:"session_date"`
}

// Session identifies one viewer across visits. Its Id keys the flag store.
type Session struct {
	Id          string
	Created     time.Time
	SessionDate time.Time
}

func NewSession() *Session {
	now := time.Now()
	return &Session{
		Id:          uuid.NewString(),
		Created:     now,
		SessionDate: now,
	}
}

func (s *Session) Update() {
	s.SessionDate = time.Now()
}

func (s Session) MarshalJSON() ([]byte, error) {
	bs := basicSession{
		Id:          s.Id,
		Created:     s.Created.Format(time.RFC3339),
		SessionDate: s.SessionDate.Format(time.RFC3339),
	}

	return json.Marshal(bs)
}

func (s *Session) UnmarshalJSON(j []byte) error {
	var bs basicSession
	err := json.Unmarshal(j, &bs)
	if err != nil {
		return err
	}

	if _, err := uuid.Parse(bs.Id); err != nil {
		return err
	}

	created, err := time.Parse(time.RFC3339, bs.Created)
	if err != nil {
		return err
	}

	session_date, err := time.Parse(time.RFC3339, bs.SessionDate)
	if err != nil {
		return err
	}

	*s = Session{
		Id:          bs.Id,
		Created:     created,
		SessionDate: session_date,
	}

	return nil
}

var one_week time.Duration = time.Hour * 24 * 7

// Codec seals sessions into cookies with AES-256-GCM.
type Codec struct {
	gcm    cipher.AEAD
	Secure bool
	MaxAge time.Duration
}

// NewCodec derives the cipher key as HMAC-SHA256(coder, key).
func NewCodec(key, coder string) (*Codec, error) {
	if key == "" {
		return nil, errors.New("auth: empty session key")
	}
	mac := hmac.New(sha256.New, []byte(coder))
	mac.Write([]byte(key))

	block, err := aes.NewCipher(mac.Sum(nil)[0:32])
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Codec{gcm: gcm, MaxAge: one_week}, nil
}

func (c *Codec) EncryptAndSign(s Session) (string, error) {
	var o string
	plaintext, err := json.Marshal(s)
	if err != nil {
		return o, err
	}

	nonce := make([]byte, c.gcm.NonceSize())
	_, err = io.ReadFull(rand.Reader, nonce)
	if err != nil {
		return o, err
	}

	var ciphertext []byte
	ciphertext = append(ciphertext, nonce...)
	ciphertext = c.gcm.Seal(ciphertext, nonce, plaintext, nil)

	o = base64.RawURLEncoding.EncodeToString(ciphertext)
	return o, nil
}

func (c *Codec) DecryptAndValidate(es string) (Session, error) {
	var s Session
	ciphertext, err := base64.RawURLEncoding.DecodeString(es)
	if err != nil {
		return s, err
	}

	if len(ciphertext) < c.gcm.NonceSize() {
		return s, errors.New("invalid ciphertext size")
	}

	nonce := ciphertext[:c.gcm.NonceSize()]
	ciphertext = ciphertext[c.gcm.NonceSize():]

	plaintext, err := c.gcm.Open(ciphertext[:0], nonce, ciphertext, nil)
	if err != nil {
		return s, err
	}

	err = json.Unmarshal(plaintext, &s)
	if err != nil {
		return s, err
	}

	return s, nil
}

func (c *Codec) Get(req *http.Request) (*Session, error) {
	// fetch the session cookie and bail if it's unset.
	session_blob, err := req.Cookie(CookieName)
	if err != nil {
		return nil, ErrBadSession
	}

	session, err := c.DecryptAndValidate(session_blob.Value)
	if err != nil {
		return nil, ErrBadSession
	}

	if time.Since(session.SessionDate) > c.MaxAge {
		return nil, ErrBadSession
	}

	return &session, nil
}

func (c *Codec) Put(w http.ResponseWriter, s *Session) error {
	s.Update()
	value, err := c.EncryptAndSign(*s)
	if err != nil {
		return err
	}

	var cookie http.Cookie
	cookie.Name = CookieName
	cookie.Value = value
	cookie.Path = "/"
	cookie.Expires = s.SessionDate.Add(c.MaxAge)
	cookie.Secure = c.Secure
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode

	http.SetCookie(w, &cookie)
	return nil
}

// Ensure returns the request's session, starting a new one if it has none
// or the old one expired, and refreshes the cookie either way.
func (c *Codec) Ensure(w http.ResponseWriter, req *http.Request) (*Session, error) {
	s, err := c.Get(req)
	if err != nil {
		s = NewSession()
	}
	if err := c.Put(w, s); err != nil {
		return nil, err
	}
	return s, nil
}
