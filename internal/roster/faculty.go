package roster

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"time"
)

// Faculty identity codes carry a fixed alphabetic prefix followed by a
// numeric suffix, e.g. "FAC1024".
const codePrefixLen = 3

// FacultyRecord is one entry of the faculty roster. Token is derived for
// the current day at load time and never persisted.
type FacultyRecord struct {
	Code  string `json:"Code"`
	Name  string `json:"Name"`
	Email string `json:"Email"`
	Token int    `json:"-"`
}

// DateSalt encodes a calendar date the way the legacy token scheme does:
// month, day and year summed. It is predictable and collision-prone; the
// resulting token is a session nonce, not a credential with integrity.
func DateSalt(day time.Time) int {
	return int(day.Month()) + day.Day() + day.Year()
}

// DeriveToken computes the daily numeric token for a faculty code. The
// numeric suffix is multiplied by the date salt, the prefix is prepended,
// and the SHA-256 digest of that string, read as a big-endian unsigned
// integer, is reduced modulo the configured token space.
func DeriveToken(code string, salt, modulus int) (int, error) {
	if len(code) <= codePrefixLen {
		return 0, fmt.Errorf("faculty code %q too short", code)
	}
	suffix, err := strconv.Atoi(code[codePrefixLen:])
	if err != nil {
		return 0, fmt.Errorf("faculty code %q has non-numeric suffix: %w", code, err)
	}
	mangled := code[:codePrefixLen] + strconv.Itoa(suffix*salt)
	digest := sha256.Sum256([]byte(mangled))
	n := new(big.Int).SetBytes(digest[:])
	return int(n.Mod(n, big.NewInt(int64(modulus))).Int64()), nil
}

// FacultyStore answers token authentication over a fixed faculty roster.
// Read-only after load.
type FacultyStore struct {
	records []FacultyRecord
	modulus int
	digits  int
}

// LoadFaculty reads the faculty roster, derives every member's token for
// the given day and caches it for the process lifetime. Duplicate derived
// tokens are reported; first match wins at authentication time.
func LoadFaculty(path string, modulus int, today time.Time) (*FacultyStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faculty roster: %w", err)
	}
	var records []FacultyRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse faculty roster: %w", err)
	}

	salt := DateSalt(today)
	seen := make(map[int]string, len(records))
	for i := range records {
		tok, err := DeriveToken(records[i].Code, salt, modulus)
		if err != nil {
			return nil, err
		}
		records[i].Token = tok
		if prev, dup := seen[tok]; dup {
			log.Printf("token collision: %s and %s derive the same token today", prev, records[i].Code)
		} else {
			seen[tok] = records[i].Code
		}
	}

	return &FacultyStore{
		records: records,
		modulus: modulus,
		digits:  len(strconv.Itoa(modulus)),
	}, nil
}

// Authenticate resolves a scanned token string to a faculty member.
// Rejects inputs that are not all digits or exceed the digit length of the
// token space. Returns the first roster entry whose derived token matches,
// or nil.
func (s *FacultyStore) Authenticate(token string) *FacultyRecord {
	if token == "" || len(token) > s.digits || !allDigits(token) {
		return nil
	}
	value, err := strconv.Atoi(token)
	if err != nil {
		return nil
	}
	for i := range s.records {
		if s.records[i].Token == value {
			rec := s.records[i]
			return &rec
		}
	}
	return nil
}

// LooksLikeToken reports whether a raw scan payload has the shape of a
// session token rather than an identity payload.
func (s *FacultyStore) LooksLikeToken(payload string) bool {
	return payload != "" && len(payload) <= s.digits && allDigits(payload)
}

// Records returns the loaded roster with derived tokens.
func (s *FacultyStore) Records() []FacultyRecord {
	return s.records
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
