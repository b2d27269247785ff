package flatblog

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

const tokenHashSalt = "opflow-agent::"

// TokenInfo is the public view of an API token record; the hash never
// leaves the store.
type TokenInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Prefix     string `json:"prefix"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	LastUsedAt string `json:"lastUsedAt,omitempty"`
	RevokedAt  string `json:"revokedAt,omitempty"`
}

type tokenRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Prefix     string `json:"prefix"`
	Hash       string `json:"hash"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	LastUsedAt string `json:"lastUsedAt,omitempty"`
	RevokedAt  string `json:"revokedAt,omitempty"`
}

func (r tokenRecord) info() TokenInfo {
	return TokenInfo{
		ID:         r.ID,
		Name:       r.Name,
		Prefix:     r.Prefix,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		LastUsedAt: r.LastUsedAt,
		RevokedAt:  r.RevokedAt,
	}
}

type tokenFile struct {
	Tokens []tokenRecord `json:"tokens"`
}

// TokenStore persists write-API tokens as whole-file JSON. Tokens are
// stored hashed; the plaintext is returned exactly once on create.
// Reads and writes are last-writer-wins, same as the category registry.
type TokenStore struct {
	Path string
}

// NewTokenStore returns a token store backed by the JSON file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{Path: path}
}

func (s *TokenStore) read() ([]tokenRecord, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token store: %w", err)
	}
	var file tokenFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse token store: %w", err)
	}
	records := file.Tokens[:0]
	for _, r := range file.Tokens {
		if r.ID != "" && r.Name != "" && r.Prefix != "" && r.Hash != "" {
			records = append(records, r)
		}
	}
	return records, nil
}

func (s *TokenStore) write(records []tokenRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create token store dir: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
	data, err := json.MarshalIndent(tokenFile{Tokens: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token store: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(s.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write token store: %w", err)
	}
	return nil
}

// List returns all token records, newest first.
func (s *TokenStore) List() ([]TokenInfo, error) {
	records, err := s.read()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
	infos := make([]TokenInfo, 0, len(records))
	for _, r := range records {
		infos = append(infos, r.info())
	}
	return infos, nil
}

// Create mints a new token under the given name and persists its hash.
// The returned plaintext is shown to the caller once and never stored.
func (s *TokenStore) Create(name string) (string, TokenInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", TokenInfo{}, validationErr("token name", "is required")
	}
	if len(name) > 80 {
		return "", TokenInfo{}, validationErr("token name", "is too long (max 80 chars)")
	}

	token := "opflow_" + randomHex(8) + "." + randomHex(24)
	now := time.Now().UTC().Format(time.RFC3339)
	record := tokenRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Prefix:    token[:18],
		Hash:      HashToken(token),
		CreatedAt: now,
		UpdatedAt: now,
	}

	records, err := s.read()
	if err != nil {
		return "", TokenInfo{}, err
	}
	records = append(records, record)
	if err := s.write(records); err != nil {
		return "", TokenInfo{}, err
	}
	return token, record.info(), nil
}

// Revoke marks a token revoked. Revoking an already-revoked token is a
// no-op that returns the existing record.
func (s *TokenStore) Revoke(id string) (TokenInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return TokenInfo{}, validationErr("token id", "is required")
	}
	records, err := s.read()
	if err != nil {
		return TokenInfo{}, err
	}
	for i := range records {
		if records[i].ID != id {
			continue
		}
		if records[i].RevokedAt == "" {
			now := time.Now().UTC().Format(time.RFC3339)
			records[i].RevokedAt = now
			records[i].UpdatedAt = now
			if err := s.write(records); err != nil {
				return TokenInfo{}, err
			}
		}
		return records[i].info(), nil
	}
	return TokenInfo{}, ErrTokenNotFound
}

// Authenticate matches a plaintext token against the stored hashes. A
// match stamps lastUsedAt. Revoked tokens never match.
func (s *TokenStore) Authenticate(token string) (TokenInfo, bool, error) {
	records, err := s.read()
	if err != nil {
		return TokenInfo{}, false, err
	}
	hash := HashToken(token)
	for i := range records {
		if records[i].Hash != hash || records[i].RevokedAt != "" {
			continue
		}
		now := time.Now().UTC().Format(time.RFC3339)
		records[i].LastUsedAt = now
		records[i].UpdatedAt = now
		if err := s.write(records); err != nil {
			return TokenInfo{}, false, err
		}
		return records[i].info(), true, nil
	}
	return TokenInfo{}, false, nil
}

// HashToken returns the hex SHA-256 of a salted token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(tokenHashSalt + token))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
