package clients

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"gopkg.in/yaml.v3"
)

// Source lists every client registration. Implementations are read in full
// on each reload.
type Source interface {
	List(ctx context.Context) ([]domain.ClientRegistration, error)
}

// StaticSource serves a fixed list, mostly for tests and embedded setups.
type StaticSource []domain.ClientRegistration

func (s StaticSource) List(context.Context) ([]domain.ClientRegistration, error) {
	return s, nil
}

// filePayload is the on-disk registry document.
type filePayload struct {
	Version int                         `yaml:"version"`
	Clients []domain.ClientRegistration `yaml:"clients"`
}

// FileSource reads registrations from a YAML document:
//
//	version: 1
//	clients:
//	  - client_id: rp-1
//	    client_name: Relying Party
//	    scope: delete-account
//	    redirect_uris: [https://rp.example.com/callback]
//	    key_alias: rp-1-signing
type FileSource struct {
	path string
}

// NewFileSource checks the path is usable and returns a source for it.
func NewFileSource(path string) (*FileSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("client registry path must not be empty")
	}
	return &FileSource{path: filepath.Clean(path)}, nil
}

// Path returns the cleaned file path.
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) List(context.Context) ([]domain.ClientRegistration, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read client registry file: %w", err)
	}

	var payload filePayload
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode client registry file: %w", err)
	}
	if payload.Version != 1 {
		return nil, fmt.Errorf("client registry file: unsupported version %d", payload.Version)
	}
	return payload.Clients, nil
}
